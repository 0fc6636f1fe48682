//go:build integration

package billing_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"subscription-app/database"
	"subscription-app/internal/billing"
	"subscription-app/internal/domain/plans"
	"subscription-app/internal/domain/subscriptions"
	"subscription-app/internal/domain/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgres starts PostgreSQL, applies the embedded migrations and returns a connected DB.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "test_billing",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/test_billing?sslmode=disable", host, port.Port())

	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(dsn, zap.NewNop()))
	return db
}

type stubProvider struct {
	session *billing.CheckoutSession
	sub     *billing.ProviderSubscription
}

func (p stubProvider) CheckoutSession(context.Context, string) (*billing.CheckoutSession, error) {
	return p.session, nil
}

func (p stubProvider) Subscription(context.Context, string) (*billing.ProviderSubscription, error) {
	return p.sub, nil
}

var catalog = plans.PriceCatalog{YearlyPriceID: "price_yearly", MonthlyPriceID: "price_monthly"}

func TestGormRepositoryReconcileLifecycle(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	user := users.User{Name: "Ada", Email: "ada@example.com", Plan: plans.Free}
	require.NoError(t, db.Create(&user).Error)

	provider := stubProvider{
		session: &billing.CheckoutSession{
			ID:         "cs_1",
			CustomerID: "cus_1",
			Email:      "ada@example.com",
			LineItems:  []billing.LineItem{{PriceID: "price_yearly", Recurring: true}},
		},
		sub: &billing.ProviderSubscription{ID: "sub_1", CustomerID: "cus_1"},
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	r := billing.NewReconciler(billing.NewGormRepository(db), provider, catalog, zap.NewNop(),
		billing.WithClock(func() time.Time { return now }))

	outcome, err := r.Reconcile(ctx, billing.CheckoutCompleted{EventID: "evt_1", SessionID: "cs_1"})
	require.NoError(t, err)
	assert.Equal(t, billing.OutcomeApplied, outcome)

	var stored users.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, plans.Premium, stored.Plan)
	require.NotNil(t, stored.CustomerID)
	assert.Equal(t, "cus_1", *stored.CustomerID)

	var sub subscriptions.Subscription
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&sub).Error)
	assert.Equal(t, plans.Yearly, sub.Period)
	assert.True(t, now.AddDate(1, 0, 0).Equal(sub.EndDate))

	outcome, err = r.Reconcile(ctx, billing.CheckoutCompleted{EventID: "evt_1", SessionID: "cs_1"})
	require.NoError(t, err)
	assert.Equal(t, billing.OutcomeDuplicate, outcome)

	provider.session.LineItems = []billing.LineItem{{PriceID: "price_monthly", Recurring: true}}
	_, err = r.Reconcile(ctx, billing.CheckoutCompleted{EventID: "evt_2", SessionID: "cs_1"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&subscriptions.Subscription{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&sub).Error)
	assert.Equal(t, plans.Monthly, sub.Period)

	_, err = r.Reconcile(ctx, billing.SubscriptionDeleted{EventID: "evt_3", SubscriptionID: "sub_1"})
	require.NoError(t, err)
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, plans.Free, stored.Plan)
}

func TestGormRepositoryInvalidPriceRollsBack(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	user := users.User{Email: "grace@example.com", Plan: plans.Free}
	require.NoError(t, db.Create(&user).Error)

	provider := stubProvider{session: &billing.CheckoutSession{
		ID:         "cs_2",
		CustomerID: "cus_2",
		Email:      "grace@example.com",
		LineItems:  []billing.LineItem{{PriceID: "price_unknown", Recurring: true}},
	}}
	r := billing.NewReconciler(billing.NewGormRepository(db), provider, catalog, zap.NewNop())

	_, err := r.Reconcile(ctx, billing.CheckoutCompleted{EventID: "evt_9", SessionID: "cs_2"})
	assert.ErrorIs(t, err, billing.ErrInvalidPrice)

	var stored users.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Nil(t, stored.CustomerID)
	assert.Equal(t, plans.Free, stored.Plan)

	processed, err := billing.NewGormRepository(db).Processed(ctx, "evt_9")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestGormRepositoryConcurrentRedeliveryAppliesOnce(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	user := users.User{Email: "linus@example.com", Plan: plans.Free}
	require.NoError(t, db.Create(&user).Error)

	provider := stubProvider{session: &billing.CheckoutSession{
		ID:        "cs_3",
		Email:     "linus@example.com",
		LineItems: []billing.LineItem{{PriceID: "price_monthly", Recurring: true}},
	}}
	r := billing.NewReconciler(billing.NewGormRepository(db), provider, catalog, zap.NewNop())

	const workers = 5
	outcomes := make([]billing.Outcome, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = r.Reconcile(ctx, billing.CheckoutCompleted{EventID: "evt_race", SessionID: "cs_3"})
		}(i)
	}
	wg.Wait()

	applied := 0
	for i := range outcomes {
		require.NoError(t, errs[i])
		if outcomes[i] == billing.OutcomeApplied {
			applied++
		}
	}
	assert.Equal(t, 1, applied)
}
