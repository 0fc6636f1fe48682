package billing

import (
	"context"
	"errors"
	"time"

	"subscription-app/internal/domain/plans"
	"subscription-app/internal/domain/subscriptions"
	"subscription-app/internal/domain/users"
	"subscription-app/internal/domain/webhooks"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository implements Repository on PostgreSQL through gorm.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Processed(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&webhooks.ProcessedEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormRepository) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) MarkProcessed(ctx context.Context, eventID, eventType string, at time.Time) (bool, error) {
	res := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&webhooks.ProcessedEvent{
			EventID:     eventID,
			EventType:   eventType,
			ProcessedAt: at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (t *gormTx) UserByEmail(ctx context.Context, email string) (*users.User, error) {
	return t.lockedUser(ctx, "email = ?", email)
}

func (t *gormTx) UserByCustomerID(ctx context.Context, customerID string) (*users.User, error) {
	return t.lockedUser(ctx, "customer_id = ?", customerID)
}

// lockedUser holds the row lock until commit so two events for one user apply one after the other.
func (t *gormTx) lockedUser(ctx context.Context, query string, arg string) (*users.User, error) {
	var user users.User
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(query, arg).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (t *gormTx) SetCustomerID(ctx context.Context, userID uint, customerID string) error {
	return t.db.WithContext(ctx).
		Model(&users.User{}).
		Where("id = ?", userID).
		Update("customer_id", customerID).Error
}

func (t *gormTx) UpsertSubscription(ctx context.Context, sub *subscriptions.Subscription) error {
	return t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"start_date", "end_date", "plan", "period", "updated_at"}),
		}).
		Create(sub).Error
}

func (t *gormTx) SetPlan(ctx context.Context, userID uint, plan plans.Plan) error {
	return t.db.WithContext(ctx).
		Model(&users.User{}).
		Where("id = ?", userID).
		Update("plan", plan).Error
}
