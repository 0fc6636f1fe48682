package billing

import (
	"context"
	"time"

	"subscription-app/internal/domain/plans"
	"subscription-app/internal/domain/subscriptions"
	"subscription-app/internal/domain/users"
)

// Repository runs reconciliation writes atomically.
type Repository interface {
	// Processed reports whether an event id was already reconciled.
	Processed(ctx context.Context, eventID string) (bool, error)
	// WithinTx runs fn in one transaction; any returned error rolls everything back.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of store operations available inside a reconciliation transaction.
type Tx interface {
	// MarkProcessed records the event id and returns false when it was already recorded.
	MarkProcessed(ctx context.Context, eventID, eventType string, at time.Time) (bool, error)
	UserByEmail(ctx context.Context, email string) (*users.User, error)
	UserByCustomerID(ctx context.Context, customerID string) (*users.User, error)
	SetCustomerID(ctx context.Context, userID uint, customerID string) error
	UpsertSubscription(ctx context.Context, sub *subscriptions.Subscription) error
	SetPlan(ctx context.Context, userID uint, plan plans.Plan) error
}
