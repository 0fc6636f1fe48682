package billing

import (
	"context"
	"time"

	"subscription-app/internal/domain/plans"
)

// PlanChange describes a committed change of a user's plan.
type PlanChange struct {
	UserID  uint       `json:"user_id"`
	Plan    plans.Plan `json:"plan"`
	EventID string     `json:"event_id"`
	At      time.Time  `json:"at"`
}

// Notifier is told about plan changes after they are committed.
type Notifier interface {
	NotifyPlanChanged(ctx context.Context, change PlanChange) error
}

type nopNotifier struct{}

func (nopNotifier) NotifyPlanChanged(context.Context, PlanChange) error { return nil }

// NopNotifier discards plan changes.
func NopNotifier() Notifier { return nopNotifier{} }
