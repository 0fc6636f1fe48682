package billing

import (
	"context"
	"fmt"
	"time"

	"subscription-app/internal/domain/plans"
	"subscription-app/internal/domain/subscriptions"

	"go.uber.org/zap"
)

// Outcome describes what Reconcile did with an event that did not fail.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

// Reconciler applies verified billing events to users and subscriptions.
type Reconciler struct {
	repo     Repository
	provider Provider
	prices   plans.PriceCatalog
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Reconciler)

// WithClock overrides the time source used for subscription dates.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithNotifier sets the receiver of committed plan changes.
func WithNotifier(n Notifier) Option {
	return func(r *Reconciler) { r.notifier = n }
}

func NewReconciler(repo Repository, provider Provider, prices plans.PriceCatalog, logger *zap.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		repo:     repo,
		provider: provider,
		prices:   prices,
		notifier: NopNotifier(),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile applies one event. Every store write for the event happens in a single
// transaction that also records the event id, so a re-delivered event is applied once.
func (r *Reconciler) Reconcile(ctx context.Context, event Event) (Outcome, error) {
	switch ev := event.(type) {
	case CheckoutCompleted:
		return r.checkoutCompleted(ctx, ev)
	case SubscriptionDeleted:
		return r.subscriptionDeleted(ctx, ev)
	default:
		r.logger.Info("unhandled event type",
			zap.String("event_id", event.ID()),
			zap.String("event_type", event.Type()),
		)
		return OutcomeIgnored, nil
	}
}

func (r *Reconciler) checkoutCompleted(ctx context.Context, ev CheckoutCompleted) (Outcome, error) {
	if ev.SessionID == "" {
		return "", fmt.Errorf("%w: checkout event %s has no session id", ErrMalformedEvent, ev.EventID)
	}
	if done, err := r.repo.Processed(ctx, ev.EventID); err != nil {
		return "", fmt.Errorf("check processed event: %w", err)
	} else if done {
		return OutcomeDuplicate, nil
	}

	session, err := r.provider.CheckoutSession(ctx, ev.SessionID)
	if err != nil {
		return "", fmt.Errorf("fetch checkout session %s: %w", ev.SessionID, err)
	}

	var change *PlanChange
	outcome, err := r.transact(ctx, ev, func(tx Tx, now time.Time) error {
		if session.Email == "" {
			r.logger.Info("checkout session has no customer email",
				zap.String("event_id", ev.EventID),
				zap.String("session_id", session.ID),
			)
			return nil
		}

		user, err := tx.UserByEmail(ctx, session.Email)
		if err != nil {
			return fmt.Errorf("find user by checkout email: %w", err)
		}

		if !user.HasCustomerID() && session.CustomerID != "" {
			if err := tx.SetCustomerID(ctx, user.ID, session.CustomerID); err != nil {
				return fmt.Errorf("store customer id: %w", err)
			}
		}

		for _, item := range session.LineItems {
			// one-time purchases do not change the plan
			if !item.Recurring {
				continue
			}

			period, err := r.prices.PeriodFor(item.PriceID)
			if err != nil {
				return fmt.Errorf("%w: %q", ErrInvalidPrice, item.PriceID)
			}

			sub := &subscriptions.Subscription{
				UserID:    user.ID,
				StartDate: now,
				EndDate:   period.EndDate(now),
				Plan:      plans.Premium,
				Period:    period,
			}
			if err := tx.UpsertSubscription(ctx, sub); err != nil {
				return fmt.Errorf("upsert subscription: %w", err)
			}
			if err := tx.SetPlan(ctx, user.ID, plans.Premium); err != nil {
				return fmt.Errorf("set premium plan: %w", err)
			}

			r.logger.Info("subscription activated",
				zap.String("event_id", ev.EventID),
				zap.Uint("user_id", user.ID),
				zap.String("period", string(period)),
				zap.Time("end_date", sub.EndDate),
			)
			change = &PlanChange{UserID: user.ID, Plan: plans.Premium, EventID: ev.EventID, At: now}
		}
		return nil
	})
	if err != nil || outcome != OutcomeApplied {
		return outcome, err
	}

	if change != nil {
		r.notify(ctx, *change)
	}
	return outcome, nil
}

func (r *Reconciler) subscriptionDeleted(ctx context.Context, ev SubscriptionDeleted) (Outcome, error) {
	if ev.SubscriptionID == "" {
		return "", fmt.Errorf("%w: subscription event %s has no subscription id", ErrMalformedEvent, ev.EventID)
	}
	if done, err := r.repo.Processed(ctx, ev.EventID); err != nil {
		return "", fmt.Errorf("check processed event: %w", err)
	} else if done {
		return OutcomeDuplicate, nil
	}

	sub, err := r.provider.Subscription(ctx, ev.SubscriptionID)
	if err != nil {
		return "", fmt.Errorf("fetch subscription %s: %w", ev.SubscriptionID, err)
	}

	var change PlanChange
	outcome, err := r.transact(ctx, ev, func(tx Tx, now time.Time) error {
		if sub.CustomerID == "" {
			return fmt.Errorf("%w: subscription %s has no customer", ErrUserNotFound, sub.ID)
		}

		user, err := tx.UserByCustomerID(ctx, sub.CustomerID)
		if err != nil {
			return fmt.Errorf("find user for deleted subscription %s: %w", sub.ID, err)
		}

		if err := tx.SetPlan(ctx, user.ID, plans.Free); err != nil {
			return fmt.Errorf("set free plan: %w", err)
		}

		r.logger.Info("subscription ended",
			zap.String("event_id", ev.EventID),
			zap.Uint("user_id", user.ID),
		)
		change = PlanChange{UserID: user.ID, Plan: plans.Free, EventID: ev.EventID, At: now}
		return nil
	})
	if err != nil || outcome != OutcomeApplied {
		return outcome, err
	}

	r.notify(ctx, change)
	return outcome, nil
}

// transact records the event and runs apply in the same transaction.
func (r *Reconciler) transact(ctx context.Context, ev Event, apply func(tx Tx, now time.Time) error) (Outcome, error) {
	now := r.now().UTC()
	outcome := OutcomeApplied

	err := r.repo.WithinTx(ctx, func(tx Tx) error {
		fresh, err := tx.MarkProcessed(ctx, ev.ID(), ev.Type(), now)
		if err != nil {
			return fmt.Errorf("record event: %w", err)
		}
		if !fresh {
			outcome = OutcomeDuplicate
			return nil
		}
		return apply(tx, now)
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// notify runs after commit; a failed notification does not undo the reconciliation.
func (r *Reconciler) notify(ctx context.Context, change PlanChange) {
	if err := r.notifier.NotifyPlanChanged(ctx, change); err != nil {
		r.logger.Warn("failed to publish plan change",
			zap.Error(err),
			zap.Uint("user_id", change.UserID),
			zap.String("event_id", change.EventID),
		)
	}
}
