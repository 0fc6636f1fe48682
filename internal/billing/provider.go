package billing

import "context"

// CheckoutSession is the subset of a provider checkout session needed for reconciliation.
type CheckoutSession struct {
	ID         string
	CustomerID string
	Email      string
	LineItems  []LineItem
}

// LineItem is one purchased unit of a checkout session.
type LineItem struct {
	PriceID   string
	Recurring bool
}

// ProviderSubscription is the subset of a provider subscription needed for reconciliation.
type ProviderSubscription struct {
	ID         string
	CustomerID string
}

// Provider fetches authoritative objects from the payment provider.
type Provider interface {
	CheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	Subscription(ctx context.Context, id string) (*ProviderSubscription, error)
}
