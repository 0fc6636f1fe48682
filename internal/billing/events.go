package billing

// Stripe event types this service reconciles.
const (
	TypeCheckoutCompleted   = "checkout.session.completed"
	TypeSubscriptionDeleted = "customer.subscription.deleted"
)

// Event is the closed set of webhook events the reconciler understands.
// Anything else decodes to Unhandled.
type Event interface {
	ID() string
	Type() string
	isEvent()
}

// CheckoutCompleted references a checkout session that finished successfully.
type CheckoutCompleted struct {
	EventID   string
	SessionID string
}

// SubscriptionDeleted references a provider subscription that ended.
type SubscriptionDeleted struct {
	EventID        string
	SubscriptionID string
}

// Unhandled is any verified event whose type is not reconciled here.
type Unhandled struct {
	EventID   string
	EventType string
}

func (e CheckoutCompleted) ID() string   { return e.EventID }
func (e SubscriptionDeleted) ID() string { return e.EventID }
func (e Unhandled) ID() string           { return e.EventID }

func (CheckoutCompleted) Type() string   { return TypeCheckoutCompleted }
func (SubscriptionDeleted) Type() string { return TypeSubscriptionDeleted }
func (e Unhandled) Type() string         { return e.EventType }

func (CheckoutCompleted) isEvent()   {}
func (SubscriptionDeleted) isEvent() {}
func (Unhandled) isEvent()           {}
