package stripe

import (
	"encoding/json"
	"errors"
	"fmt"

	"subscription-app/internal/billing"

	stripeapi "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

// ErrInvalidSignature wraps every verification failure: bad or missing header,
// wrong secret, tampered payload, stale timestamp.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// WebhookVerifier authenticates webhook payloads and decodes them into billing events.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Verify checks the Stripe-Signature header against the raw payload. Only a verified
// payload is decoded.
func (v *WebhookVerifier) Verify(payload []byte, header string) (billing.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, header, v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return decode(event)
}

type objectRef struct {
	ID string `json:"id"`
}

func decode(event stripeapi.Event) (billing.Event, error) {
	switch string(event.Type) {
	case billing.TypeCheckoutCompleted:
		ref, err := objectOf(event)
		if err != nil {
			return nil, err
		}
		return billing.CheckoutCompleted{EventID: event.ID, SessionID: ref.ID}, nil
	case billing.TypeSubscriptionDeleted:
		ref, err := objectOf(event)
		if err != nil {
			return nil, err
		}
		return billing.SubscriptionDeleted{EventID: event.ID, SubscriptionID: ref.ID}, nil
	default:
		return billing.Unhandled{EventID: event.ID, EventType: string(event.Type)}, nil
	}
}

func objectOf(event stripeapi.Event) (objectRef, error) {
	var ref objectRef
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return ref, fmt.Errorf("%w: %s has no data object", billing.ErrMalformedEvent, event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, &ref); err != nil {
		return ref, fmt.Errorf("%w: %s: %v", billing.ErrMalformedEvent, event.ID, err)
	}
	return ref, nil
}
