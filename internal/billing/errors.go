package billing

import "errors"

var (
	// ErrUserNotFound means an email or customer reference from an event matches no user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidPrice means a recurring line item uses neither configured price id.
	ErrInvalidPrice = errors.New("invalid price id")
	// ErrMalformedEvent means a verified event of a known type could not be decoded.
	ErrMalformedEvent = errors.New("malformed event")
)

// FailureKind labels why an event could not be reconciled.
type FailureKind string

const (
	KindNone           FailureKind = ""
	KindUserNotFound   FailureKind = "user_not_found"
	KindInvalidPrice   FailureKind = "invalid_price"
	KindMalformedEvent FailureKind = "malformed_event"
	KindInternal       FailureKind = "internal"
)

// KindOf classifies an error returned by Reconcile.
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUserNotFound):
		return KindUserNotFound
	case errors.Is(err, ErrInvalidPrice):
		return KindInvalidPrice
	case errors.Is(err, ErrMalformedEvent):
		return KindMalformedEvent
	default:
		return KindInternal
	}
}
