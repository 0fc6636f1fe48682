package access

import (
	"subscription-app/internal/domain/users"
)

// Evaluate decides premium access from the stored plan only. A nil user means the
// session resolved but no row exists.
func Evaluate(u *users.User) Decision {
	if u == nil {
		return Decision{State: AccessLocked, Reason: ReasonNoUser}
	}
	if !u.Plan.Entitled() {
		return Decision{State: AccessLocked, Reason: ReasonFreePlan}
	}
	return Decision{State: AccessFull, Reason: ReasonNone}
}

// Anonymous is the decision for a request without a session.
func Anonymous() Decision {
	return Decision{State: AccessLocked, Reason: ReasonNoSession}
}
