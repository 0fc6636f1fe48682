package users

import "time"

type MeResponse struct {
	User    UserDTO    `json:"user"`
	Billing BillingDTO `json:"billing"`
	Access  AccessDTO  `json:"access"`
}

type UserDTO struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BillingDTO struct {
	Plan          string           `json:"plan"`
	HasCustomerID bool             `json:"has_customer_id"`
	Subscription  *SubscriptionDTO `json:"subscription,omitempty"`
}

// SubscriptionDTO is the stored subscription row. It may be stale after a
// cancellation; Plan on BillingDTO is authoritative.
type SubscriptionDTO struct {
	Plan      string    `json:"plan"`
	Period    string    `json:"period"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type AccessDTO struct {
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}
