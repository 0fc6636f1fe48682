package users

import (
	"subscription-app/internal/domain/access"
	"subscription-app/internal/domain/subscriptions"
	"subscription-app/internal/domain/users"
)

func BuildMeResponse(u *users.User, sub *subscriptions.Subscription) MeResponse {
	decision := access.Evaluate(u)
	return MeResponse{
		User: UserDTO{
			ID:    u.ID,
			Email: u.Email,
			Name:  u.Name,
		},
		Billing: BillingDTO{
			Plan:          string(u.Plan),
			HasCustomerID: u.HasCustomerID(),
			Subscription:  BuildSubscriptionDTO(sub),
		},
		Access: AccessDTO{
			State:  string(decision.State),
			Reason: string(decision.Reason),
		},
	}
}

func BuildSubscriptionDTO(sub *subscriptions.Subscription) *SubscriptionDTO {
	if sub == nil {
		return nil
	}
	return &SubscriptionDTO{
		Plan:      string(sub.Plan),
		Period:    string(sub.Period),
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
	}
}
