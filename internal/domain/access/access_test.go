package access

import (
	"testing"

	"subscription-app/internal/domain/plans"
	"subscription-app/internal/domain/users"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		user *users.User
		want Decision
	}{
		{"missing user", nil, Decision{State: AccessLocked, Reason: ReasonNoUser}},
		{"free plan", &users.User{Plan: plans.Free}, Decision{State: AccessLocked, Reason: ReasonFreePlan}},
		{"premium plan", &users.User{Plan: plans.Premium}, Decision{State: AccessFull, Reason: ReasonNone}},
		{"legacy paid label", &users.User{Plan: plans.Plan("pro")}, Decision{State: AccessFull, Reason: ReasonNone}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.user)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.State == AccessFull, got.Allowed())
		})
	}
}

func TestAnonymous(t *testing.T) {
	assert.False(t, Anonymous().Allowed())
	assert.Equal(t, ReasonNoSession, Anonymous().Reason)
}
