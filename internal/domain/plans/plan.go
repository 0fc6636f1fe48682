package plans

// Plan is the access level stored on a user.
type Plan string

const (
	Free    Plan = "free"
	Premium Plan = "premium"
)

// Period is the billing period of a recurring purchase.
type Period string

const (
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// Entitled reports whether the plan unlocks premium content. Only the free plan
// is locked, so labels this service never writes still count as paid.
func (p Plan) Entitled() bool {
	return p != Free
}
