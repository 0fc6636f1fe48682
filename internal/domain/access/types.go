package access

type AccessState string

const (
	AccessFull   AccessState = "full"
	AccessLocked AccessState = "locked"
)

// Reason says why access is locked. Empty for full access.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonNoSession Reason = "no_session"
	ReasonNoUser    Reason = "no_user"
	ReasonFreePlan  Reason = "free_plan"
)

type Decision struct {
	State  AccessState
	Reason Reason
}

func (d Decision) Allowed() bool { return d.State == AccessFull }
