package audit

import "time"

// Event kinds recorded by the trail.
const (
	KindLoginSuccess = "login_success"
	KindLoginFailure = "login_failure"
	KindAdminAction  = "admin_action"
)

// Event is one audit trail entry. SubjectID and TargetID are zero when the
// event has no resolved account (e.g. a failed login by identifier).
type Event struct {
	ID         int64
	Kind       string
	SubjectID  int64
	Identifier string
	Action     string
	TargetID   int64
	CreatedAt  time.Time
}
