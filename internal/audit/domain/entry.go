package domain

import "time"

// Entry represents one recorded authentication event.
type Entry struct {
	ID        string
	UserID    int64 // 0 when the event has no authenticated user (e.g. login_failure)
	Action    string
	IP        string
	Metadata  string
	CreatedAt time.Time
}

// Actions recorded by the auth flows.
const (
	ActionRegister     = "register"
	ActionLogin        = "login"
	ActionLoginFailure = "login_failure"
	ActionRefresh      = "refresh"
	ActionLogout       = "logout"
)
