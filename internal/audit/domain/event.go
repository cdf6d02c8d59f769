package domain

import "time"

// Action names a recorded account or platform activity.
type Action string

const (
	ActionLogin             Action = "LOGIN"
	ActionLogout            Action = "LOGOUT"
	ActionTokenRefreshed    Action = "TOKEN_REFRESHED"
	ActionPasswordChanged   Action = "PASSWORD_CHANGED"
	ActionPasswordReset     Action = "PASSWORD_RESET"
	ActionEmailChanged      Action = "EMAIL_CHANGED"
	ActionPhoneChanged      Action = "PHONE_CHANGED"
	ActionAccountRegistered Action = "ACCOUNT_REGISTERED"
	ActionAccountDeleted    Action = "ACCOUNT_DELETED"
	ActionMaintenanceMode   Action = "SYSTEM_MAINTENANCE_MODE"
)

// Event is one activity log entry.
type Event struct {
	ID        string    `db:"id"`
	AccountID string    `db:"account_id"`
	Email     string    `db:"email"`
	Action    Action    `db:"action"`
	Details   string    `db:"details"`
	ClientIP  string    `db:"client_ip"`
	CreatedAt time.Time `db:"created_at"`
}
