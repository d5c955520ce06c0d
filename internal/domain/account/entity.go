package account

import (
	"time"
)

// Well-known role names seeded by the initial migration.
const (
	RoleAdmin          = "admin"
	RoleProjectManager = "project_manager"
	RoleDeveloper      = "developer"
	RoleViewer         = "viewer"
)

// Role is a named permission group an account belongs to.
type Role struct {
	ID   uint
	Name string
}

// Account represents a user of the issue tracker.
type Account struct {
	ID           uint
	FullName     string
	Email        string
	PasswordHash string
	RoleID       uint
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ResetAttempt is a single password reset code issued to an account. Only the
// hash of the code is stored.
type ResetAttempt struct {
	ID         uint
	AccountID  uint
	CodeHash   string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	RevokedAt  *time.Time
}

// IsExpired reports whether the code can no longer be used at now.
func (a *ResetAttempt) IsExpired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// IsPending reports whether the attempt has been neither consumed nor revoked.
func (a *ResetAttempt) IsPending() bool {
	return a.ConsumedAt == nil && a.RevokedAt == nil
}

// IsUsable reports whether the attempt can still authorize a password change.
func (a *ResetAttempt) IsUsable(now time.Time) bool {
	return a.IsPending() && !a.IsExpired(now)
}
