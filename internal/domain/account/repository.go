package account

import (
	"context"
	"time"
)

// Repository defines persistence operations on accounts.
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id uint) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	Count(ctx context.Context) (int64, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	SetActive(ctx context.Context, id uint, active bool) error
}

// RoleRepository defines read access to roles.
type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
}

// ResetAttemptRepository defines persistence operations on reset attempts.
type ResetAttemptRepository interface {
	Create(ctx context.Context, attempt *ResetAttempt) error
	// GetPending returns the most recently issued attempt that is neither
	// consumed nor revoked. Expiry is left to the caller.
	GetPending(ctx context.Context, accountID uint) (*ResetAttempt, error)
	Revoke(ctx context.Context, id uint, at time.Time) error
	// RevokeOlder revokes the pending attempts of the account issued before
	// keepID. Attempts created after it are left alone.
	RevokeOlder(ctx context.Context, accountID, keepID uint, at time.Time) error
	// Complete consumes the attempt and stores the new password hash
	// atomically. It fails with ErrResetAttemptNotFound when the attempt was
	// consumed or revoked in the meantime.
	Complete(ctx context.Context, attempt *ResetAttempt, passwordHash string, at time.Time) error
	DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
