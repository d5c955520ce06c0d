package mail

import (
	"context"

	appErrors "issue-tracker/pkg/errors"
)

var ErrConfigurationNotFound = appErrors.ErrSMTPConfigNotFound

// Repository defines persistence operations on SMTP configurations.
type Repository interface {
	// GetActive returns the active configuration with the lowest id.
	GetActive(ctx context.Context) (*Configuration, error)
	GetByID(ctx context.Context, id uint) (*Configuration, error)
	List(ctx context.Context) ([]*Configuration, error)
	Create(ctx context.Context, cfg *Configuration) error
	Update(ctx context.Context, cfg *Configuration) error
	Delete(ctx context.Context, id uint) error
}
