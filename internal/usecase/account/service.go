package account

import (
	"context"
	"errors"
	"fmt"

	"issue-tracker/internal/config"
	domainAccount "issue-tracker/internal/domain/account"
	"issue-tracker/internal/logger"
	appErrors "issue-tracker/pkg/errors"
	"issue-tracker/pkg/utils"

	"go.uber.org/zap"
)

type Hasher interface {
	Hash(password string) (string, error)
}

// Service implements account administration use cases
type Service struct {
	accounts domainAccount.Repository
	roles    domainAccount.RoleRepository
	hasher   Hasher
}

func NewService(accounts domainAccount.Repository, roles domainAccount.RoleRepository, hasher Hasher) *Service {
	if hasher == nil {
		hasher = utils.NewArgon2()
	}
	return &Service{
		accounts: accounts,
		roles:    roles,
		hasher:   hasher,
	}
}

func (s *Service) Create(ctx context.Context, req *CreateAccountRequest) (*AccountResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	req.FullName = utils.SanitizeString(req.FullName)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", utils.ValidationMessage(err), err)
	}

	role, err := s.roles.GetByName(ctx, req.Role)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	a := &domainAccount.Account{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		RoleID:       role.ID,
		Role:         *role,
		IsActive:     true,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, domainAccount.ErrAccountAlreadyExists) {
			logger.Warn("Account creation with existing email",
				zap.String("email", req.Email),
				zap.String("event", "account_create_duplicate_email"),
			)
		}
		return nil, err
	}

	logger.Info("Account created",
		zap.Uint("account_id", a.ID),
		zap.String("role", role.Name),
		zap.String("event", "account_created"),
	)

	return ToAccountResponse(a), nil
}

func (s *Service) Get(ctx context.Context, id uint) (*AccountResponse, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToAccountResponse(a), nil
}

// Active returns the stored account, failing when it has been deactivated.
func (s *Service) Active(ctx context.Context, id uint) (*domainAccount.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsActive {
		return nil, domainAccount.ErrAccountInactive
	}
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]*AccountResponse, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]*AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, ToAccountResponse(a))
	}
	return resp, nil
}

// SetStatus activates or deactivates an account. Deactivated accounts can no
// longer log in.
func (s *Service) SetStatus(ctx context.Context, id uint, req *UpdateStatusRequest) (*AccountResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", utils.ValidationMessage(err), err)
	}

	if err := s.accounts.SetActive(ctx, id, *req.IsActive); err != nil {
		return nil, err
	}

	logger.Info("Account status changed",
		zap.Uint("account_id", id),
		zap.Bool("is_active", *req.IsActive),
		zap.String("event", "account_status_changed"),
	)

	return s.Get(ctx, id)
}

func (s *Service) Roles(ctx context.Context) ([]*RoleResponse, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]*RoleResponse, 0, len(roles))
	for _, r := range roles {
		resp = append(resp, &RoleResponse{ID: r.ID, Name: r.Name})
	}
	return resp, nil
}

// EnsureAdmin creates the bootstrap admin account when the database holds no
// accounts yet. It is a no-op when bootstrap credentials are not configured.
func (s *Service) EnsureAdmin(ctx context.Context, cfg config.BootstrapConfig) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	count, err := s.accounts.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	name := cfg.AdminName
	if name == "" {
		name = "Administrator"
	}

	_, err = s.Create(ctx, &CreateAccountRequest{
		FullName: name,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Role:     domainAccount.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	logger.Info("Bootstrap admin account created", zap.String("event", "admin_bootstrapped"))
	return nil
}
