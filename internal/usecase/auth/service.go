package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"issue-tracker/internal/config"
	"issue-tracker/internal/domain/account"
	"issue-tracker/internal/domain/audit"
	"issue-tracker/internal/domain/mail"
	"issue-tracker/internal/infrastructure/lock"
	"issue-tracker/internal/logger"
	appErrors "issue-tracker/pkg/errors"
	"issue-tracker/pkg/utils"

	"go.uber.org/zap"
)

const defaultMailSubject = "Password reset code"

// Service implements the login and password reset use cases
type Service struct {
	accounts    account.Repository
	attempts    account.ResetAttemptRepository
	mailConfigs mail.Repository
	mailer      MailSender

	events  EventPublisher
	locker  AccountLocker
	hasher  PasswordHasher
	newCode func() (string, error)
	now     func() time.Time
	jwt     config.JWTConfig
	reset   config.ResetConfig
	subject string
}

type Option func(*Service)

func WithLocker(l AccountLocker) Option {
	return func(s *Service) { s.locker = l }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithHasher(h PasswordHasher) Option {
	return func(s *Service) { s.hasher = h }
}

func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newCode = gen }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new auth service
func NewService(
	accounts account.Repository,
	attempts account.ResetAttemptRepository,
	mailConfigs mail.Repository,
	mailer MailSender,
	cfg *config.Config,
	opts ...Option,
) *Service {
	s := &Service{
		accounts:    accounts,
		attempts:    attempts,
		mailConfigs: mailConfigs,
		mailer:      mailer,
		events:      noopPublisher{},
		locker:      lock.NewKeyedMutex(),
		hasher:      utils.NewArgon2(),
		newCode:     GenerateResetCode,
		now:         time.Now,
		jwt:         cfg.JWT,
		reset:       cfg.Reset,
		subject:     cfg.Mail.Subject,
	}
	if s.subject == "" {
		s.subject = defaultMailSubject
	}
	if s.reset.CodeTTL <= 0 {
		s.reset.CodeTTL = 10 * time.Minute
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", utils.ValidationMessage(err), err)
	}

	user, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			logger.Warn("Login attempt with non-existent email",
				zap.String("email", req.Email),
				zap.String("event", "login_failed_not_found"),
			)
			s.publish(ctx, audit.EventLoginFailed, nil, req.Email, map[string]string{"reason": "not_found"})
		}
		return nil, err
	}

	if !user.IsActive {
		logger.Warn("Login attempt for inactive account",
			zap.Uint("account_id", user.ID),
			zap.String("event", "login_failed_inactive"),
		)
		s.publish(ctx, audit.EventLoginFailed, user, user.Email, map[string]string{"reason": "inactive"})
		return nil, account.ErrAccountInactive
	}

	ok, needsRehash, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		logger.Error("Stored password hash is unreadable",
			zap.Uint("account_id", user.ID),
			zap.String("event", "login_failed_bad_hash"),
			zap.Error(err),
		)
		ok = false
	}
	if !ok {
		logger.Warn("Login attempt with invalid password",
			zap.Uint("account_id", user.ID),
			zap.String("event", "login_failed_invalid_password"),
		)
		s.publish(ctx, audit.EventLoginFailed, user, user.Email, map[string]string{"reason": "invalid_password"})
		return nil, appErrors.ErrInvalidCredentials
	}

	if needsRehash {
		s.upgradeHash(ctx, user.ID, req.Password)
	}

	token, expiresAt, err := utils.GenerateToken(user.ID, user.Email, user.Role.Name, s.jwt.Secret, s.jwt.ExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	logger.Info("User logged in successfully",
		zap.Uint("account_id", user.ID),
		zap.String("role", user.Role.Name),
		zap.String("event", "login_success"),
	)
	s.publish(ctx, audit.EventLoginSuccess, user, user.Email, nil)

	return &LoginResponse{
		User:        ToUserResponse(user),
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *Service) upgradeHash(ctx context.Context, accountID uint, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.accounts.UpdatePassword(ctx, accountID, hash)
	}
	if err != nil {
		logger.Warn("Failed to upgrade password hash",
			zap.Uint("account_id", accountID),
			zap.Error(err),
		)
		return
	}
	logger.Info("Password hash upgraded",
		zap.Uint("account_id", accountID),
		zap.String("event", "password_rehashed"),
	)
}

// Me returns the account behind a validated session token.
func (s *Service) Me(ctx context.Context, accountID uint) (*UserResponse, error) {
	user, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, account.ErrAccountInactive
	}
	return ToUserResponse(user), nil
}

// InitiateReset issues a new reset code and mails it to the account. Earlier
// pending codes are revoked only once the new one has been delivered.
func (s *Service) InitiateReset(ctx context.Context, req *ForgotPasswordRequest) error {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError("VALIDATION_ERROR", utils.ValidationMessage(err), err)
	}

	unlock, err := s.lock(ctx, req.Email)
	if err != nil {
		return err
	}
	defer unlock()

	user, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	smtpConfig, err := s.mailConfigs.GetActive(ctx)
	if err != nil {
		if errors.Is(err, mail.ErrConfigurationNotFound) {
			logger.Error("Password reset requested without an active SMTP configuration",
				zap.Uint("account_id", user.ID),
				zap.String("event", "password_reset_no_smtp"),
			)
		}
		return err
	}

	code, err := s.newCode()
	if err != nil {
		return err
	}

	issuedAt := s.now().UTC()
	attempt := &account.ResetAttempt{
		AccountID: user.ID,
		CodeHash:  hashResetCode(s.jwt.Secret, code),
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(s.reset.CodeTTL),
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return err
	}

	msg := mail.Message{
		To:      user.Email,
		Subject: s.subject,
		Body:    resetMailBody(user.FullName, code, s.reset.CodeTTL),
	}
	if err := s.mailer.Send(ctx, smtpConfig, msg); err != nil {
		// The code never reached the user; close the attempt.
		if revokeErr := s.attempts.Revoke(context.WithoutCancel(ctx), attempt.ID, s.now().UTC()); revokeErr != nil {
			logger.Error("Failed to revoke undelivered reset attempt",
				zap.Uint("attempt_id", attempt.ID),
				zap.Error(revokeErr),
			)
		}
		logger.Error("Failed to deliver password reset code",
			zap.Uint("account_id", user.ID),
			zap.String("smtp_host", smtpConfig.Host),
			zap.String("event", "password_reset_delivery_failed"),
			zap.Error(err),
		)
		s.publish(ctx, audit.EventPasswordResetFailed, user, user.Email, nil)
		return fmt.Errorf("%w: %v", appErrors.ErrMailDelivery, err)
	}

	if err := s.attempts.RevokeOlder(ctx, user.ID, attempt.ID, s.now().UTC()); err != nil {
		return err
	}

	logger.Info("Password reset code issued",
		zap.Uint("account_id", user.ID),
		zap.Time("expires_at", attempt.ExpiresAt),
		zap.String("event", "password_reset_requested"),
	)
	s.publish(ctx, audit.EventPasswordResetRequested, user, user.Email, nil)

	return nil
}

// VerifyResetCode checks a code without consuming it.
func (s *Service) VerifyResetCode(ctx context.Context, req *VerifyResetCodeRequest) error {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError("VALIDATION_ERROR", utils.ValidationMessage(err), err)
	}

	unlock, err := s.lock(ctx, req.Email)
	if err != nil {
		return err
	}
	defer unlock()

	user, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	_, err = s.usableAttempt(ctx, user, req.Code)
	return err
}

// CommitReset replaces the password and consumes the code in one step.
func (s *Service) CommitReset(ctx context.Context, req *ResetPasswordRequest) error {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError("VALIDATION_ERROR", utils.ValidationMessage(err), err)
	}

	unlock, err := s.lock(ctx, req.Email)
	if err != nil {
		return err
	}
	defer unlock()

	user, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	attempt, err := s.usableAttempt(ctx, user, req.Code)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.attempts.Complete(ctx, attempt, hash, s.now().UTC()); err != nil {
		return err
	}

	logger.Info("Password reset completed",
		zap.Uint("account_id", user.ID),
		zap.String("event", "password_reset_completed"),
	)
	s.publish(ctx, audit.EventPasswordResetCompleted, user, user.Email, nil)

	return nil
}

func (s *Service) usableAttempt(ctx context.Context, user *account.Account, code string) (*account.ResetAttempt, error) {
	attempt, err := s.attempts.GetPending(ctx, user.ID)
	if err != nil {
		if errors.Is(err, account.ErrResetAttemptNotFound) {
			logger.Warn("Reset code presented without a pending attempt",
				zap.Uint("account_id", user.ID),
				zap.String("event", "reset_code_no_attempt"),
			)
		}
		return nil, err
	}

	if !resetCodeMatches(s.jwt.Secret, code, attempt.CodeHash) {
		logger.Warn("Reset code mismatch",
			zap.Uint("account_id", user.ID),
			zap.String("event", "reset_code_mismatch"),
		)
		return nil, appErrors.ErrInvalidResetCode
	}

	if attempt.IsExpired(s.now().UTC()) {
		logger.Warn("Expired reset code presented",
			zap.Uint("account_id", user.ID),
			zap.Time("expired_at", attempt.ExpiresAt),
			zap.String("event", "reset_code_expired"),
		)
		return nil, appErrors.ErrInvalidResetCode
	}

	return attempt, nil
}

func (s *Service) lock(ctx context.Context, email string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, "reset:"+email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrAccountBusy, err)
	}
	return unlock, nil
}

func (s *Service) publish(ctx context.Context, eventType string, user *account.Account, email string, metadata map[string]string) {
	event := audit.Event{
		Type:       eventType,
		Email:      email,
		OccurredAt: s.now().UTC(),
		Metadata:   metadata,
	}
	if user != nil {
		event.AccountID = user.ID
	}

	if err := s.events.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish audit event",
			zap.String("event", eventType),
			zap.Error(err),
		)
	}
}

func resetMailBody(name, code string, ttl time.Duration) string {
	greeting := "Hello,"
	if name != "" {
		greeting = fmt.Sprintf("Hello %s,", name)
	}
	return fmt.Sprintf("%s\n\nYour password reset code is: %s\n\nThe code expires in %d minutes and can be used once.\nIf you did not request a password reset, you can ignore this email.\n",
		greeting, code, int(ttl.Minutes()))
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, audit.Event) error { return nil }
