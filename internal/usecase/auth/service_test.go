package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"issue-tracker/internal/config"
	"issue-tracker/internal/domain/account"
	"issue-tracker/internal/domain/audit"
	"issue-tracker/internal/domain/mail"
	"issue-tracker/internal/infrastructure/database/dbtest"
	"issue-tracker/internal/infrastructure/database/postgres"
	"issue-tracker/internal/infrastructure/lock"
	appErrors "issue-tracker/pkg/errors"
	"issue-tracker/pkg/utils"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

const (
	testEmail    = "a@x.com"
	testPassword = "Secret#123"
	newPassword  = "N3w!Password"
	testSecret   = "test-secret"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type eventType string

func (e eventType) Matches(x any) bool {
	ev, ok := x.(audit.Event)
	return ok && ev.Type == string(e)
}

func (e eventType) String() string {
	return "audit event " + string(e)
}

func codeSequence(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func testHasher() *utils.Argon2 {
	return &utils.Argon2{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

type fixture struct {
	svc      *Service
	db       *postgres.DB
	users    *postgres.UserRepository
	attempts *postgres.ResetAttemptRepository
	smtp     *mail.Configuration
	mailer   *MockMailSender
	events   *MockEventPublisher
	clock    *fakeClock
	user     *account.Account
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	db := dbtest.New(t)
	users := postgres.NewUserRepository(db)
	attempts := postgres.NewResetAttemptRepository(db)
	smtpRepo := postgres.NewSMTPConfigurationRepository(db)

	hash, err := testHasher().Hash(testPassword)
	require.NoError(t, err)
	user := &account.Account{
		FullName:     "Ada Lovelace",
		Email:        testEmail,
		PasswordHash: hash,
		RoleID:       dbtest.RoleID(t, db, account.RoleDeveloper),
		IsActive:     true,
	}
	require.NoError(t, users.Create(context.Background(), user))

	smtpCfg := &mail.Configuration{
		Host:        "smtp.tracker.test",
		Port:        587,
		Encryption:  mail.EncryptionTLS,
		FromAddress: "noreply@tracker.test",
		IsActive:    true,
	}
	require.NoError(t, smtpRepo.Create(context.Background(), smtpCfg))

	f := &fixture{
		db:       db,
		users:    users,
		attempts: attempts,
		smtp:     smtpCfg,
		mailer:   NewMockMailSender(ctrl),
		events:   NewMockEventPublisher(ctrl),
		clock:    &fakeClock{now: time.Now().UTC()},
		user:     user,
	}

	cfg := &config.Config{
		JWT:   config.JWTConfig{Secret: testSecret, ExpiryHours: 1},
		Reset: config.ResetConfig{CodeTTL: 10 * time.Minute, Retention: 24 * time.Hour},
		Mail:  config.MailConfig{Subject: "Password reset code"},
	}
	base := []Option{
		WithEventPublisher(f.events),
		WithHasher(testHasher()),
		WithClock(f.clock.Now),
		WithCodeGenerator(codeSequence("111111", "222222", "333333")),
	}
	f.svc = NewService(users, attempts, smtpRepo, f.mailer, cfg, append(base, opts...)...)
	return f
}

func (f *fixture) allowEvents() {
	f.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (f *fixture) allowMail(times int) {
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(times)
}

func (f *fixture) storedHash(t *testing.T) string {
	t.Helper()
	got, err := f.users.GetByID(context.Background(), f.user.ID)
	require.NoError(t, err)
	return got.PasswordHash
}

func requireValidationError(t *testing.T, err error) {
	t.Helper()
	var appErr *appErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	f.events.EXPECT().Publish(gomock.Any(), eventType(audit.EventLoginSuccess)).Return(nil)

	resp, err := f.svc.Login(context.Background(), &LoginRequest{Email: "  A@X.com ", Password: testPassword})
	require.NoError(t, err)

	assert.Equal(t, &UserResponse{
		ID:       f.user.ID,
		FullName: "Ada Lovelace",
		Email:    testEmail,
		Role:     account.RoleDeveloper,
	}, resp.User)

	claims, err := utils.ValidateToken(resp.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, claims.AccountID)
	assert.Equal(t, account.RoleDeveloper, claims.Role)
	assert.Equal(t, claims.ExpiresAt.Unix(), resp.ExpiresAt)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		inactive bool
		wantErr  error
	}{
		{name: "unknown account", email: "b@x.com", password: testPassword, wantErr: account.ErrAccountNotFound},
		{name: "wrong password", email: testEmail, password: "wrong", wantErr: appErrors.ErrInvalidCredentials},
		{name: "inactive with correct password", email: testEmail, password: testPassword, inactive: true, wantErr: account.ErrAccountInactive},
		{name: "inactive with wrong password", email: testEmail, password: "wrong", inactive: true, wantErr: account.ErrAccountInactive},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t)
			f.events.EXPECT().Publish(gomock.Any(), eventType(audit.EventLoginFailed)).Return(nil)
			if test.inactive {
				require.NoError(t, f.users.SetActive(context.Background(), f.user.ID, false))
			}

			resp, err := f.svc.Login(context.Background(), &LoginRequest{Email: test.email, Password: test.password})
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, test.wantErr)
		})
	}
}

func TestLogin_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Login(context.Background(), &LoginRequest{Email: "not-an-email", Password: testPassword})
	requireValidationError(t, err)

	_, err = f.svc.Login(context.Background(), &LoginRequest{Email: testEmail})
	requireValidationError(t, err)
}

func TestLogin_UpgradesLegacyBcryptHash(t *testing.T) {
	f := newFixture(t)
	f.allowEvents()

	legacy, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.users.UpdatePassword(context.Background(), f.user.ID, string(legacy)))

	_, err = f.svc.Login(context.Background(), &LoginRequest{Email: testEmail, Password: testPassword})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(f.storedHash(t), "$argon2id$"))

	_, err = f.svc.Login(context.Background(), &LoginRequest{Email: testEmail, Password: testPassword})
	assert.NoError(t, err)
}

func TestLogin_UnreadableHashIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	hasher := NewMockPasswordHasher(ctrl)
	hasher.EXPECT().Verify(testPassword, gomock.Any()).Return(false, false, utils.ErrInvalidHash)

	f := newFixture(t, WithHasher(hasher))
	f.events.EXPECT().Publish(gomock.Any(), eventType(audit.EventLoginFailed)).Return(nil)

	_, err := f.svc.Login(context.Background(), &LoginRequest{Email: testEmail, Password: testPassword})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLogin_EventFailureDoesNotFailLogin(t *testing.T) {
	f := newFixture(t)
	f.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	_, err := f.svc.Login(context.Background(), &LoginRequest{Email: testEmail, Password: testPassword})
	assert.NoError(t, err)
}

func TestMe(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.Me(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, testEmail, got.Email)

	_, err = f.svc.Me(context.Background(), 9999)
	assert.ErrorIs(t, err, account.ErrAccountNotFound)

	require.NoError(t, f.users.SetActive(context.Background(), f.user.ID, false))
	_, err = f.svc.Me(context.Background(), f.user.ID)
	assert.ErrorIs(t, err, account.ErrAccountInactive)
}

func TestInitiateReset_SendsCode(t *testing.T) {
	f := newFixture(t)
	f.events.EXPECT().Publish(gomock.Any(), eventType(audit.EventPasswordResetRequested)).Return(nil)
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cfg *mail.Configuration, msg mail.Message) error {
			assert.Equal(t, f.smtp.ID, cfg.ID)
			assert.Equal(t, testEmail, msg.To)
			assert.Equal(t, "Password reset code", msg.Subject)
			assert.Contains(t, msg.Body, "111111")
			assert.Contains(t, msg.Body, "10 minutes")
			return nil
		})

	require.NoError(t, f.svc.InitiateReset(context.Background(), &ForgotPasswordRequest{Email: "A@x.com"}))

	attempt, err := f.attempts.GetPending(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.NotContains(t, attempt.CodeHash, "111111")
	assert.Equal(t, 10*time.Minute, attempt.ExpiresAt.Sub(attempt.IssuedAt))
	assert.True(t, resetCodeMatches(testSecret, "111111", attempt.CodeHash))
}

func TestInitiateReset_UnknownAccount(t *testing.T) {
	f := newFixture(t)

	err := f.svc.InitiateReset(context.Background(), &ForgotPasswordRequest{Email: "ghost@x.com"})
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
}

func TestInitiateReset_NoActiveSMTPConfiguration(t *testing.T) {
	f := newFixture(t)
	f.smtp.IsActive = false
	require.NoError(t, postgres.NewSMTPConfigurationRepository(f.db).Update(context.Background(), f.smtp))

	err := f.svc.InitiateReset(context.Background(), &ForgotPasswordRequest{Email: testEmail})
	assert.ErrorIs(t, err, mail.ErrConfigurationNotFound)

	_, err = f.attempts.GetPending(context.Background(), f.user.ID)
	assert.ErrorIs(t, err, account.ErrResetAttemptNotFound)
}

func TestInitiateReset_ReplacesPreviousCode(t *testing.T) {
	f := newFixture(t)
	f.allowEvents()
	f.allowMail(2)
	ctx := context.Background()

	require.NoError(t, f.svc.InitiateReset(ctx, &ForgotPasswordRequest{Email: testEmail}))
	require.NoError(t, f.svc.InitiateReset(ctx, &ForgotPasswordRequest{Email: testEmail}))

	err := f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: testEmail, Code: "111111"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidResetCode)
	assert.NoError(t, f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: testEmail, Code: "222222"}))
}

func TestInitiateReset_OverlappingRequestKeepsNewestCode(t *testing.T) {
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t, WithLocker(lock.NewRedisLocker(client, "test", 30*time.Second)))
	f.allowEvents()
	ctx := context.Background()

	sends := 0
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(2).
		DoAndReturn(func(ctx context.Context, _ *mail.Configuration, _ mail.Message) error {
			sends++
			if sends == 1 {
				// The first holder's lock expires mid-delivery and a second request runs.
				m.FastForward(31 * time.Second)
				require.NoError(t, f.svc.InitiateReset(ctx, &ForgotPasswordRequest{Email: testEmail}))
			}
			return nil
		})

	require.NoError(t, f.svc.InitiateReset(ctx, &ForgotPasswordRequest{Email: testEmail}))

	err := f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: testEmail, Code: "111111"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidResetCode)
	assert.NoError(t, f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: testEmail, Code: "222222"}))
}

func TestInitiateReset_MailFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.allowEvents()
	ctx := context.Background()

	gomock.InOrder(
		f.mailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
		f.mailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection refused")),
	)

	require.NoError(t, f.svc.InitiateReset(ctx, &ForgotPasswordRequest{Email: testEmail}))

	err := f.svc.InitiateReset(ctx, &ForgotPasswordRequest{Email: testEmail})
	assert.ErrorIs(t, err, appErrors.ErrMailDelivery)

	err = f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: testEmail, Code: "222222"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidResetCode)

	assert.NoError(t, f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: testEmail, Code: "111111"}))
}

func TestInitiateReset_LockUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	locker := NewMockAccountLocker(ctrl)
	locker.EXPECT().Lock(gomock.Any(), "reset:"+testEmail).Return(nil, context.DeadlineExceeded)

	f := newFixture(t, WithLocker(locker))

	err := f.svc.InitiateReset(context.Background(), &ForgotPasswordRequest{Email: testEmail})
	assert.ErrorIs(t, err, appErrors.ErrAccountBusy)
}

func TestVerifyResetCode(t *testing.T) {
	f := newFixture(t)
	f.allowEvents()
	f.allowMail(1)
	ctx := context.Background()

	err := f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: testEmail, Code: "111111"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidResetCode, "no pending attempt")

	require.NoError(t, f.svc.InitiateReset(ctx, &ForgotPasswordRequest{Email: testEmail}))

	err = f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: "ghost@x.com", Code: "111111"})
	assert.ErrorIs(t, err, account.ErrAccountNotFound)

	err = f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: testEmail, Code: "999999"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidResetCode)

	err = f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: testEmail, Code: "12ab56"})
	requireValidationError(t, err)

	// verification does not consume
	assert.NoError(t, f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: testEmail, Code: "111111"}))
	assert.NoError(t, f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: testEmail, Code: "111111"}))
}

func TestVerifyResetCode_Expired(t *testing.T) {
	f := newFixture(t)
	f.allowEvents()
	f.allowMail(1)
	ctx := context.Background()

	require.NoError(t, f.svc.InitiateReset(ctx, &ForgotPasswordRequest{Email: testEmail}))

	f.clock.Advance(10*time.Minute - time.Second)
	assert.NoError(t, f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: testEmail, Code: "111111"}))

	f.clock.Advance(time.Second)
	err := f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: testEmail, Code: "111111"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidResetCode)
}

func TestCommitReset_Success(t *testing.T) {
	f := newFixture(t)
	f.allowEvents()
	f.allowMail(1)
	ctx := context.Background()

	require.NoError(t, f.svc.InitiateReset(ctx, &ForgotPasswordRequest{Email: testEmail}))
	require.NoError(t, f.svc.CommitReset(ctx, &ResetPasswordRequest{Email: testEmail, Code: "111111", NewPassword: newPassword}))

	_, err := f.svc.Login(ctx, &LoginRequest{Email: testEmail, Password: newPassword})
	assert.NoError(t, err)
	_, err = f.svc.Login(ctx, &LoginRequest{Email: testEmail, Password: testPassword})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	err = f.svc.VerifyResetCode(ctx, &VerifyResetCodeRequest{Email: testEmail, Code: "111111"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidResetCode)

	err = f.svc.CommitReset(ctx, &ResetPasswordRequest{Email: testEmail, Code: "111111", NewPassword: "An0ther!Pass"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidResetCode)
}

func TestCommitReset_Rejections(t *testing.T) {
	f := newFixture(t)
	f.allowEvents()
	f.allowMail(1)
	ctx := context.Background()
	before := f.storedHash(t)

	require.NoError(t, f.svc.InitiateReset(ctx, &ForgotPasswordRequest{Email: testEmail}))

	err := f.svc.CommitReset(ctx, &ResetPasswordRequest{Email: testEmail, Code: "111111", NewPassword: "weak"})
	requireValidationError(t, err)

	err = f.svc.CommitReset(ctx, &ResetPasswordRequest{Email: testEmail, NewPassword: newPassword})
	requireValidationError(t, err)

	err = f.svc.CommitReset(ctx, &ResetPasswordRequest{Email: "ghost@x.com", Code: "111111", NewPassword: newPassword})
	assert.ErrorIs(t, err, account.ErrAccountNotFound)

	err = f.svc.CommitReset(ctx, &ResetPasswordRequest{Email: testEmail, Code: "654321", NewPassword: newPassword})
	assert.ErrorIs(t, err, appErrors.ErrInvalidResetCode)

	f.clock.Advance(11 * time.Minute)
	err = f.svc.CommitReset(ctx, &ResetPasswordRequest{Email: testEmail, Code: "111111", NewPassword: newPassword})
	assert.ErrorIs(t, err, appErrors.ErrInvalidResetCode)

	assert.Equal(t, before, f.storedHash(t))
}

func TestCommitReset_ConcurrentUseSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	f.allowEvents()
	f.allowMail(1)
	ctx := context.Background()

	require.NoError(t, f.svc.InitiateReset(ctx, &ForgotPasswordRequest{Email: testEmail}))

	const workers = 5
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.svc.CommitReset(ctx, &ResetPasswordRequest{Email: testEmail, Code: "111111", NewPassword: newPassword})
		}(i)
	}
	wg.Wait()

	success := 0
	for _, err := range errs {
		if err == nil {
			success++
			continue
		}
		assert.ErrorIs(t, err, appErrors.ErrInvalidResetCode)
	}
	assert.Equal(t, 1, success)
}

func TestCleanupResetAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := f.clock.Now()

	old := &account.ResetAttempt{AccountID: f.user.ID, CodeHash: "h", IssuedAt: now.Add(-49 * time.Hour), ExpiresAt: now.Add(-48 * time.Hour)}
	require.NoError(t, f.attempts.Create(ctx, old))
	fresh := &account.ResetAttempt{AccountID: f.user.ID, CodeHash: "h", IssuedAt: now, ExpiresAt: now.Add(10 * time.Minute)}
	require.NoError(t, f.attempts.Create(ctx, fresh))

	f.svc.cleanupResetAttempts(ctx)

	got, err := f.attempts.GetPending(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, got.ID)

	deleted, err := f.attempts.DeleteClosedBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestStartResetCleanupJob_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.svc.StartResetCleanupJob(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup job did not stop")
	}
}
