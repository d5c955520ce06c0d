package auth

import (
	"context"

	"issue-tracker/internal/domain/audit"
	"issue-tracker/internal/domain/mail"
)

//go:generate mockgen -source=deps.go -destination=mock_deps_test.go -package=auth

// MailSender delivers a message through the given SMTP configuration.
type MailSender interface {
	Send(ctx context.Context, cfg *mail.Configuration, msg mail.Message) error
}

// EventPublisher emits audit events. Failures never fail the auth operation.
type EventPublisher interface {
	Publish(ctx context.Context, event audit.Event) error
}

// AccountLocker serializes reset operations per account. The returned func
// releases the lock.
type AccountLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (ok bool, needsRehash bool, err error)
}
