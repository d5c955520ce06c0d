package smtp

import (
	"context"
	"errors"
	"net/textproto"
	"time"

	"issue-tracker/internal/domain/mail"
	"issue-tracker/internal/logger"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"
)

// Transport delivers a single message.
type Transport interface {
	Send(ctx context.Context, cfg *mail.Configuration, msg mail.Message) error
}

// RetryingSender retries transient delivery failures with exponential
// backoff. 5xx replies from the server are permanent and returned at once.
type RetryingSender struct {
	next           Transport
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func NewRetryingSender(next Transport, maxAttempts int, initialBackoff, maxBackoff time.Duration) *RetryingSender {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryingSender{
		next:           next,
		maxAttempts:    maxAttempts,
		initialBackoff: initialBackoff,
		maxBackoff:     maxBackoff,
	}
}

func (r *RetryingSender) Send(ctx context.Context, cfg *mail.Configuration, msg mail.Message) error {
	bo := backoff.NewExponentialBackOff()
	if r.initialBackoff > 0 {
		bo.InitialInterval = r.initialBackoff
	}
	if r.maxBackoff > 0 {
		bo.MaxInterval = r.maxBackoff
	}
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(r.maxAttempts-1)), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := r.next.Send(ctx, cfg, msg)
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("Mail delivery failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", wait),
			zap.String("smtp_host", cfg.Host),
			zap.Error(err),
		)
	})
}

func isPermanent(err error) bool {
	var protoErr *textproto.Error
	return errors.As(err, &protoErr) && protoErr.Code >= 500
}
