package services

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/ternarybob/arbor"
)

// RetryPolicy bounds how transient backend failures are retried.
type RetryPolicy struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		InitialBackoff:    time.Second,
		MaxBackoff:        8 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Backoff returns the wait before retry number attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	backoff := float64(p.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= p.BackoffMultiplier
	}
	if p.MaxBackoff > 0 && time.Duration(backoff) > p.MaxBackoff {
		return p.MaxBackoff
	}
	return time.Duration(backoff)
}

// Do runs fn until it succeeds, fails with a non-transient error, or the
// retries are exhausted. It returns the number of attempts made.
func (p RetryPolicy) Do(ctx context.Context, logger arbor.ILogger, operation string, fn func(ctx context.Context) error) (int, error) {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := p.Backoff(attempt)
			logger.Warn().
				Str("operation", operation).
				Int("attempt", attempt+1).
				Dur("backoff", wait).
				Err(lastErr).
				Msg("Retrying after transient error")

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return attempt, ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt + 1, nil
		}
		if !IsTransient(lastErr) || ctx.Err() != nil {
			return attempt + 1, lastErr
		}
	}

	return p.MaxRetries + 1, lastErr
}

// IsTransient reports whether err is worth retrying: timeouts, rate limits,
// server errors and dropped connections.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var upstream *UpstreamServiceError
	if errors.As(err, &upstream) {
		return upstream.Transient
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsTransientStatus classifies an HTTP status returned by a backend.
func IsTransientStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}
