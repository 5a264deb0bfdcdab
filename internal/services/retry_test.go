package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{
		InitialBackoff:    time.Second,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2,
	}

	assert.Equal(t, time.Second, p.Backoff(1))
	assert.Equal(t, 2*time.Second, p.Backoff(2))
	assert.Equal(t, 4*time.Second, p.Backoff(3))
	assert.Equal(t, 5*time.Second, p.Backoff(4))
}

func TestRetryPolicy_StopsOnCancelledContext(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, InitialBackoff: time.Hour, BackoffMultiplier: 2}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Do(ctx, arbor.NewLogger(), "test", func(context.Context) error {
		calls++
		return transientErr()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"cancelled", context.Canceled, false},
		{"net op", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"upstream transient", &UpstreamServiceError{Transient: true}, true},
		{"upstream permanent", &UpstreamServiceError{StatusCode: 400}, false},
		{"validation", &ValidationError{Message: "bad"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientStatus(code), code)
	}
	for _, code := range []int{400, 401, 403, 404, 422} {
		assert.False(t, IsTransientStatus(code), code)
	}
}
