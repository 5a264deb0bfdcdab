package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// GenerationRequest is one text generation call against a backend.
type GenerationRequest struct {
	SystemPrompt    string
	Prompt          string
	Temperature     float32
	MaxOutputTokens int
	// JSONResponse asks the backend for a raw JSON body when supported.
	JSONResponse bool
}

// GenerativeBackend is a hosted text generation model.
type GenerativeBackend interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	Provider() string
}

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type rateLimitedBackend struct {
	next    GenerativeBackend
	limiter *rate.Limiter
	timeout time.Duration
}

// NewRateLimitedBackend caps calls per second and bounds each call with
// timeout. A zero timeout leaves the caller's deadline in charge.
func NewRateLimitedBackend(next GenerativeBackend, perSecond float64, timeout time.Duration) GenerativeBackend {
	return &rateLimitedBackend{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		timeout: timeout,
	}
}

func (r *rateLimitedBackend) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	return r.next.Generate(ctx, req)
}

func (r *rateLimitedBackend) Provider() string {
	return r.next.Provider()
}
