package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/addness-teambase/ai-file-search/internal/logging"
)

const (
	rateLimitBackoff = 5 * time.Second
	transportBackoff = 2 * time.Second
)

// Retrying wraps a Client with rate-limit-aware retries. A rate-limited
// attempt sleeps (attempt+1) * 5s before the next one; a transport failure
// sleeps (attempt+1) * 2s. Any other service-reported error is returned
// immediately. Attempts are consumed either way.
type Retrying struct {
	inner       Client
	maxAttempts int
	sleep       func(time.Duration)
	logger      *zap.Logger
}

// NewRetrying wraps inner with maxAttempts retries (3 if non-positive).
func NewRetrying(inner Client, maxAttempts int) *Retrying {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Retrying{
		inner:       inner,
		maxAttempts: maxAttempts,
		sleep:       time.Sleep,
		logger:      logging.Named("llm"),
	}
}

// Generate implements Client.
func (r *Retrying) Generate(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		text, err := r.inner.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var backoff time.Duration
		switch {
		case errors.Is(err, ErrRateLimited):
			backoff = time.Duration(attempt+1) * rateLimitBackoff
		case errors.Is(err, ErrTransport):
			backoff = time.Duration(attempt+1) * transportBackoff
		default:
			// Service rejected the request; retrying won't help.
			return "", err
		}

		if attempt == r.maxAttempts-1 {
			break
		}
		r.logger.Warn("generation attempt failed, backing off",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		if err := r.sleepCtx(ctx, backoff); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %v", ErrMaxRetries, lastErr)
}

func (r *Retrying) sleepCtx(ctx context.Context, d time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	r.sleep(d)
	return nil
}
