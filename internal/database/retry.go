package database

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryOptions bounds how often a transactional unit of work is repeated.
type RetryOptions struct {
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultRetryOptions returns the options used by order placement.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
	}
}

// Retry runs fn and repeats it while it fails with a retryable database
// error, doubling the backoff with jitter between attempts. fn must open and
// finish its own transaction so every attempt starts clean.
func Retry(ctx context.Context, opts RetryOptions, fn func(ctx context.Context) error) error {
	backoff := opts.InitialBackoff
	if backoff <= 0 {
		backoff = DefaultRetryOptions().InitialBackoff
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return err
		}

		if attempt >= opts.MaxRetries {
			return fmt.Errorf("max retries (%d) exceeded: %w", opts.MaxRetries, err)
		}

		jitter := time.Duration(rand.Int63n(int64(backoff/4) + 1))
		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}

		backoff *= 2
	}
}
