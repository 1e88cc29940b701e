// Package resilience retries transient failures of outbound calls.
package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const maxBackoff = 30 * time.Second

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Retry returns the wrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

var (
	meter          = otel.Meter("saferoute/resilience")
	attemptCounter metric.Int64Counter
	successCounter metric.Int64Counter
	failureCounter metric.Int64Counter
)

func init() {
	attemptCounter, _ = meter.Int64Counter("saferoute_retry_attempts_total")
	successCounter, _ = meter.Int64Counter("saferoute_retry_success_total")
	failureCounter, _ = meter.Int64Counter("saferoute_retry_fail_total")
}

// Retry calls fn up to attempts times with exponential backoff and full
// jitter, starting from delay. It stops early when fn returns an error
// wrapped with Permanent or when ctx is done. op labels the counters.
func Retry[T any](ctx context.Context, op string, attempts int, delay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}
	labels := metric.WithAttributes(attribute.String("op", op))

	cur := delay
	var lastErr error
	for i := 0; i < attempts; i++ {
		v, err := fn(ctx)
		attemptCounter.Add(ctx, 1, labels)
		if err == nil {
			successCounter.Add(ctx, 1, labels)
			return v, nil
		}
		lastErr = err

		var perm permanentError
		if errors.As(err, &perm) {
			failureCounter.Add(ctx, 1, labels)
			return zero, perm.err
		}
		if i == attempts-1 {
			break
		}

		cur = min(cur, maxBackoff)
		sleep := time.Duration(rand.Int64N(int64(cur) + 1))
		select {
		case <-ctx.Done():
			failureCounter.Add(ctx, 1, labels)
			return zero, ctx.Err()
		case <-time.After(sleep):
		}
		cur *= 2
	}

	failureCounter.Add(ctx, 1, labels)
	return zero, lastErr
}
