package fixtures

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v3"
)

// Retry calls op with exponential backoff until it succeeds, d elapses, or ctx is done.
func Retry(ctx context.Context, d time.Duration, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = d
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}
