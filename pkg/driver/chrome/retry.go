package chrome

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
)

// retry runs op until it succeeds, retries are exhausted or ctx is done,
// waiting interval between attempts. The last error is returned.
func retry(ctx context.Context, retries int, interval time.Duration, op func() error) error {
	if retries <= 0 {
		return op()
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(retries)),
		ctx,
	)
	return backoff.Retry(op, b)
}
