package retry

import (
	"context"
	"time"
)

// Until calls op until shouldRetry returns false for its result, or maxAttempts
// is reached. The delay before each new attempt starts at baseDelay and doubles
// per attempt. The last observed result is always returned as-is; exhausting the
// attempt budget does not manufacture an error, the caller decides what an
// unacceptable final value means.
func Until[T any](ctx context.Context, op func(ctx context.Context) (T, error), shouldRetry func(value T, err error) bool, maxAttempts int, baseDelay time.Duration) (T, error) {
	var (
		value T
		err   error
	)
	delay := baseDelay
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return value, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		value, err = op(ctx)
		if !shouldRetry(value, err) {
			return value, err
		}
	}
	return value, err
}
