package confirm

import (
	"context"
	"math"
	"time"
)

const maxShift = 62

// doublingBackoff waits initial * 2^(attempt-1) before retry number attempt.
type doublingBackoff struct {
	initial time.Duration
}

// NewBackoff returns a backoff that doubles from initial on every attempt, without jitter.
func NewBackoff(initial time.Duration) Backoff {
	return doublingBackoff{initial: initial}
}

func (b doublingBackoff) Next(attempt int) time.Duration {
	if b.initial <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > maxShift {
		shift = maxShift
	}
	multiplier := int64(1) << shift
	if int64(b.initial) > math.MaxInt64/multiplier {
		return time.Duration(math.MaxInt64)
	}
	return b.initial * time.Duration(multiplier)
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
