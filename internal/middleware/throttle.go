package middleware

import (
	"context"
	"time"
)

// Throttle paces consecutive events by a fixed interval. The pipeline
// calls Wait after every processed article, so each article is followed
// by a full pause regardless of how long its own processing took.
type Throttle struct {
	interval time.Duration
}

// NewThrottle creates a throttle with the given interval. A zero or
// negative interval disables waiting.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Wait blocks for the full interval, or until the context is canceled.
func (t *Throttle) Wait(ctx context.Context) error {
	if t.interval <= 0 {
		return nil
	}

	timer := time.NewTimer(t.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
