package monitor

import (
	"context"
	"time"
)

// Clock abstracts wall time so loop cadence is testable with a virtual clock.
type Clock interface {
	Now() time.Time
	// Sleep waits for d or until ctx is cancelled.
	Sleep(ctx context.Context, d time.Duration) error
}

// WallClock is the production clock.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

func (WallClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
