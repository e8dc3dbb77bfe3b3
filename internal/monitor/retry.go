package monitor

import (
	"context"
	"time"
)

// RetryPolicy is the polling loop's wait strategy: a fixed interval, no
// backoff, no attempt cap. The watcher keeps trying indefinitely; a venue
// outage only delays the next sample.
type RetryPolicy struct {
	Interval time.Duration
}

// Wait blocks for one interval or until cancellation.
func (p RetryPolicy) Wait(ctx context.Context, clk Clock) error {
	return clk.Sleep(ctx, p.Interval)
}
