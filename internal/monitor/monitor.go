// Package monitor contains the two loop bodies that drive the watcher: the
// polling loop that samples both venues and computes the round-trip yield,
// and the hourly loop that emits the heartbeat.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"arb-spread-alerts/internal/alerting"
	"arb-spread-alerts/internal/arb"
	"arb-spread-alerts/internal/fetcher"
	"arb-spread-alerts/internal/metrics"
)

// Task names as registered with the supervisor.
const (
	PollTaskName   = "poller"
	HourlyTaskName = "hourly-alert"
)

const heartbeatTick = time.Second

// Deps wires the monitor's collaborators.
type Deps struct {
	Base   fetcher.BaseVenue
	Mode   fetcher.ModeVenue
	Calc   *arb.Calculator
	Store  *arb.Store
	Policy *alerting.Policy
	Clock  Clock
	Retry  RetryPolicy
}

// Monitor drives the polling and hourly-alert loops.
type Monitor struct {
	base   fetcher.BaseVenue
	mode   fetcher.ModeVenue
	calc   *arb.Calculator
	store  *arb.Store
	policy *alerting.Policy
	clock  Clock
	retry  RetryPolicy
	logger zerolog.Logger
}

// New constructs a monitor. A nil Clock defaults to the wall clock.
func New(deps Deps, logger zerolog.Logger) *Monitor {
	clk := deps.Clock
	if clk == nil {
		clk = WallClock{}
	}
	return &Monitor{
		base:   deps.Base,
		mode:   deps.Mode,
		calc:   deps.Calc,
		store:  deps.Store,
		policy: deps.Policy,
		clock:  clk,
		retry:  deps.Retry,
		logger: logger.With().Str("component", "monitor").Logger(),
	}
}

// PollLoop runs cycles until cancelled. A failed cycle is logged and retried
// after the fixed interval; no error other than cancellation escapes.
func (m *Monitor) PollLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := m.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.logger.Warn().Err(err).Msg("cycle failed, retrying after interval")
		}

		if err := m.retry.Wait(ctx, m.clock); err != nil {
			return err
		}
	}
}

// RunCycle performs one fetch -> compute -> publish -> alert sequence. The
// store is only touched on full success; a failure at any stage leaves the
// previous result in place.
func (m *Monitor) RunCycle(ctx context.Context) error {
	started := m.clock.Now()

	basePrice, err := m.base.SpotPrice(ctx)
	if err != nil {
		metrics.CycleFailures.WithLabelValues("base_spot").Inc()
		return fmt.Errorf("base spot price: %w", err)
	}

	modePrice, err := m.mode.SpotPrice(ctx)
	if err != nil {
		metrics.CycleFailures.WithLabelValues("mode_spot").Inc()
		return fmt.Errorf("mode spot price: %w", err)
	}

	metrics.BaseSpotPrice.Set(basePrice.InexactFloat64())
	metrics.ModeSpotPrice.Set(modePrice.InexactFloat64())

	res, err := m.calc.Compute(ctx, basePrice, modePrice)
	if err != nil {
		metrics.CycleFailures.WithLabelValues("compute").Inc()
		return fmt.Errorf("compute arbitrage: %w", err)
	}

	m.store.Publish(res)
	metrics.BaseToModeYield.Set(res.BaseToModeYield.InexactFloat64())
	metrics.ModeToBaseYield.Set(res.ModeToBaseYield.InexactFloat64())
	metrics.CycleDuration.Observe(m.clock.Now().Sub(started).Seconds())

	m.logger.Info().
		Str("base_price", basePrice.StringFixed(2)).
		Str("mode_price", modePrice.StringFixed(2)).
		Str("base_to_mode_yield", res.BaseToModeYield.StringFixed(4)).
		Str("mode_to_base_yield", res.ModeToBaseYield.StringFixed(4)).
		Msg("cycle complete")

	m.policy.EvaluateThreshold(ctx, res)
	return nil
}

// HourlyLoop emits the heartbeat at the minute-zero rollover. It re-reads
// the wall clock every second instead of computing a sleep until the next
// hour, so external clock adjustments shift the next heartbeat by at most
// one tick.
func (m *Monitor) HourlyLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := m.clock.Now()
		if now.Minute() == 0 {
			res, ok := m.store.Load()
			if m.policy.Heartbeat(ctx, res, ok) {
				// Sleep past the minute boundary so the heartbeat cannot
				// repeat within the same hour. An empty store skips instead
				// and keeps rechecking each tick.
				boundary := now.Truncate(time.Minute).Add(time.Minute)
				if err := m.clock.Sleep(ctx, boundary.Sub(now)); err != nil {
					return err
				}
				continue
			}
		}

		if err := m.clock.Sleep(ctx, heartbeatTick); err != nil {
			return err
		}
	}
}
