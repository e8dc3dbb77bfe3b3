package alerting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"arb-spread-alerts/internal/arb"
	"arb-spread-alerts/internal/metrics"
)

// Direction names one leg of the round trip.
type Direction string

const (
	BaseToMode Direction = "base->mode"
	ModeToBase Direction = "mode->base"
)

// UnavailableMessage is the reply for queries before the first successful
// cycle. Subscribers never see raw transport errors, only this.
const UnavailableMessage = "Data unavailable yet, run /start first."

// Policy decides when a computed result becomes subscriber-visible.
type Policy struct {
	cutoff   decimal.Decimal
	notifier Notifier
	logger   zerolog.Logger
}

// NewPolicy constructs the alert policy with the configured yield cutoff.
func NewPolicy(cutoff decimal.Decimal, notifier Notifier, logger zerolog.Logger) *Policy {
	return &Policy{
		cutoff:   cutoff,
		notifier: notifier,
		logger:   logger.With().Str("component", "alert_policy").Logger(),
	}
}

// EvaluateThreshold fires a directional alert for every yield strictly above
// the cutoff. The two directions are evaluated independently within the same
// cycle, so both can alert at once.
func (p *Policy) EvaluateThreshold(ctx context.Context, res arb.Result) {
	p.evaluate(ctx, BaseToMode, res.BaseToModeYield)
	p.evaluate(ctx, ModeToBase, res.ModeToBaseYield)
}

func (p *Policy) evaluate(ctx context.Context, dir Direction, yield decimal.Decimal) {
	// Strictly greater: a yield exactly at the cutoff does not alert.
	if !yield.GreaterThan(p.cutoff) {
		return
	}

	p.logger.Info().Str("direction", string(dir)).
		Str("yield", yield.StringFixed(2)).
		Msg("threshold crossed")

	metrics.AlertsSent.WithLabelValues("threshold").Inc()
	if err := p.notifier.Broadcast(ctx, ThresholdMessage(dir, yield, p.cutoff)); err != nil {
		p.logger.Error().Err(err).Str("direction", string(dir)).Msg("threshold alert dispatch failed")
	}
}

// Heartbeat sends the hourly status message. An empty store is skipped
// silently; the caller retries on the next minute tick. Returns whether a
// message was dispatched.
func (p *Policy) Heartbeat(ctx context.Context, res arb.Result, ok bool) bool {
	if !ok {
		p.logger.Debug().Msg("heartbeat skipped: no result yet")
		return false
	}

	metrics.AlertsSent.WithLabelValues("heartbeat").Inc()
	if err := p.notifier.Broadcast(ctx, HeartbeatMessage(res)); err != nil {
		p.logger.Error().Err(err).Msg("heartbeat dispatch failed")
	}
	return true
}

// ThresholdMessage renders one directional alert.
func ThresholdMessage(dir Direction, yield, cutoff decimal.Decimal) string {
	return fmt.Sprintf("Arbitrage window %s: round-trip yield %s tokens on 100 notional (cutoff %s)",
		dir, yield.StringFixed(2), cutoff.StringFixed(2))
}

// HeartbeatMessage renders the hourly status with both current yields.
func HeartbeatMessage(res arb.Result) string {
	var sb strings.Builder
	sb.WriteString("Hourly status\n")
	fmt.Fprintf(&sb, "%s yield: %s\n", BaseToMode, res.BaseToModeYield.StringFixed(2))
	fmt.Fprintf(&sb, "%s yield: %s\n", ModeToBase, res.ModeToBaseYield.StringFixed(2))
	fmt.Fprintf(&sb, "computed at %s", res.ComputedAt.UTC().Format(time.RFC3339))
	return sb.String()
}

// PriceMessage renders the on-demand snapshot reply.
func PriceMessage(res arb.Result) string {
	var sb strings.Builder
	sb.WriteString("Current round-trip yields\n")
	fmt.Fprintf(&sb, "%s: %s\n", BaseToMode, res.BaseToModeYield.StringFixed(2))
	fmt.Fprintf(&sb, "%s: %s\n", ModeToBase, res.ModeToBaseYield.StringFixed(2))
	fmt.Fprintf(&sb, "computed at %s", res.ComputedAt.UTC().Format(time.RFC3339))
	return sb.String()
}

// RestartMessage renders the one-time boot announcement.
func RestartMessage(version, date string, liveness map[string]string) string {
	var sb strings.Builder
	sb.WriteString("Watcher restarted.\n")
	if version != "" {
		fmt.Fprintf(&sb, "Release %s (%s)\n", version, date)
	}
	names := make([]string, 0, len(liveness))
	for name := range liveness {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "%s: %s\n", name, liveness[name])
	}
	return strings.TrimRight(sb.String(), "\n")
}
