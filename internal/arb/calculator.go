package arb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"arb-spread-alerts/internal/fetcher"
)

var (
	dec1e6 = decimal.NewFromInt(1_000_000)
)

// Calculator computes the bidirectional round-trip yield for the configured
// notional. It is not a pure function of the two spot prices: each leg
// issues live venue calls for the hypothetical trade, so the yields carry
// the venues' own slippage and depth.
type Calculator struct {
	base     fetcher.BaseVenue
	mode     fetcher.ModeVenue
	notional decimal.Decimal
	fee      decimal.Decimal
	logger   zerolog.Logger
}

// NewCalculator constructs a calculator. fee is subtracted, in stable-token
// units, from each direction's input before the reverse quote.
func NewCalculator(base fetcher.BaseVenue, mode fetcher.ModeVenue, notional, fee decimal.Decimal, logger zerolog.Logger) *Calculator {
	return &Calculator{
		base:     base,
		mode:     mode,
		notional: notional,
		fee:      fee,
		logger:   logger.With().Str("component", "calculator").Logger(),
	}
}

// Compute runs both legs for the given spot prices. Either leg failing aborts
// the whole computation; a partial result is never returned.
func (c *Calculator) Compute(ctx context.Context, basePrice, modePrice decimal.Decimal) (Result, error) {
	baseToMode, err := c.baseToModeLeg(ctx, basePrice)
	if err != nil {
		return Result{}, fmt.Errorf("base->mode leg: %w", err)
	}

	modeToBase, err := c.modeToBaseLeg(ctx, modePrice)
	if err != nil {
		return Result{}, fmt.Errorf("mode->base leg: %w", err)
	}

	return Result{
		BaseToModeYield: baseToMode,
		ModeToBaseYield: modeToBase,
		ComputedAt:      time.Now().UTC(),
	}, nil
}

// baseToModeLeg sells the notional on Base (already priced at basePrice in
// stable units), then brings the fee-adjusted proceeds home through the Mode
// vault and swap pool.
func (c *Calculator) baseToModeLeg(ctx context.Context, basePrice decimal.Decimal) (decimal.Decimal, error) {
	stable := basePrice.Sub(c.fee)
	if !stable.IsPositive() {
		return decimal.Decimal{}, errors.New("fee-adjusted base price not positive")
	}

	atoms := stable.Mul(dec1e6).Round(0).BigInt()

	wrapped, err := c.mode.MintWrappedBLT(ctx, atoms)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if wrapped == nil || wrapped.Sign() == 0 {
		return decimal.Decimal{}, errors.New("mint preview returned zero wrapped amount")
	}

	raw, err := c.mode.WrappedToBase(ctx, wrapped)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if raw == nil || raw.Sign() == 0 {
		return decimal.Decimal{}, errors.New("wrapped swap preview returned zero")
	}

	out := decimal.NewFromBigInt(raw, -18)
	return out.Sub(c.notional), nil
}

// modeToBaseLeg sells the notional on Mode (priced at modePrice), then routes
// the fee-adjusted proceeds back into the token through the router API.
func (c *Calculator) modeToBaseLeg(ctx context.Context, modePrice decimal.Decimal) (decimal.Decimal, error) {
	stable := modePrice.Sub(c.fee)
	if !stable.IsPositive() {
		return decimal.Decimal{}, errors.New("fee-adjusted mode price not positive")
	}

	atoms := stable.Mul(dec1e6).Round(0).BigInt()

	out, err := c.base.StableToBase(ctx, atoms)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if out.IsZero() {
		return decimal.Decimal{}, errors.New("reverse quote returned zero")
	}

	return out.Sub(c.notional), nil
}
