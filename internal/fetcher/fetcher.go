package fetcher

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
)

// BaseVenue quotes the monitored token through the order-routing API on the
// Base side. Prices are expressed in stable-token units per notional.
type BaseVenue interface {
	// SpotPrice quotes the configured notional of the token into the stable
	// token and returns the scaled amount.
	SpotPrice(ctx context.Context) (decimal.Decimal, error)
	// StableToBase quotes a raw stable amount (6-decimal atoms) back into the
	// token and returns the scaled token amount.
	StableToBase(ctx context.Context, stableAtoms *big.Int) (decimal.Decimal, error)
}

// ModeVenue reads the Mode-chain pool pair over RPC.
type ModeVenue interface {
	// SpotPrice converts the configured notional through the swap pool and
	// vault and returns the scaled stable amount.
	SpotPrice(ctx context.Context) (decimal.Decimal, error)
	// MintWrappedBLT previews minting wrapped BLT from a raw stable amount.
	MintWrappedBLT(ctx context.Context, stableAtoms *big.Int) (*big.Int, error)
	// WrappedToBase previews swapping a wrapped BLT amount into the token,
	// returned in raw 18-decimal atoms.
	WrappedToBase(ctx context.Context, wrappedAmount *big.Int) (*big.Int, error)
}
