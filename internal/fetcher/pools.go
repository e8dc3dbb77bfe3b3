package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const poolABIJSON = `[
{"inputs":[{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"address","name":"tokenIn","type":"address"}],"name":"getAmountOut","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"address","name":"token","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"getMintAmountWrappedBLT","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"address","name":"token","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"},{"internalType":"bool","name":"proportional","type":"bool"}],"name":"getRedeemAmountWrappedBLT","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var poolABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(poolABIJSON))
	if err != nil {
		panic("failed to parse pool ABI: " + err.Error())
	}
	poolABI = parsed
}

// PoolsOptions parameterise the Mode-chain reader.
type PoolsOptions struct {
	RPCURL            string
	SwapPoolAddress   string
	VaultAddress      string
	TokenAddress      string
	StableAddress     string
	WrappedBLTAddress string
	Notional          decimal.Decimal
	Timeout           time.Duration
}

// Pools reads the swap pool and the wrapped BLT vault over Ethereum RPC.
type Pools struct {
	opts      PoolsOptions
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex
}

// NewPools builds a Mode pool reader.
func NewPools(opts PoolsOptions, logger zerolog.Logger) *Pools {
	return &Pools{opts: opts, logger: logger.With().Str("component", "mode_fetcher").Logger()}
}

// SpotPrice converts the notional of the token through the swap pool into
// wrapped BLT and redeems it non-proportionally for the stable token.
func (p *Pools) SpotPrice(ctx context.Context) (decimal.Decimal, error) {
	if p.opts.Notional.IsZero() {
		return decimal.Decimal{}, errors.New("notional must be greater than zero")
	}

	atoms := p.opts.Notional.Mul(dec1e18).Round(0).BigInt()

	wrapped, err := p.amountOut(ctx, atoms, common.HexToAddress(p.opts.TokenAddress))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("swap pool getAmountOut: %w", err)
	}
	if wrapped.Sign() == 0 {
		return decimal.Decimal{}, errors.New("swap pool returned zero wrapped amount")
	}

	stable, err := p.readVault(ctx, "getRedeemAmountWrappedBLT",
		common.HexToAddress(p.opts.StableAddress), wrapped, false)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("vault getRedeemAmountWrappedBLT: %w", err)
	}
	if stable.Sign() == 0 {
		return decimal.Decimal{}, errors.New("vault returned zero stable amount")
	}

	return decimal.NewFromBigInt(stable, -6), nil
}

// MintWrappedBLT previews minting wrapped BLT for a raw stable amount.
func (p *Pools) MintWrappedBLT(ctx context.Context, stableAtoms *big.Int) (*big.Int, error) {
	if stableAtoms == nil || stableAtoms.Sign() <= 0 {
		return nil, errors.New("stable amount must be greater than zero")
	}
	return p.readVault(ctx, "getMintAmountWrappedBLT",
		common.HexToAddress(p.opts.StableAddress), stableAtoms)
}

// WrappedToBase previews swapping wrapped BLT into the token via the pool.
func (p *Pools) WrappedToBase(ctx context.Context, wrappedAmount *big.Int) (*big.Int, error) {
	if wrappedAmount == nil || wrappedAmount.Sign() <= 0 {
		return nil, errors.New("wrapped amount must be greater than zero")
	}
	return p.amountOut(ctx, wrappedAmount, common.HexToAddress(p.opts.WrappedBLTAddress))
}

func (p *Pools) amountOut(ctx context.Context, amountIn *big.Int, tokenIn common.Address) (*big.Int, error) {
	addr := common.HexToAddress(p.opts.SwapPoolAddress)
	return p.read(ctx, addr, "getAmountOut", amountIn, tokenIn)
}

func (p *Pools) readVault(ctx context.Context, method string, args ...any) (*big.Int, error) {
	addr := common.HexToAddress(p.opts.VaultAddress)
	return p.read(ctx, addr, method, args...)
}

// read performs one eth_call against the given contract and decodes a single
// uint256 output. The RPC transport has no deadline of its own, so every call
// is bounded here.
func (p *Pools) read(ctx context.Context, addr common.Address, method string, args ...any) (*big.Int, error) {
	if p.opts.RPCURL == "" {
		return nil, errors.New("mode rpc url not configured")
	}

	timeout := p.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := poolABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: payload}, nil)
	if err != nil {
		return nil, err
	}

	outputs, err := poolABI.Unpack(method, res)
	if err != nil {
		return nil, err
	}

	if len(outputs) != 1 {
		return nil, fmt.Errorf("unexpected %s response", method)
	}

	amount, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to decode %s output", method)
	}

	return amount, nil
}

func (p *Pools) getClient(ctx context.Context) (*ethclient.Client, error) {
	p.clientMux.Lock()
	defer p.clientMux.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	client, err := ethclient.DialContext(ctx, p.opts.RPCURL)
	if err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

var _ ModeVenue = (*Pools)(nil)
