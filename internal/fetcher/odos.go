package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const sorQuotePath = "/sor/quote/v2"

var (
	dec1e18 = decimal.NewFromInt(1_000_000_000_000_000_000)
	dec1e6  = decimal.NewFromInt(1_000_000)
)

// OdosOptions parameterise the router API client.
type OdosOptions struct {
	BaseURL       string
	ChainID       int64
	TokenAddress  string
	StableAddress string
	SlippagePct   float64
	Notional      decimal.Decimal
	Timeout       time.Duration
	UserAgent     string
}

// Odos fetches swap quotes from the Odos smart-order router.
type Odos struct {
	opts    OdosOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewOdos constructs a router API client.
func NewOdos(opts OdosOptions, logger zerolog.Logger) *Odos {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.odos.xyz"
	}

	if opts.SlippagePct <= 0 {
		opts.SlippagePct = 1.0
	}

	return &Odos{
		opts:    opts,
		logger:  logger.With().Str("component", "odos_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// SpotPrice quotes the notional of the token into the stable token.
func (o *Odos) SpotPrice(ctx context.Context) (decimal.Decimal, error) {
	if o.opts.Notional.IsZero() {
		return decimal.Decimal{}, errors.New("notional must be greater than zero")
	}

	atoms := o.opts.Notional.Mul(dec1e18).Round(0)
	raw, err := o.outAmount(ctx, o.opts.TokenAddress, o.opts.StableAddress, atoms.StringFixed(0))
	if err != nil {
		return decimal.Decimal{}, err
	}

	return raw.Div(dec1e6), nil
}

// StableToBase quotes a raw stable amount back into the token.
func (o *Odos) StableToBase(ctx context.Context, stableAtoms *big.Int) (decimal.Decimal, error) {
	if stableAtoms == nil || stableAtoms.Sign() <= 0 {
		return decimal.Decimal{}, errors.New("stable amount must be greater than zero")
	}

	raw, err := o.outAmount(ctx, o.opts.StableAddress, o.opts.TokenAddress, stableAtoms.String())
	if err != nil {
		return decimal.Decimal{}, err
	}

	return raw.Div(dec1e18), nil
}

// outAmount issues one quote request and returns the first raw output amount.
func (o *Odos) outAmount(ctx context.Context, tokenIn, tokenOut, amount string) (decimal.Decimal, error) {
	if tokenIn == "" || tokenOut == "" {
		return decimal.Decimal{}, errors.New("token addresses required")
	}

	reqPayload := sorQuoteRequest{
		ChainID: o.opts.ChainID,
		InputTokens: []inputToken{
			{TokenAddress: tokenIn, Amount: amount},
		},
		OutputTokens: []outputToken{
			{TokenAddress: tokenOut, Proportion: 1},
		},
		SlippageLimitPercent: o.opts.SlippagePct,
	}

	body, err := json.Marshal(reqPayload)
	if err != nil {
		return decimal.Decimal{}, err
	}

	endpoint := o.baseURL + sorQuotePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return decimal.Decimal{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(o.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if resp.StatusCode != http.StatusOK {
		o.logger.Warn().Int("status", resp.StatusCode).
			Str("body", snippet(payload)).
			Msg("quote request rejected")
		return decimal.Decimal{}, fmt.Errorf("odos api error (%d): %s", resp.StatusCode, snippet(payload))
	}

	var quoteRes sorQuoteResponse
	if err := json.Unmarshal(payload, &quoteRes); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode quote response: %w", err)
	}

	if len(quoteRes.OutAmounts) == 0 {
		return decimal.Decimal{}, errors.New("quote response contained no output amounts")
	}

	raw, err := decimal.NewFromString(quoteRes.OutAmounts[0])
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse output amount: %w", err)
	}

	if raw.IsZero() {
		return decimal.Decimal{}, errors.New("output amount returned zero")
	}

	return raw, nil
}

type sorQuoteRequest struct {
	ChainID              int64         `json:"chainId"`
	InputTokens          []inputToken  `json:"inputTokens"`
	OutputTokens         []outputToken `json:"outputTokens"`
	SlippageLimitPercent float64       `json:"slippageLimitPercent"`
}

type inputToken struct {
	TokenAddress string `json:"tokenAddress"`
	Amount       string `json:"amount"`
}

type outputToken struct {
	TokenAddress string  `json:"tokenAddress"`
	Proportion   float64 `json:"proportion"`
}

type sorQuoteResponse struct {
	OutAmounts []string `json:"outAmounts"`
}

func snippet(payload []byte) string {
	s := strings.TrimSpace(string(payload))
	if len(s) > 200 {
		return s[:200]
	}
	return s
}

var _ BaseVenue = (*Odos)(nil)
