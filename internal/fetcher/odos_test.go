package fetcher

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestOdos(url string) *Odos {
	return NewOdos(OdosOptions{
		BaseURL:       url,
		ChainID:       8453,
		TokenAddress:  "0x1",
		StableAddress: "0x2",
		SlippagePct:   1.0,
		Notional:      decimal.NewFromInt(100),
		Timeout:       time.Second,
		UserAgent:     "test",
	}, noopLogger())
}

func TestOdosMissingTokens(t *testing.T) {
	o := NewOdos(OdosOptions{Notional: decimal.NewFromInt(100)}, noopLogger())
	if _, err := o.SpotPrice(context.Background()); err == nil {
		t.Fatal("missing token addresses should return an error")
	}
}

func TestOdosHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"no viable path"}`))
	}))
	defer srv.Close()

	o := newTestOdos(srv.URL)
	if _, err := o.SpotPrice(context.Background()); err == nil {
		t.Fatal("HTTP 400 should return an error")
	}
}

func TestOdosEmptyOutAmounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"outAmounts": []string{}})
	}))
	defer srv.Close()

	o := newTestOdos(srv.URL)
	if _, err := o.SpotPrice(context.Background()); err == nil {
		t.Fatal("empty outAmounts should return an error")
	}
}

func TestOdosSpotPrice(t *testing.T) {
	var got sorQuoteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != sorQuotePath {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"outAmounts": []string{"10050000000"}})
	}))
	defer srv.Close()

	o := newTestOdos(srv.URL)
	price, err := o.SpotPrice(context.Background())
	if err != nil {
		t.Fatalf("spot price failed: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("10050")) {
		t.Fatalf("want 10050, got %s", price.String())
	}

	if got.ChainID != 8453 {
		t.Fatalf("chainId not forwarded: %+v", got)
	}
	if len(got.InputTokens) != 1 || got.InputTokens[0].Amount != "100000000000000000000" {
		t.Fatalf("notional not scaled to atoms: %+v", got.InputTokens)
	}
	if len(got.OutputTokens) != 1 || got.OutputTokens[0].Proportion != 1 {
		t.Fatalf("output proportion must be 1: %+v", got.OutputTokens)
	}
	if got.SlippageLimitPercent != 1.0 {
		t.Fatalf("slippage limit not forwarded: %+v", got)
	}
}

func TestOdosStableToBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"outAmounts": []string{"100600000000000000000"}})
	}))
	defer srv.Close()

	o := newTestOdos(srv.URL)
	out, err := o.StableToBase(context.Background(), big.NewInt(10_049_000_000))
	if err != nil {
		t.Fatalf("reverse quote failed: %v", err)
	}
	if !out.Equal(decimal.RequireFromString("100.6")) {
		t.Fatalf("want 100.6, got %s", out.String())
	}
}

func TestOdosStableToBaseRejectsZero(t *testing.T) {
	o := newTestOdos("http://localhost")
	if _, err := o.StableToBase(context.Background(), big.NewInt(0)); err == nil {
		t.Fatal("zero stable amount should return an error")
	}
}
