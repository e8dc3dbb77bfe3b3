package monitor

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"arb-spread-alerts/internal/alerting"
	"arb-spread-alerts/internal/arb"
)

type fakeClock struct {
	now   time.Time
	limit time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	if c.now.After(c.limit) {
		return context.Canceled
	}
	return ctx.Err()
}

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) Broadcast(ctx context.Context, text string) error {
	r.messages = append(r.messages, text)
	return nil
}

type stubBase struct {
	spot         func() (decimal.Decimal, error)
	stableToBase func(atoms *big.Int) (decimal.Decimal, error)
}

func (s *stubBase) SpotPrice(ctx context.Context) (decimal.Decimal, error) {
	return s.spot()
}

func (s *stubBase) StableToBase(ctx context.Context, atoms *big.Int) (decimal.Decimal, error) {
	return s.stableToBase(atoms)
}

type stubMode struct {
	spot          func() (decimal.Decimal, error)
	mint          func(atoms *big.Int) (*big.Int, error)
	wrappedToBase func(wrapped *big.Int) (*big.Int, error)
}

func (s *stubMode) SpotPrice(ctx context.Context) (decimal.Decimal, error) {
	return s.spot()
}

func (s *stubMode) MintWrappedBLT(ctx context.Context, atoms *big.Int) (*big.Int, error) {
	return s.mint(atoms)
}

func (s *stubMode) WrappedToBase(ctx context.Context, wrapped *big.Int) (*big.Int, error) {
	return s.wrappedToBase(wrapped)
}

func healthyVenues() (*stubBase, *stubMode) {
	base := &stubBase{
		spot: func() (decimal.Decimal, error) {
			return decimal.RequireFromString("10050"), nil
		},
		stableToBase: func(*big.Int) (decimal.Decimal, error) {
			return decimal.RequireFromString("99.5"), nil
		},
	}
	mode := &stubMode{
		spot: func() (decimal.Decimal, error) {
			return decimal.RequireFromString("10000"), nil
		},
		mint: func(*big.Int) (*big.Int, error) {
			return big.NewInt(5000), nil
		},
		wrappedToBase: func(*big.Int) (*big.Int, error) {
			out, _ := new(big.Int).SetString("100600000000000000000", 10)
			return out, nil
		},
	}
	return base, mode
}

func newMonitor(base *stubBase, mode *stubMode, store *arb.Store, rec *recordingNotifier, clk Clock) *Monitor {
	calc := arb.NewCalculator(base, mode, decimal.NewFromInt(100), decimal.NewFromInt(1), zerolog.Nop())
	policy := alerting.NewPolicy(decimal.RequireFromString("0.5"), rec, zerolog.Nop())
	return New(Deps{
		Base:   base,
		Mode:   mode,
		Calc:   calc,
		Store:  store,
		Policy: policy,
		Clock:  clk,
		Retry:  RetryPolicy{Interval: 15 * time.Second},
	}, zerolog.Nop())
}

func TestRunCycleScenario(t *testing.T) {
	// Base quote 10050, Mode leg returns 100.6 effective tokens: yield 0.6
	// against cutoff 0.5 must alert with the base->mode direction and value.
	base, mode := healthyVenues()
	store := arb.NewStore()
	rec := &recordingNotifier{}
	m := newMonitor(base, mode, store, rec, nil)

	if err := m.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	res, ok := store.Load()
	if !ok {
		t.Fatal("successful cycle must publish a result")
	}
	if !res.BaseToModeYield.Equal(decimal.RequireFromString("0.6")) {
		t.Fatalf("want yield 0.6, got %s", res.BaseToModeYield)
	}

	if len(rec.messages) != 1 {
		t.Fatalf("want one threshold alert, got %d", len(rec.messages))
	}
	if !strings.Contains(rec.messages[0], "base->mode") || !strings.Contains(rec.messages[0], "0.60") {
		t.Fatalf("alert must name direction and value: %q", rec.messages[0])
	}
}

func TestRunCycleFailurePreservesStaleResult(t *testing.T) {
	base, mode := healthyVenues()
	store := arb.NewStore()
	rec := &recordingNotifier{}
	m := newMonitor(base, mode, store, rec, nil)

	if err := m.RunCycle(context.Background()); err != nil {
		t.Fatalf("first cycle failed: %v", err)
	}
	first, _ := store.Load()

	// Inject a failing cycle between two successful ones.
	goodSpot := base.spot
	base.spot = func() (decimal.Decimal, error) {
		return decimal.Decimal{}, errors.New("timeout")
	}
	if err := m.RunCycle(context.Background()); err == nil {
		t.Fatal("failing venue must fail the cycle")
	}

	stale, ok := store.Load()
	if !ok {
		t.Fatal("failed cycle must not clear the store")
	}
	if !stale.ComputedAt.Equal(first.ComputedAt) {
		t.Fatal("failed cycle must preserve the prior result untouched")
	}

	base.spot = goodSpot
	if err := m.RunCycle(context.Background()); err != nil {
		t.Fatalf("recovery cycle failed: %v", err)
	}
}

func TestRunCycleBothVenuesDown(t *testing.T) {
	base, mode := healthyVenues()
	base.spot = func() (decimal.Decimal, error) {
		return decimal.Decimal{}, errors.New("timeout")
	}
	mode.spot = func() (decimal.Decimal, error) {
		return decimal.Decimal{}, errors.New("disconnected")
	}

	store := arb.NewStore()
	m := newMonitor(base, mode, store, &recordingNotifier{}, nil)

	if err := m.RunCycle(context.Background()); err == nil {
		t.Fatal("cycle must fail when venues are down")
	}
	if _, ok := store.Load(); ok {
		t.Fatal("store must stay unset after a first-ever failed cycle")
	}
}

func TestHourlyLoopFiresOncePerHour(t *testing.T) {
	base, mode := healthyVenues()
	store := arb.NewStore()
	store.Publish(arb.Result{
		BaseToModeYield: decimal.NewFromInt(1),
		ModeToBaseYield: decimal.NewFromInt(-1),
		ComputedAt:      time.Now(),
	})

	clk := &fakeClock{
		now:   time.Date(2024, 5, 1, 11, 59, 30, 0, time.UTC),
		limit: time.Date(2024, 5, 1, 13, 0, 30, 0, time.UTC),
	}
	rec := &recordingNotifier{}
	m := newMonitor(base, mode, store, rec, clk)

	err := m.HourlyLoop(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("loop should end on clock exhaustion, got %v", err)
	}

	// Two distinct clock hours crossed minute 0: exactly two heartbeats even
	// though many one-second checks fell inside each minute 0.
	if len(rec.messages) != 2 {
		t.Fatalf("want 2 heartbeats, got %d", len(rec.messages))
	}
}

func TestHourlyLoopSkipsEmptyStore(t *testing.T) {
	base, mode := healthyVenues()
	store := arb.NewStore()

	clk := &fakeClock{
		now:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		limit: time.Date(2024, 5, 1, 12, 0, 20, 0, time.UTC),
	}
	rec := &recordingNotifier{}
	m := newMonitor(base, mode, store, rec, clk)

	_ = m.HourlyLoop(context.Background())

	if len(rec.messages) != 0 {
		t.Fatalf("empty store must skip silently, got %d messages", len(rec.messages))
	}
}

func TestPollLoopStopsOnCancel(t *testing.T) {
	base, mode := healthyVenues()
	store := arb.NewStore()
	m := newMonitor(base, mode, store, &recordingNotifier{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.PollLoop(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled loop should return context.Canceled, got %v", err)
	}
}
