package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"arb-spread-alerts/internal/alerting"
	"arb-spread-alerts/internal/arb"
	"arb-spread-alerts/internal/botcmd"
	"arb-spread-alerts/internal/config"
	"arb-spread-alerts/internal/fetcher"
	"arb-spread-alerts/internal/history"
	"arb-spread-alerts/internal/metrics"
	"arb-spread-alerts/internal/monitor"
	"arb-spread-alerts/internal/supervisor"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newVenues() (fetcher.BaseVenue, fetcher.ModeVenue) {
	notional := decimal.NewFromFloat(a.Config.Monitor.Notional)

	odos := fetcher.NewOdos(fetcher.OdosOptions{
		BaseURL:       a.Config.Odos.BaseURL,
		ChainID:       a.Config.Odos.ChainID,
		TokenAddress:  a.Config.Odos.TokenAddress,
		StableAddress: a.Config.Odos.StableAddress,
		SlippagePct:   a.Config.Odos.SlippagePct,
		Notional:      notional,
		Timeout:       a.Config.Odos.RequestTimeout,
		UserAgent:     a.Config.Odos.UserAgent,
	}, a.Logger)

	pools := fetcher.NewPools(fetcher.PoolsOptions{
		RPCURL:            a.Config.Mode.RPCURL,
		SwapPoolAddress:   a.Config.Mode.SwapPoolAddress,
		VaultAddress:      a.Config.Mode.VaultAddress,
		TokenAddress:      a.Config.Mode.TokenAddress,
		StableAddress:     a.Config.Mode.StableAddress,
		WrappedBLTAddress: a.Config.Mode.WrappedBLTAddress,
		Notional:          notional,
		Timeout:           a.Config.Mode.RequestTimeout,
	}, a.Logger)

	return odos, pools
}

// Run executes the long-running watcher until interrupted.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The restart notice depends on the history file, so an unreadable file
	// aborts startup rather than running degraded.
	releases, err := history.Load(a.Config.History.Path)
	if err != nil {
		return err
	}

	base, mode := a.newVenues()
	store := arb.NewStore()
	calc := arb.NewCalculator(base, mode,
		decimal.NewFromFloat(a.Config.Monitor.Notional),
		decimal.NewFromFloat(a.Config.Monitor.FeeUnits),
		a.Logger)

	sup := supervisor.New(a.Logger)

	var mon *monitor.Monitor
	controls := botcmd.Controls{
		StartLoops: func() map[string]string {
			sup.Start(ctx, monitor.PollTaskName, mon.PollLoop)
			sup.Start(ctx, monitor.HourlyTaskName, mon.HourlyLoop)
			return sup.Liveness(monitor.PollTaskName, monitor.HourlyTaskName)
		},
		StopPoller: func() bool {
			return sup.Stop(monitor.PollTaskName)
		},
		Snapshot: store.Load,
	}

	svc, err := botcmd.New(ctx, a.Config.Telegram.BotToken, a.Config.Telegram.Subscribers, controls, a.Logger)
	if err != nil {
		return err
	}

	notifier := alerting.NewTelegramNotifier(svc.Bot(), a.Config.Telegram.Subscribers, a.Logger)
	policy := alerting.NewPolicy(decimal.NewFromFloat(a.Config.Alerting.YieldCutoff), notifier, a.Logger)

	mon = monitor.New(monitor.Deps{
		Base:   base,
		Mode:   mode,
		Calc:   calc,
		Store:  store,
		Policy: policy,
		Retry:  monitor.RetryPolicy{Interval: a.Config.Monitor.PollInterval},
	}, a.Logger)

	metrics.Serve(ctx, a.Config.Metrics.Addr, a.Logger)

	// Both loops start unconditionally at boot, then the one-time restart
	// announcement goes out with the last release and current liveness.
	liveness := controls.StartLoops()
	latest, _ := history.Latest(releases)
	if err := notifier.Broadcast(ctx, alerting.RestartMessage(latest.Version, latest.Date, liveness)); err != nil {
		a.Logger.Error().Err(err).Msg("restart notice delivery failed")
	}

	a.Logger.Info().Msg("watcher running")
	svc.Run(ctx)

	sup.StopAll()
	a.Logger.Info().Msg("watcher stopped")
	return nil
}

// Check probes both venues once and reports their spot prices.
func (a *App) Check(ctx context.Context) error {
	base, mode := a.newVenues()

	basePrice, err := base.SpotPrice(ctx)
	if err != nil {
		return fmt.Errorf("base venue: %w", err)
	}
	modePrice, err := mode.SpotPrice(ctx)
	if err != nil {
		return fmt.Errorf("mode venue: %w", err)
	}

	a.Logger.Info().
		Str("base_price", basePrice.StringFixed(2)).
		Str("mode_price", modePrice.StringFixed(2)).
		Msg("both venues reachable")
	return nil
}
