package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"arb-spread-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Odos     OdosConfig     `mapstructure:"odos"`
	Mode     ModeConfig     `mapstructure:"mode"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	History  HistoryConfig  `mapstructure:"history"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// OdosConfig captures the smart-order-router API on the Base side.
type OdosConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	ChainID        int64         `mapstructure:"chain_id"`
	TokenAddress   string        `mapstructure:"token_address"`
	StableAddress  string        `mapstructure:"stable_address"`
	SlippagePct    float64       `mapstructure:"slippage_pct"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// ModeConfig covers the Mode-chain pool pair reached over RPC.
type ModeConfig struct {
	RPCURL            string        `mapstructure:"rpc_url"`
	SwapPoolAddress   string        `mapstructure:"swap_pool_address"`
	VaultAddress      string        `mapstructure:"vault_address"`
	TokenAddress      string        `mapstructure:"token_address"`
	StableAddress     string        `mapstructure:"stable_address"`
	WrappedBLTAddress string        `mapstructure:"wrapped_blt_address"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// MonitorConfig governs the polling loop.
type MonitorConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Notional     float64       `mapstructure:"notional"`
	FeeUnits     float64       `mapstructure:"fee_units"`
}

// AlertingConfig defines the alert cutoff.
type AlertingConfig struct {
	YieldCutoff float64 `mapstructure:"yield_cutoff"`
}

// TelegramConfig describes the bot credentials and the subscriber allow-list.
type TelegramConfig struct {
	BotToken    string  `mapstructure:"bot_token"`
	Subscribers []int64 `mapstructure:"subscribers"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// HistoryConfig locates the release history file.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARBWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "arbwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("odos.base_url", "https://api.odos.xyz")
	v.SetDefault("odos.chain_id", int64(8453))
	v.SetDefault("odos.slippage_pct", 1.0)
	v.SetDefault("odos.request_timeout", "10s")
	v.SetDefault("odos.user_agent", "arbwatcher/1.0")

	v.SetDefault("mode.request_timeout", "10s")

	v.SetDefault("monitor.poll_interval", "15s")
	v.SetDefault("monitor.notional", 100.0)
	v.SetDefault("monitor.fee_units", 1.0)

	v.SetDefault("alerting.yield_cutoff", 0.5)

	v.SetDefault("metrics.addr", "")

	v.SetDefault("history.path", "updates.json")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs sanity checks. Anything listed here is required for the
// watcher to run correctly, so a violation aborts startup.
func (c *Config) Validate() error {
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be greater than zero")
	}
	if c.Monitor.Notional <= 0 {
		return fmt.Errorf("monitor.notional must be greater than zero")
	}
	if c.Monitor.FeeUnits < 0 {
		return fmt.Errorf("monitor.fee_units cannot be negative")
	}
	if c.Alerting.YieldCutoff < 0 {
		return fmt.Errorf("alerting.yield_cutoff cannot be negative")
	}
	if c.Odos.TokenAddress == "" || c.Odos.StableAddress == "" {
		return fmt.Errorf("odos.token_address and odos.stable_address are required")
	}
	if c.Mode.RPCURL == "" {
		return fmt.Errorf("mode.rpc_url is required")
	}
	if c.Mode.SwapPoolAddress == "" || c.Mode.VaultAddress == "" {
		return fmt.Errorf("mode.swap_pool_address and mode.vault_address are required")
	}
	if c.Mode.TokenAddress == "" || c.Mode.StableAddress == "" || c.Mode.WrappedBLTAddress == "" {
		return fmt.Errorf("mode token addresses are required")
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if len(c.Telegram.Subscribers) == 0 {
		return fmt.Errorf("telegram.subscribers must list at least one chat id")
	}
	return nil
}
