package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Monitor.PollInterval = 15 * time.Second
	cfg.Monitor.Notional = 100
	cfg.Monitor.FeeUnits = 1
	cfg.Alerting.YieldCutoff = 0.5
	cfg.Odos.TokenAddress = "0x1"
	cfg.Odos.StableAddress = "0x2"
	cfg.Mode.RPCURL = "https://mainnet.mode.network"
	cfg.Mode.SwapPoolAddress = "0x3"
	cfg.Mode.VaultAddress = "0x4"
	cfg.Mode.TokenAddress = "0x5"
	cfg.Mode.StableAddress = "0x6"
	cfg.Mode.WrappedBLTAddress = "0x7"
	cfg.Telegram.BotToken = "token"
	cfg.Telegram.Subscribers = []int64{1}
	return cfg
}

func TestValidateAccepts(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateRejectsMissingCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.BotToken = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing bot token must fail validation")
	}

	cfg = validConfig()
	cfg.Telegram.Subscribers = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty subscriber list must fail validation")
	}
}

func TestValidateRejectsMissingEndpoints(t *testing.T) {
	cfg := validConfig()
	cfg.Mode.RPCURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing rpc url must fail validation")
	}

	cfg = validConfig()
	cfg.Monitor.PollInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero poll interval must fail validation")
	}
}

func TestLoadDefaults(t *testing.T) {
	// No config file: defaults alone fail validation because credentials and
	// addresses are deliberately not defaulted.
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Fatal("load without credentials should fail")
	}
}
