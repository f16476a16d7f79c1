// Package config loads service configuration from a YAML file and PREDICTION_* env vars.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Clock sources.
const (
	ClockSystem = "system"
	ClockRPC    = "rpc"
	ClockSlot   = "slot"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Store  StoreConfig  `mapstructure:"store"`
	Solana SolanaConfig `mapstructure:"solana"`
	Engine EngineConfig `mapstructure:"engine"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type StoreConfig struct {
	Backend       string `mapstructure:"backend"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"` // empty keeps the event log in memory
	Migrate       bool   `mapstructure:"migrate"`        // apply embedded migrations on startup
}

type SolanaConfig struct {
	RPCURL     string        `mapstructure:"rpc_url"`
	WSURL      string        `mapstructure:"ws_url"`
	Clock      string        `mapstructure:"clock"`
	Commitment string        `mapstructure:"commitment"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type EngineConfig struct {
	ProgramID              string `mapstructure:"program_id"`
	Payout                 string `mapstructure:"payout"`
	TieRule                string `mapstructure:"tie_rule"`
	RequireExpiryForSettle bool   `mapstructure:"require_expiry_for_settle"`
	ResolveWorkers         int    `mapstructure:"resolve_workers"`
}

// Load reads path (YAML) when non-empty, then applies PREDICTION_* overrides.
// Nested keys map to env names with "." replaced by "_",
// e.g. PREDICTION_STORE_POSTGRES_DSN.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PREDICTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.development", false)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", true)
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.clickhouse_dsn", "")
	v.SetDefault("store.migrate", false)
	v.SetDefault("solana.rpc_url", "https://api.devnet.solana.com")
	v.SetDefault("solana.ws_url", "wss://api.devnet.solana.com")
	v.SetDefault("solana.clock", ClockSystem)
	v.SetDefault("solana.commitment", "confirmed")
	v.SetDefault("solana.timeout", "30s")
	v.SetDefault("solana.max_retries", 3)
	v.SetDefault("engine.program_id", "8JhNshxTTss89Aii47jrfdaW6Tje1D6WdEiYRaz24fdQ")
	v.SetDefault("engine.payout", "double")
	v.SetDefault("engine.tie_rule", "lower")
	v.SetDefault("engine.require_expiry_for_settle", false)
	v.SetDefault("engine.resolve_workers", 4)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks enumerated fields and backend requirements.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}

	switch c.Solana.Clock {
	case ClockSystem:
	case ClockRPC:
		if c.Solana.RPCURL == "" {
			return fmt.Errorf("solana.rpc_url is required for the rpc clock")
		}
	case ClockSlot:
		if c.Solana.RPCURL == "" || c.Solana.WSURL == "" {
			return fmt.Errorf("solana.rpc_url and solana.ws_url are required for the slot clock")
		}
	default:
		return fmt.Errorf("unknown solana.clock %q", c.Solana.Clock)
	}

	if c.Engine.ResolveWorkers < 1 {
		return fmt.Errorf("engine.resolve_workers must be positive, got %d", c.Engine.ResolveWorkers)
	}
	return nil
}
