// Package config loads and validates the application configuration from a
// YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/newthinker/compass/internal/alert"
	"github.com/newthinker/compass/internal/backtest"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/indicator"
	"github.com/newthinker/compass/internal/level"
	"github.com/newthinker/compass/internal/llm"
	"github.com/newthinker/compass/internal/router"
	"github.com/newthinker/compass/internal/scoring"
)

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig               `mapstructure:"server"`
	Storage    StorageConfig              `mapstructure:"storage"`
	Collectors map[string]CollectorConfig `mapstructure:"collectors"`
	Watchlist  []WatchlistItem            `mapstructure:"watchlist"`
	Analysis   AnalysisConfig             `mapstructure:"analysis"`
	Scoring    ScoringConfig              `mapstructure:"scoring"`
	Cycle      CycleConfig                `mapstructure:"cycle"`
	Backtest   backtest.Config            `mapstructure:"backtest"`
	Context    ContextConfig              `mapstructure:"context"`
	Router     router.Config              `mapstructure:"router"`
	Notifiers  map[string]NotifierConfig  `mapstructure:"notifiers"`
	Alerts     AlertsConfig               `mapstructure:"alerts"`
	LLM        llm.Config                 `mapstructure:"llm"`
	Metrics    MetricsConfig              `mapstructure:"metrics"`
	Logging    LoggingConfig              `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	APIKey      string `mapstructure:"api_key"`
	MaxJobs     int    `mapstructure:"max_jobs"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
}

// StorageConfig holds signal history and archive settings.
type StorageConfig struct {
	SignalCapacity int           `mapstructure:"signal_capacity"`
	Archive        ArchiveConfig `mapstructure:"archive"`
}

// ArchiveConfig selects the candle/dataset archive backend.
type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // for localfs
	S3   S3Config `mapstructure:"s3"`
}

// S3Config holds S3-compatible storage settings.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// CollectorConfig configures one data collector.
type CollectorConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Markets  []string       `mapstructure:"markets"`
	Interval string         `mapstructure:"interval"`
	APIKey   string         `mapstructure:"api_key"`
	Extra    map[string]any `mapstructure:"extra"`
}

// WatchlistItem is one tracked symbol.
type WatchlistItem struct {
	Symbol    string   `mapstructure:"symbol"`
	Name      string   `mapstructure:"name"`
	Intervals []string `mapstructure:"intervals"`
}

// AnalysisConfig controls the analysis pipeline and loop.
type AnalysisConfig struct {
	Interval    string           `mapstructure:"interval"`     // candle interval analyzed
	Every       time.Duration    `mapstructure:"every"`        // loop period
	HistoryDays int              `mapstructure:"history_days"` // candle history fetched per run
	Indicators  indicator.Config `mapstructure:"indicators"`
	Levels      level.Config     `mapstructure:"levels"`
}

// ScoringConfig holds composite score weights and signal thresholds.
type ScoringConfig struct {
	Weights scoring.Weights `mapstructure:"weights"`
}

// CycleConfig controls the cycle classification.
type CycleConfig struct {
	Symbol string `mapstructure:"symbol"` // reference symbol, BTCUSDT by default
}

// ContextConfig configures the market context providers. Static onchain
// readings stand in for a paid data feed.
type ContextConfig struct {
	FearGreed           bool     `mapstructure:"fear_greed"`
	Derivatives         bool     `mapstructure:"derivatives"`
	Macro               bool     `mapstructure:"macro"`
	MVRV                *float64 `mapstructure:"mvrv"`
	ReserveChange30dPct *float64 `mapstructure:"reserve_change_30d_pct"`
}

// NotifierConfig configures one notifier.
type NotifierConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Telegram
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`

	// Webhook
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`

	// Email
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// AlertsConfig holds operational alert settings.
type AlertsConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
	Rules         []alert.Rule  `mapstructure:"rules"`
}

// MetricsConfig holds metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// Load reads configuration from a file with environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand ${VAR} references so secrets stay out of the file
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			MaxJobs:     100,
			JobTTLHours: 1,
		},
		Storage: StorageConfig{
			SignalCapacity: 1000,
			Archive: ArchiveConfig{
				Type: "localfs",
				Path: "data",
			},
		},
		Analysis: AnalysisConfig{
			Interval:    core.Interval1d,
			Every:       time.Hour,
			HistoryDays: 365,
			Indicators:  indicator.DefaultConfig(),
			Levels:      level.DefaultConfig(),
		},
		Scoring: ScoringConfig{
			Weights: scoring.DefaultWeights(),
		},
		Cycle: CycleConfig{
			Symbol: "BTCUSDT",
		},
		Backtest: backtest.DefaultConfig("BTCUSDT"),
		Context: ContextConfig{
			FearGreed: true,
		},
		Router: router.DefaultConfig(),
		Alerts: AlertsConfig{
			Enabled:       false,
			CheckInterval: time.Minute,
			Cooldown:      15 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Storage.SignalCapacity < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("storage.signal_capacity cannot be negative, got %d", c.Storage.SignalCapacity))
	}
	switch c.Storage.Archive.Type {
	case "", "localfs", "s3":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("storage.archive.type must be localfs or s3, got %q", c.Storage.Archive.Type))
	}
	if c.Storage.Archive.Type == "s3" && c.Storage.Archive.S3.Bucket == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("storage.archive.s3.bucket required when archive type is s3"))
	}

	if c.Router.MinConfidence < 0 || c.Router.MinConfidence > 100 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("router.min_confidence must be between 0 and 100, got %f", c.Router.MinConfidence))
	}
	if c.Router.CooldownDuration < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("router.cooldown_duration cannot be negative"))
	}

	if c.Backtest.SignalFrequencyDays < 0 || c.Backtest.OutcomeWindowDays < 0 ||
		c.Backtest.MinCandlesForAnalysis < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("backtest day counts cannot be negative"))
	}

	switch c.LLM.Provider {
	case "":
	case "claude":
		if c.LLM.Claude.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("llm.claude.api_key required when provider is claude"))
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("llm.openai.api_key required when provider is openai"))
		}
	case "ollama":
		if c.LLM.Ollama.Endpoint == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("llm.ollama.endpoint required when provider is ollama"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("llm.provider must be claude, openai or ollama, got %q", c.LLM.Provider))
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}

	for _, item := range c.Watchlist {
		if strings.TrimSpace(item.Symbol) == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("watchlist entries must name a symbol"))
		}
	}

	return nil
}

// Symbols returns the watchlist symbols in order.
func (c *Config) Symbols() []string {
	out := make([]string, 0, len(c.Watchlist))
	for _, item := range c.Watchlist {
		out = append(out, strings.ToUpper(item.Symbol))
	}
	return out
}
