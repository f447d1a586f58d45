// Package config loads the triage configuration from viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/inbox-triage/internal/classification"
	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/engine"
	"github.com/Veraticus/inbox-triage/internal/llm"
	"github.com/Veraticus/inbox-triage/internal/source"
	"github.com/Veraticus/inbox-triage/internal/storage"
	"github.com/spf13/viper"
)

// Source kinds.
const (
	SourceDemo  = "demo"
	SourceFile  = "file"
	SourceGmail = "gmail"
)

// Config is the complete application configuration.
type Config struct {
	Logging LoggingConfig          `mapstructure:"logging"`
	LLM     LLMConfig              `mapstructure:"llm"`
	Store   StoreConfig            `mapstructure:"store"`
	Rules   classification.RuleSet `mapstructure:"rules"`
	Source  SourceConfig           `mapstructure:"source"`
	Gmail   GmailConfig            `mapstructure:"gmail"`
	Export  ExportConfig           `mapstructure:"export"`
	Engine  EngineConfig           `mapstructure:"engine"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LLMConfig configures the fallback classifier.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Breaker     BreakerConfig `mapstructure:"breaker"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	RateLimit   int           `mapstructure:"rate_limit"`
}

// BreakerConfig configures the fallback circuit breaker.
type BreakerConfig struct {
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	MaxFailures uint32        `mapstructure:"max_failures"`
}

// StoreConfig selects the session store backend.
type StoreConfig struct {
	Driver string       `mapstructure:"driver"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Redis  RedisConfig  `mapstructure:"redis"`
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// EngineConfig configures the triage engine.
type EngineConfig struct {
	Workers int `mapstructure:"workers"`
}

// SourceConfig selects where records come from.
type SourceConfig struct {
	Kind   string `mapstructure:"kind"`
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

// GmailConfig configures the Gmail source.
type GmailConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenFile    string `mapstructure:"token_file"`
	Query        string `mapstructure:"query"`
	MaxResults   int    `mapstructure:"max_results"`
}

// ExportConfig configures the default CSV destination.
type ExportConfig struct {
	CSVPath string `mapstructure:"csv_path"`
}

// SetDefaults registers every key with its default so environment
// variables can override any of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("llm.provider", llm.ProviderNone)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", llm.DefaultTimeout)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("llm.rate_limit", 0)
	v.SetDefault("llm.breaker.max_failures", llm.DefaultBreakerMaxFailures)
	v.SetDefault("llm.breaker.open_timeout", llm.DefaultBreakerOpenTimeout)

	v.SetDefault("store.driver", storage.DriverMemory)
	v.SetDefault("store.sqlite.path", storage.MemoryDSN)
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.ttl", storage.DefaultRedisTTL)

	v.SetDefault("engine.workers", engine.DefaultConfig().Workers)

	v.SetDefault("rules.promo_keywords", []string{})
	v.SetDefault("rules.promo_domains", []string{})
	v.SetDefault("rules.urgent_keywords", []string{})
	v.SetDefault("rules.finance_keywords", []string{})
	v.SetDefault("rules.editorial_keywords", []string{})

	v.SetDefault("source.kind", SourceDemo)
	v.SetDefault("source.path", "")
	v.SetDefault("source.format", "")

	gmail := source.DefaultGmailConfig()
	v.SetDefault("gmail.client_id", "")
	v.SetDefault("gmail.client_secret", "")
	v.SetDefault("gmail.token_file", "~/.config/triage/gmail-token.json")
	v.SetDefault("gmail.query", gmail.Query)
	v.SetDefault("gmail.max_results", gmail.MaxResults)

	v.SetDefault("export.csv_path", "classified_emails.csv")
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	cfg.Store.SQLite.Path = ExpandPath(cfg.Store.SQLite.Path)
	cfg.Source.Path = ExpandPath(cfg.Source.Path)
	cfg.Gmail.TokenFile = ExpandPath(cfg.Gmail.TokenFile)
	cfg.Export.CSVPath = ExpandPath(cfg.Export.CSVPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", common.ErrInvalidConfig, c.Logging.Format)
	}

	switch strings.ToLower(c.LLM.Provider) {
	case llm.ProviderNone, "":
	case llm.ProviderOpenAI, llm.ProviderAnthropic:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: llm.api_key is required for provider %s", common.ErrMissingConfig, c.LLM.Provider)
		}
	case llm.ProviderHuggingFace, "hf", "zeroshot":
	default:
		return fmt.Errorf("%w: llm.provider %q", common.ErrInvalidConfig, c.LLM.Provider)
	}

	switch strings.ToLower(c.Store.Driver) {
	case "", storage.DriverMemory, storage.DriverSQLite:
	case storage.DriverRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("%w: store.redis.addr", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: store.driver %q", common.ErrInvalidConfig, c.Store.Driver)
	}

	if c.Engine.Workers < 0 {
		return fmt.Errorf("%w: engine.workers must not be negative", common.ErrInvalidConfig)
	}

	switch strings.ToLower(c.Source.Kind) {
	case "", SourceDemo, SourceGmail:
	case SourceFile:
		if c.Source.Path == "" {
			return fmt.Errorf("%w: source.path is required for file sources", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: source.kind %q", common.ErrInvalidConfig, c.Source.Kind)
	}

	return nil
}

// FallbackEnabled reports whether a fallback classifier is configured.
func (c *Config) FallbackEnabled() bool {
	p := strings.ToLower(c.LLM.Provider)
	return p != "" && p != llm.ProviderNone
}

// LLMClientConfig converts the fallback settings for the llm package.
func (c *Config) LLMClientConfig() llm.Config {
	return llm.Config{
		Provider:           strings.ToLower(c.LLM.Provider),
		APIKey:             c.LLM.APIKey,
		Model:              c.LLM.Model,
		BaseURL:            c.LLM.BaseURL,
		Timeout:            c.LLM.Timeout,
		Temperature:        c.LLM.Temperature,
		MaxTokens:          c.LLM.MaxTokens,
		RateLimit:          c.LLM.RateLimit,
		BreakerMaxFailures: c.LLM.Breaker.MaxFailures,
		BreakerOpenTimeout: c.LLM.Breaker.OpenTimeout,
	}
}

// StorageOptions converts the store settings for storage.Open.
func (c *Config) StorageOptions(sessionID string) storage.Options {
	return storage.Options{
		Driver:        strings.ToLower(c.Store.Driver),
		SessionID:     sessionID,
		SQLitePath:    c.Store.SQLite.Path,
		RedisAddr:     c.Store.Redis.Addr,
		RedisPassword: c.Store.Redis.Password,
		RedisDB:       c.Store.Redis.DB,
		RedisTTL:      c.Store.Redis.TTL,
	}
}

// EngineConfig converts the engine settings.
func (c *Config) EngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	if c.Engine.Workers > 0 {
		cfg.Workers = c.Engine.Workers
	}
	return cfg
}

// RuleTable builds the rule table, filling unset keyword lists from the
// defaults.
func (c *Config) RuleTable() *classification.RuleTable {
	return classification.NewRuleTable(c.Rules.Merge(classification.DefaultRuleSet()))
}

// GmailSourceConfig converts the Gmail settings for the source package.
func (c *Config) GmailSourceConfig() source.GmailConfig {
	cfg := source.DefaultGmailConfig()
	cfg.ClientID = c.Gmail.ClientID
	cfg.ClientSecret = c.Gmail.ClientSecret
	cfg.TokenFile = c.Gmail.TokenFile
	cfg.Query = c.Gmail.Query
	if c.Gmail.MaxResults > 0 {
		cfg.MaxResults = c.Gmail.MaxResults
	}
	return cfg
}
