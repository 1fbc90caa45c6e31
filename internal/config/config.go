// Package config defines the top-level configuration for the sealed product
// EV service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by SEALEDEV_* environment variables.
type Config struct {
	PokemonTCG PokemonTCGConfig `toml:"pokemontcg"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Valuation  ValuationConfig  `toml:"valuation"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PokemonTCGConfig configures the card price source.
type PokemonTCGConfig struct {
	BaseURL           string   `toml:"base_url"`
	APIKey            string   `toml:"api_key"`
	Timeout           duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	PageSize          int      `toml:"page_size"`
	MaxPages          int      `toml:"max_pages"`
	MaxRetries        int      `toml:"max_retries"`
	CatalogSize       int      `toml:"catalog_size"`
	CatalogTTL        duration `toml:"catalog_ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters for the analysis
// store.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters and cache lifetimes.
type RedisConfig struct {
	Enabled     bool     `toml:"enabled"`
	Addr        string   `toml:"addr"`
	Password    string   `toml:"password"`
	DB          int      `toml:"db"`
	PoolSize    int      `toml:"pool_size"`
	MaxRetries  int      `toml:"max_retries"`
	TLSEnabled  bool     `toml:"tls_enabled"`
	TrendingTTL duration `toml:"trending_ttl"`
	CardTTL     duration `toml:"card_ttl"`
}

// S3Config holds S3-compatible object storage parameters for the archive.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ValuationConfig tunes the EV model.
type ValuationConfig struct {
	MinCardValue       float64            `toml:"min_card_value"`
	DefaultStrategy    string             `toml:"default_strategy"`
	TopCards           int                `toml:"top_cards"`
	SignificantShare   float64            `toml:"significant_share"`
	HighValueThreshold float64            `toml:"high_value_threshold"`
	PullRates          map[string]float64 `toml:"pull_rates"`
	SourceTimeout      duration           `toml:"source_timeout"`
	SealedPriceMaxAge  duration           `toml:"sealed_price_max_age"`
	RankWorkers        int                `toml:"rank_workers"`

	DiscountedRate    float64 `toml:"discounted_rate"`
	BaseRate          float64 `toml:"base_rate"`
	DiscountThreshold float64 `toml:"discount_threshold"`
	ResellMarkup      float64 `toml:"resell_markup"`
	HoldPeriod        string  `toml:"hold_period"`
}

// PipelineConfig holds the background refresh and archive parameters.
type PipelineConfig struct {
	RefreshInterval      duration `toml:"refresh_interval"`
	WatchSets            []string `toml:"watch_sets"`
	WatchLatest          int      `toml:"watch_latest"`
	LockTTL              duration `toml:"lock_ttl"`
	ArchiveRetentionDays int      `toml:"archive_retention_days"`
	ArchiveCron          string   `toml:"archive_cron"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	TelegramAPIBase   string   `toml:"telegram_api_base"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	DiscordUsername   string   `toml:"discord_username"`
	Events            []string `toml:"events"`
	MinConfidence     int      `toml:"min_confidence"`
}

// Defaults returns a Config populated with reasonable default values.
// config.example.toml documents the same values.
func Defaults() Config {
	return Config{
		PokemonTCG: PokemonTCGConfig{
			BaseURL:           "https://api.pokemontcg.io/v2",
			Timeout:           duration{30 * time.Second},
			RequestsPerSecond: 5,
			PageSize:          250,
			MaxPages:          10,
			MaxRetries:        3,
			CatalogSize:       256,
			CatalogTTL:        duration{time.Hour},
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "sealedev",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:     false,
			Addr:        "localhost:6379",
			PoolSize:    20,
			MaxRetries:  3,
			TrendingTTL: duration{7 * 24 * time.Hour},
			CardTTL:     duration{24 * time.Hour},
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "sealedev-archive",
			ForcePathStyle: true,
		},
		Valuation: ValuationConfig{
			MinCardValue:       0.40,
			DefaultStrategy:    "rules",
			TopCards:           20,
			SignificantShare:   0.05,
			HighValueThreshold: 10.0,
			PullRates:          map[string]float64{},
			SourceTimeout:      duration{20 * time.Second},
			SealedPriceMaxAge:  duration{time.Hour},
			RankWorkers:        4,
			DiscountedRate:     0.15,
			BaseRate:           0.10,
			DiscountThreshold:  0.90,
			ResellMarkup:       0.05,
			HoldPeriod:         "6 months",
		},
		Pipeline: PipelineConfig{
			RefreshInterval:      duration{6 * time.Hour},
			WatchLatest:          3,
			LockTTL:              duration{5 * time.Minute},
			ArchiveRetentionDays: 90,
			ArchiveCron:          "0 3 1 * *",
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   60,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			TelegramAPIBase: "https://api.telegram.org",
			DiscordUsername: "sealedev",
			Events:          []string{"open_signal"},
			MinConfidence:   70,
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":  true,
	"refresh": true,
	"full":    true,
	"analyze": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validStrategies = map[string]bool{
	"rules":   true,
	"max_roi": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, refresh, full, analyze)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Price source
	if c.PokemonTCG.BaseURL == "" {
		errs = append(errs, "pokemontcg: base_url must not be empty")
	}
	if c.PokemonTCG.RequestsPerSecond < 0 {
		errs = append(errs, "pokemontcg: requests_per_second must be >= 0")
	}
	if c.PokemonTCG.PageSize < 1 || c.PokemonTCG.PageSize > 250 {
		errs = append(errs, fmt.Sprintf("pokemontcg: page_size must be 1-250, got %d", c.PokemonTCG.PageSize))
	}
	if c.PokemonTCG.CatalogSize < 1 {
		errs = append(errs, "pokemontcg: catalog_size must be >= 1")
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
		if !c.Postgres.Enabled {
			errs = append(errs, "s3: archiving requires postgres.enabled")
		}
	}

	// Valuation
	v := c.Valuation
	if v.MinCardValue <= 0 {
		errs = append(errs, "valuation: min_card_value must be > 0")
	}
	if !validStrategies[v.DefaultStrategy] {
		errs = append(errs, fmt.Sprintf("valuation: unknown default_strategy %q (valid: rules, max_roi)", v.DefaultStrategy))
	}
	if v.TopCards < 1 {
		errs = append(errs, "valuation: top_cards must be >= 1")
	}
	if v.SignificantShare < 0 || v.SignificantShare > 1 {
		errs = append(errs, "valuation: significant_share must be within [0,1]")
	}
	for label, rate := range v.PullRates {
		if rate <= 0 || rate > 1 {
			errs = append(errs, fmt.Sprintf("valuation: pull rate for %q must be within (0,1], got %g", label, rate))
		}
	}
	if v.RankWorkers < 1 {
		errs = append(errs, "valuation: rank_workers must be >= 1")
	}
	if v.DiscountThreshold <= 0 || v.DiscountThreshold > 1 {
		errs = append(errs, "valuation: discount_threshold must be within (0,1]")
	}
	if v.BaseRate < 0 || v.DiscountedRate < 0 || v.ResellMarkup < 0 {
		errs = append(errs, "valuation: base_rate, discounted_rate and resell_markup must be >= 0")
	}

	// Pipeline
	if c.Mode == "refresh" || c.Mode == "full" {
		if c.Pipeline.RefreshInterval.Duration <= 0 {
			errs = append(errs, "pipeline: refresh_interval must be > 0")
		}
		if len(c.Pipeline.WatchSets) == 0 && c.Pipeline.WatchLatest <= 0 {
			errs = append(errs, "pipeline: watch_sets or watch_latest must be set for mode "+c.Mode)
		}
	}
	if c.Pipeline.ArchiveRetentionDays < 1 {
		errs = append(errs, "pipeline: archive_retention_days must be >= 1")
	}

	// Server
	if c.Mode == "server" || c.Mode == "full" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must be >= 0")
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}
	if c.Notify.MinConfidence < 0 || c.Notify.MinConfidence > 100 {
		errs = append(errs, "notify: min_confidence must be 0-100")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
