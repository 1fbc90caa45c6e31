package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SEALEDEV_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after
// Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SEALEDEV_* environment variables and
// overwrites the corresponding Config fields when a variable is set. The
// SEALEDEV_* name wins over its alias.
func applyEnvOverrides(cfg *Config) {
	// ── Price source ──
	setStr(&cfg.PokemonTCG.BaseURL, "SEALEDEV_POKEMONTCG_BASE_URL")
	setStr(&cfg.PokemonTCG.APIKey, "POKEMON_TCG_API_KEY") // compatibility alias
	setStr(&cfg.PokemonTCG.APIKey, "SEALEDEV_POKEMONTCG_API_KEY")
	setDuration(&cfg.PokemonTCG.Timeout, "SEALEDEV_POKEMONTCG_TIMEOUT")
	setFloat64(&cfg.PokemonTCG.RequestsPerSecond, "SEALEDEV_POKEMONTCG_REQUESTS_PER_SECOND")
	setInt(&cfg.PokemonTCG.MaxRetries, "SEALEDEV_POKEMONTCG_MAX_RETRIES")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "SEALEDEV_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.DSN, "SEALEDEV_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SEALEDEV_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SEALEDEV_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SEALEDEV_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SEALEDEV_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SEALEDEV_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SEALEDEV_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SEALEDEV_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SEALEDEV_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SEALEDEV_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "SEALEDEV_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "SEALEDEV_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SEALEDEV_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SEALEDEV_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SEALEDEV_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "SEALEDEV_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.TrendingTTL, "SEALEDEV_REDIS_TRENDING_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SEALEDEV_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SEALEDEV_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SEALEDEV_S3_REGION")
	setStr(&cfg.S3.Bucket, "SEALEDEV_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SEALEDEV_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SEALEDEV_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SEALEDEV_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SEALEDEV_S3_FORCE_PATH_STYLE")

	// ── Valuation ──
	setFloat64(&cfg.Valuation.MinCardValue, "SEALEDEV_VALUATION_MIN_CARD_VALUE")
	setStr(&cfg.Valuation.DefaultStrategy, "SEALEDEV_VALUATION_DEFAULT_STRATEGY")
	setInt(&cfg.Valuation.RankWorkers, "SEALEDEV_VALUATION_RANK_WORKERS")
	setDuration(&cfg.Valuation.SourceTimeout, "SEALEDEV_VALUATION_SOURCE_TIMEOUT")

	// ── Pipeline ──
	setDuration(&cfg.Pipeline.RefreshInterval, "SEALEDEV_PIPELINE_REFRESH_INTERVAL")
	setStringSlice(&cfg.Pipeline.WatchSets, "SEALEDEV_PIPELINE_WATCH_SETS")
	setInt(&cfg.Pipeline.WatchLatest, "SEALEDEV_PIPELINE_WATCH_LATEST")
	setInt(&cfg.Pipeline.ArchiveRetentionDays, "SEALEDEV_PIPELINE_ARCHIVE_RETENTION_DAYS")
	setStr(&cfg.Pipeline.ArchiveCron, "SEALEDEV_PIPELINE_ARCHIVE_CRON")

	// ── Server ──
	setInt(&cfg.Server.Port, "PORT") // compatibility alias
	setInt(&cfg.Server.Port, "SEALEDEV_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SEALEDEV_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SEALEDEV_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "SEALEDEV_SERVER_RATE_LIMIT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SEALEDEV_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SEALEDEV_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SEALEDEV_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SEALEDEV_NOTIFY_EVENTS")
	setInt(&cfg.Notify.MinConfidence, "SEALEDEV_NOTIFY_MIN_CONFIDENCE")

	// ── Top-level ──
	setStr(&cfg.Mode, "SEALEDEV_MODE")
	setStr(&cfg.LogLevel, "SEALEDEV_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
