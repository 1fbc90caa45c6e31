package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/sealedev/internal/blob/s3"
	"github.com/alanyoungcy/sealedev/internal/cache/redis"
	"github.com/alanyoungcy/sealedev/internal/config"
	"github.com/alanyoungcy/sealedev/internal/domain"
	"github.com/alanyoungcy/sealedev/internal/notify"
	"github.com/alanyoungcy/sealedev/internal/platform/pokemontcg"
	"github.com/alanyoungcy/sealedev/internal/service"
	"github.com/alanyoungcy/sealedev/internal/store/postgres"
	"github.com/alanyoungcy/sealedev/internal/strategy"
	"github.com/alanyoungcy/sealedev/internal/valuation"
)

// Dependencies bundles the infrastructure the application modes need. Every
// backend is optional; a nil field means the backend is disabled.
type Dependencies struct {
	// Stores
	Store domain.AnalysisStore

	// Caches
	Trending     domain.TrendingCache
	SealedPrices domain.SealedPriceCache
	Cards        domain.CardCache
	RateLimiter  domain.RateLimiter
	LockManager  domain.LockManager
	SignalBus    domain.SignalBus

	// Blob storage
	Archiver domain.Archiver

	// Notifications
	Notifier *notify.Notifier

	// Health checks by backend name.
	Pingers map[string]func(ctx context.Context) error
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Pingers: map[string]func(ctx context.Context) error{}}

	// --- PostgreSQL ---
	var analysisStore *postgres.AnalysisStore
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		analysisStore = postgres.NewAnalysisStore(pgClient.Pool())
		deps.Store = analysisStore
		deps.Pingers["postgres"] = pgClient.Ping
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Trending = redis.NewTrendingCache(redisClient, cfg.Redis.TrendingTTL.Duration)
		deps.SealedPrices = redis.NewSealedPriceCache(redisClient)
		deps.Cards = redis.NewCardCache(redisClient, cfg.Redis.CardTTL.Duration)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.Pingers["redis"] = redisClient.Ping
	}

	// --- S3 archive (needs the analysis store as its source) ---
	if cfg.S3.Enabled && analysisStore != nil {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), s3blob.NewReader(s3Client), analysisStore)
		deps.Pingers["s3"] = s3Client.Health
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramAPIBase,
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL, cfg.Notify.DiscordUsername))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

// Services are the domain services shared by every mode.
type Services struct {
	Catalog  *service.CatalogService
	Analysis *service.AnalysisService
	Ranking  *service.RankingService
}

// NewServices builds the valuation pipeline on top of deps.
func NewServices(cfg *config.Config, deps *Dependencies, logger *slog.Logger) (*Services, error) {
	client := pokemontcg.NewClient(pokemontcg.Config{
		BaseURL:           cfg.PokemonTCG.BaseURL,
		APIKey:            cfg.PokemonTCG.APIKey,
		Timeout:           cfg.PokemonTCG.Timeout.Duration,
		RequestsPerSecond: cfg.PokemonTCG.RequestsPerSecond,
		PageSize:          cfg.PokemonTCG.PageSize,
		MaxPages:          cfg.PokemonTCG.MaxPages,
		MaxRetries:        cfg.PokemonTCG.MaxRetries,
	})

	catalog, err := service.NewCatalogService(client, cfg.PokemonTCG.CatalogSize, cfg.PokemonTCG.CatalogTTL.Duration, logger)
	if err != nil {
		return nil, fmt.Errorf("services: catalog: %w", err)
	}

	rates, err := valuation.NewPullRateTable(cfg.Valuation.PullRates)
	if err != nil {
		return nil, fmt.Errorf("services: pull rates: %w", err)
	}
	v := cfg.Valuation
	estimator := valuation.NewEstimator(rates,
		valuation.WithTopCards(v.TopCards),
		valuation.WithRetention(v.SignificantShare, v.HighValueThreshold),
	)
	recommender := valuation.NewRecommender(valuation.Assumption{
		DiscountedRate:    v.DiscountedRate,
		BaseRate:          v.BaseRate,
		DiscountThreshold: v.DiscountThreshold,
		ResellMarkup:      v.ResellMarkup,
		HoldPeriod:        v.HoldPeriod,
	})

	var alerter service.Alerter
	if deps.Notifier != nil && deps.Notifier.Enabled() {
		alerter = deps.Notifier
	}

	analysis := service.NewAnalysisService(service.AnalysisDeps{
		Catalog:     catalog,
		Prices:      service.NewPriceSource(client, deps.Cards, pokemontcg.SourceName, v.SourceTimeout.Duration, logger),
		Pricer:      service.NewSealedPricer(deps.SealedPrices, v.SealedPriceMaxAge.Duration, logger),
		Estimator:   estimator,
		Recommender: recommender,
		Policies:    strategy.NewDefaultRegistry(),
		Store:       deps.Store,
		Trending:    deps.Trending,
		Bus:         deps.SignalBus,
		Alerter:     alerter,
	}, service.AnalysisConfig{
		MinCardValue:       v.MinCardValue,
		DefaultStrategy:    v.DefaultStrategy,
		AlertMinConfidence: cfg.Notify.MinConfidence,
	}, logger)

	return &Services{
		Catalog:  catalog,
		Analysis: analysis,
		Ranking:  service.NewRankingService(analysis, v.RankWorkers, logger),
	}, nil
}
