// Command sealedev is the entry point for the sealed product EV service. It
// loads configuration, validates it, sets up signal handling, and starts the
// application in the configured mode. Passing -set or -product runs a single
// analysis and prints it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alanyoungcy/sealedev/internal/app"
	"github.com/alanyoungcy/sealedev/internal/config"
	"github.com/alanyoungcy/sealedev/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults only when empty)")
	setName := flag.String("set", "", "set name or id to analyse once")
	product := flag.String("product", "", "sealed product name to analyse once")
	price := flag.Float64("price", 0, "observed sealed price (0 = estimate)")
	msrp := flag.Float64("msrp", 0, "MSRP override (0 = estimate)")
	strategyName := flag.String("strategy", "", "recommendation strategy: rules or max_roi")
	flag.Parse()

	// Setup structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	var opts []app.Option
	if *setName != "" || *product != "" {
		cfg.Mode = "analyze"
		req := service.AnalyzeRequest{
			SetName:     *setName,
			ProductName: *product,
			Strategy:    *strategyName,
		}
		if *price > 0 {
			req.SealedPrice = price
		}
		if *msrp > 0 {
			req.MSRP = msrp
		}
		opts = append(opts, app.WithAnalyzeRequest(req))
	}

	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("sealedev starting",
		slog.String("mode", cfg.Mode),
		slog.String("config", *configPath),
		slog.Any("settings", config.RedactedConfig(cfg)),
	)

	application := app.New(cfg, logger, opts...)
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		// context.Canceled is expected on clean shutdown.
		if errors.Is(err, context.Canceled) {
			logger.Info("application shut down gracefully")
		} else {
			logger.Error("application exited with error",
				slog.String("error", err.Error()),
			)
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			application.Close()
			os.Exit(1)
		}
	}

	logger.Info("sealedev stopped")
}
