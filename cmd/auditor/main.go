package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/auditor/internal/compliance"
	"github.com/gosuda/auditor/internal/config"
	"github.com/gosuda/auditor/internal/messenger/slack"
	"github.com/gosuda/auditor/internal/notify"
	"github.com/gosuda/auditor/internal/recommend"
	"github.com/gosuda/auditor/internal/server"
	"github.com/gosuda/auditor/internal/store/postgres"
	redisstore "github.com/gosuda/auditor/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	setupLogging(cfg.Log)

	if cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dsn := cfg.Database.DSN()
	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(dsn); err != nil {
			return err
		}
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, dsn, int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	opts := []compliance.Option{
		compliance.WithPublisher(pubsub),
		compliance.WithStatsCache(redisstore.NewStatsCache(pubsub.Client(), cfg.Redis.StatsTTL)),
	}

	if cfg.Recommender.BaseURL != "" {
		opts = append(opts, compliance.WithRecommender(
			recommend.New(cfg.Recommender.BaseURL, cfg.Recommender.Token, cfg.Recommender.Timeout),
		))
		log.Info().Str("base_url", cfg.Recommender.BaseURL).Msg("recommendation service enabled")
	}

	if cfg.Slack.BotToken != "" {
		var notifyOpts []notify.Option
		if cfg.Slack.FallbackChannel != "" {
			notifyOpts = append(notifyOpts, notify.WithFallbackChannel("slack", cfg.Slack.FallbackChannel))
		}
		notifier := notify.New(
			notify.NewRegistry(slack.NewFromToken(cfg.Slack.BotToken)),
			store.MessengerLinks(),
			notifyOpts...,
		)
		opts = append(opts, compliance.WithNotifier(notifier))
		log.Info().Msg("Slack notifications enabled")
	}

	svc := compliance.New(store, opts...)

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, server.Deps{
		Service:    svc,
		Links:      store.MessengerLinks(),
		Subscriber: pubsub,
		Health: map[string]server.Pinger{
			"postgres": store,
			"redis":    pubsub,
		},
	})

	// Start server in background goroutine.
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// Block until shutdown signal or listener failure.
	select {
	case <-ctx.Done():
	case startErr := <-errCh:
		if startErr != nil {
			return startErr
		}
	}
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
