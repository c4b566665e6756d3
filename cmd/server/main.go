package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/sabyjs3-beep/tctp/internal/app"
	"github.com/sabyjs3-beep/tctp/internal/config"
	"github.com/sabyjs3-beep/tctp/internal/database"
	"github.com/sabyjs3-beep/tctp/internal/ingest"
	"github.com/sabyjs3-beep/tctp/internal/logging"
	"github.com/sabyjs3-beep/tctp/internal/redis"
	"github.com/sabyjs3-beep/tctp/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, stopLifecycle context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		stopLifecycle()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	cityRepo := database.NewCityRepo(pool)
	venueRepo := database.NewVenueRepo(pool)
	eventRepo := database.NewEventRepo(pool)
	voteRepo := database.NewVoteRepo(pool)
	presenceRepo := database.NewPresenceRepo(pool)
	postRepo := database.NewPostRepo(pool)

	limiter := redis.NewRateLimiter(redisClient, redis.Limits{
		Window:  cfg.FreshDeviceWindow,
		Votes:   cfg.FreshDeviceVotes,
		Posts:   cfg.FreshDevicePosts,
		PostGap: cfg.PostGap,
	})

	resolver := ingest.NewResolver(venueRepo, eventRepo, clock)
	appSvc := app.NewService(cityRepo, venueRepo, eventRepo, voteRepo, presenceRepo, postRepo, limiter, resolver, clock)

	lifecycle := app.NewLifecycle(eventRepo, clock, app.LifecycleConfig{
		Interval:         cfg.LifecycleInterval,
		StaleAfter:       cfg.StaleAfter,
		CoolingFor:       cfg.CoolingFor,
		ArchiveRetention: cfg.ArchiveRetention,
	})
	lifecycleCtx, stopLifecycle := context.WithCancel(context.Background())
	go lifecycle.Run(lifecycleCtx)

	healthChecks := []server.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}

	srv := server.NewServer(cfg, appSvc, healthChecks, clock)

	done := runGracefulShutdown(srv, stopLifecycle)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
