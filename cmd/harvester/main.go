package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sabyjs3-beep/tctp/internal/app"
	"github.com/sabyjs3-beep/tctp/internal/config"
	"github.com/sabyjs3-beep/tctp/internal/database"
	"github.com/sabyjs3-beep/tctp/internal/harvest"
	"github.com/sabyjs3-beep/tctp/internal/ingest"
	"github.com/sabyjs3-beep/tctp/internal/logging"
	"github.com/sabyjs3-beep/tctp/internal/ratelimit"
	"github.com/sabyjs3-beep/tctp/internal/redis"
)

func main() {
	daemon := flag.Bool("daemon", false, "keep running and harvest every HARVEST_INTERVAL")
	flag.Parse()

	clock := clockwork.NewRealClock()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.HarvestSourceURL == "" {
		slog.Error("HARVEST_SOURCE_URL is required for the harvester")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	cityRepo := database.NewCityRepo(pool)
	venueRepo := database.NewVenueRepo(pool)
	eventRepo := database.NewEventRepo(pool)
	voteRepo := database.NewVoteRepo(pool)
	presenceRepo := database.NewPresenceRepo(pool)
	postRepo := database.NewPostRepo(pool)

	// Harvest submissions carry no device identity, so an in-process limiter
	// is enough and spares the binary a Redis dependency.
	limiter := ratelimit.NewMemoryLimiter(redis.Limits{
		Window:  cfg.FreshDeviceWindow,
		Votes:   cfg.FreshDeviceVotes,
		Posts:   cfg.FreshDevicePosts,
		PostGap: cfg.PostGap,
	}, clock)

	resolver := ingest.NewResolver(venueRepo, eventRepo, clock)
	appSvc := app.NewService(cityRepo, venueRepo, eventRepo, voteRepo, presenceRepo, postRepo, limiter, resolver, clock)

	source := harvest.NewBreakerSource(harvest.NewGoabaseSource(cfg.HarvestSourceURL, nil))
	harvester := harvest.NewHarvester(appSvc, cfg.HarvestCity, source)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	harvester.Run(runCtx)

	if !*daemon {
		return
	}

	slog.Info("Harvester running as daemon", "interval", cfg.HarvestInterval)
	ticker := clock.NewTicker(cfg.HarvestInterval)
	defer ticker.Stop()

	for {
		select {
		case <-runCtx.Done():
			slog.Info("Harvester stopping")
			return
		case <-ticker.Chan():
			harvester.Run(runCtx)
		}
	}
}
