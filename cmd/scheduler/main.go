// Command scheduler runs the scrape loop as a standalone daemon, for
// deployments that keep the API and the background workers on separate
// processes. It shares the wiring of cmd/api minus the HTTP surface.
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pressly/goose/v3"

	"github.com/faredrop/faredrop-backend/internal/config"
	"github.com/faredrop/faredrop-backend/internal/logging"
	"github.com/faredrop/faredrop-backend/internal/notification"
	"github.com/faredrop/faredrop-backend/internal/repository/minio"
	"github.com/faredrop/faredrop-backend/internal/repository/ports"
	"github.com/faredrop/faredrop-backend/internal/repository/postgres"
	redisrepo "github.com/faredrop/faredrop-backend/internal/repository/redis"
	"github.com/faredrop/faredrop-backend/internal/scraper"
	"github.com/faredrop/faredrop-backend/internal/scraper/providers"
	"github.com/faredrop/faredrop-backend/internal/service"
	"github.com/faredrop/faredrop-backend/migrations"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("logstash writer disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, writer))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("set migration dialect: %v", err)
	}
	if err := goose.Up(db.DB, "."); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	var limiter scraper.RateLimiter
	if cfg.RedisAddr != "" {
		pool := redisrepo.NewPool(cfg.RedisAddr)
		defer pool.Close()
		limiter = redisrepo.NewRateLimiter(pool, cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	var archive ports.ObjectStorage
	if cfg.ArchiveEnabled && cfg.MinIOEndpoint != "" {
		client, err := minio.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			log.Fatalf("connect minio: %v", err)
		}
		archive = minio.NewStorage(client, cfg.MinIOPublicURL)
	}

	registry := scraper.NewRegistry()
	registry.Register(providers.SimulatedName, providers.NewSimulated)
	if cfg.FareAPIBaseURL != "" {
		registry.Register(providers.FareAPIName, providers.NewFareAPI(cfg.FareAPIBaseURL))
	}

	tripRepo := postgres.NewTripRepo(db)
	watchRepo := postgres.NewPriceWatchRepo(db)
	snapshotRepo := postgres.NewPriceSnapshotRepo(db)
	alertRepo := postgres.NewAlertRepo(db)

	alertSvc := service.NewAlertService(alertRepo, watchRepo, tripRepo, notification.NewLogDispatcher())
	scrapeSvc := service.NewScrapeService(tripRepo, watchRepo, snapshotRepo, registry, limiter, alertSvc, archive, service.ScrapeConfig{
		MaxRetries:            cfg.ScrapeMaxRetries,
		BaseDelay:             cfg.ScrapeBaseDelay,
		FetchTimeout:          cfg.ScrapeTimeout,
		Concurrency:           cfg.ScrapeConcurrency,
		ArchiveBucket:         cfg.MinIOBucketScrapes,
		ArchiveThresholdBytes: cfg.ArchiveThreshold,
	})
	scheduler := service.NewScheduler(watchRepo, scrapeSvc, service.SchedulerConfig{
		Interval:  cfg.ScrapeInterval,
		BatchSize: cfg.ScrapeBatchSize,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	scheduler.Start(ctx)
	log.Println("scheduler stopped")
}
