package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teacheasy/teacheasy/internal/api"
	"github.com/teacheasy/teacheasy/internal/assistant"
	"github.com/teacheasy/teacheasy/internal/catalog"
	"github.com/teacheasy/teacheasy/internal/config"
	"github.com/teacheasy/teacheasy/internal/events"
	"github.com/teacheasy/teacheasy/internal/matching"
	"github.com/teacheasy/teacheasy/internal/resume"
	"github.com/teacheasy/teacheasy/internal/scheduler"
	"github.com/teacheasy/teacheasy/internal/scrape"
	"github.com/teacheasy/teacheasy/internal/store"
)

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(cfg.Database.URL, store.MigrateUp); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		logger.Info("database schema up to date")
	}
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Events (optional)
	var eventsClient events.Client
	if cfg.Events.URL != "" {
		nc, err := events.NewNATSClient(ctx, cfg.Events.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to nats, running without events", "error", err)
		} else {
			eventsClient = nc
			defer nc.Close()
			logger.Info("connected to nats")
		}
	}

	// Auth
	auth, err := api.NewAuthenticator(cfg.Auth)
	if err != nil {
		logger.Error("failed to configure auth", "error", err)
		os.Exit(1)
	}
	if auth == nil {
		logger.Warn("token verification disabled, trusting client-supplied user ids")
	}

	// Essay assist
	asst, err := assistant.New(ctx, cfg.Assistant, cfg.AssistantTimeout())
	if err != nil {
		logger.Error("failed to configure assistant", "error", err)
		os.Exit(1)
	}
	logger.Info("assistant configured", "provider", asst.Name())

	var resumeStore resume.Store = resume.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		rs, err := resume.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.ResumeTTL())
		if err != nil {
			logger.Warn("failed to connect to redis, keeping resumes in memory", "error", err)
		} else {
			resumeStore = rs
			defer rs.Close()
			logger.Info("connected to redis")
		}
	}
	var blobs resume.BlobStore
	if cfg.Storage.Bucket != "" {
		b, err := resume.NewS3Blob(ctx, cfg.Storage)
		if err != nil {
			logger.Warn("failed to configure resume archive", "error", err)
		} else {
			blobs = b
			logger.Info("archiving resumes", "bucket", cfg.Storage.Bucket)
		}
	}
	resumes := resume.NewService(resumeStore, blobs, logger)

	// Matcher
	w := cfg.Matching.Weights
	matcher := matching.NewMatcher(matching.WeightSet{
		GradeLevel:  w.GradeLevel,
		Subject:     w.Subject,
		District:    w.District,
		FundingType: w.FundingType,
		Amount:      w.Amount,
	}, logger)

	// Maintenance
	if cfg.Maintenance.Enabled {
		sched, err := scheduler.New(db, eventsClient, cfg.Maintenance.Schedule, logger)
		if err != nil {
			logger.Error("failed to create scheduler", "error", err)
			os.Exit(1)
		}
		if cfg.Scrape.Enabled {
			runner, err := scrape.NewFromConfig(cfg.Scrape, asst, catalog.NewImporter(db, logger), eventsClient, logger)
			if err != nil {
				logger.Error("failed to configure scrapers", "error", err)
				os.Exit(1)
			}
			err = sched.AddJob("scrape", cfg.Scrape.Schedule, func(ctx context.Context) error {
				_, err := runner.Run(ctx)
				return err
			})
			if err != nil {
				logger.Error("failed to schedule scrapers", "error", err)
				os.Exit(1)
			}
			logger.Info("scrape job scheduled", "schedule", cfg.Scrape.Schedule, "sources", len(runner.Sources()))
		}
		sched.Start(ctx)
		defer sched.Stop()
		logger.Info("maintenance scheduler started", "schedule", cfg.Maintenance.Schedule)
	} else if cfg.Scrape.Enabled {
		logger.Warn("scraping needs the maintenance scheduler, scheduled scrapes will not run")
	}

	if cfg.Server.AdminToken == "" {
		logger.Warn("admin token not set, admin routes will refuse every request")
	}

	limiter := api.NewRateLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Sweep(10 * time.Minute)
			}
		}
	}()

	// API server
	router := api.NewRouter(api.Deps{
		Store:          db,
		Events:         eventsClient,
		Matcher:        matcher,
		Assistant:      asst,
		Resumes:        resumes,
		Auth:           auth,
		Limiter:        limiter,
		AdminToken:     cfg.Server.AdminToken,
		MaxUploadBytes: cfg.Assistant.MaxUploadBytes,
		Logger:         logger,
	})
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
	cancel()

	logger.Info("shutdown complete")
}
