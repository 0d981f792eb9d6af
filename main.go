package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"car-price-estimator/api"
	"car-price-estimator/config"
	"car-price-estimator/dataset"
	"car-price-estimator/predictor"
	"car-price-estimator/services"
	"car-price-estimator/storage"
	"car-price-estimator/utils"
)

func main() {
	seed := flag.Bool("seed", false, "copy the CSV dataset into PostgreSQL and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger("info", "console").Error("Invalid configuration: %v", err)
		os.Exit(1)
	}
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: time.Second, Logger: logger}

	if *seed {
		if err := seedPostgres(ctx, cfg, logger); err != nil {
			logger.Error("Seeding failed: %v", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("=== Car price estimator starting ===")
	logger.Info("Config: dataset=%s | predictor=%s | addr=%s",
		cfg.DatasetSource, cfg.PredictorMode, cfg.HTTPAddr)

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open dataset source: %v", err)
		if cfg.DatasetSource == config.SourcePostgres {
			logger.Error("Make sure Docker is running: docker compose up -d")
		}
		os.Exit(1)
	}
	defer closeSource()

	snap, err := dataset.NewStore(source, retry, logger).Snapshot(ctx)
	if err != nil {
		logger.Error("Failed to load reference dataset: %v", err)
		os.Exit(1)
	}
	dataset.LogSummary(logger, snap.Summary(), 5)

	p, closePredictor, err := buildPredictor(ctx, cfg, retry, logger)
	if err != nil {
		logger.Error("Failed to set up predictor: %v", err)
		os.Exit(1)
	}
	defer closePredictor()

	predictions := services.NewPredictionService(p, cfg.PredictTimeout, logger)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.NewHandler(snap, predictions, logger), logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}

// openSource returns the configured listing source and a close function.
func openSource(ctx context.Context, cfg *config.Config) (storage.ListingSource, func(), error) {
	if cfg.DatasetSource == config.SourcePostgres {
		pg, err := storage.NewPostgresStore(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { _ = pg.Close() }, nil
	}
	return storage.NewCSVReader(cfg.DatasetPath), func() {}, nil
}

// buildPredictor wires the configured predictor, wrapped in the Redis cache
// when REDIS_ADDR is set and reachable.
func buildPredictor(ctx context.Context, cfg *config.Config, retry *utils.RetryConfig, logger *utils.Logger) (predictor.Predictor, func(), error) {
	var p predictor.Predictor
	switch cfg.PredictorMode {
	case config.ModeRemote:
		p = predictor.NewRemotePredictor(cfg.RemotePredictorURL, cfg.PredictTimeout, retry)
		logger.Info("[predict] Using inference service at %s", cfg.RemotePredictorURL)
	default:
		art := predictor.NewArtifactPredictor(cfg.ArtifactPath, cfg.CacheArtifact)
		if cfg.CacheArtifact {
			// fail fast on a broken artifact instead of on the first request
			if _, err := predictor.LoadArtifact(cfg.ArtifactPath); err != nil {
				return nil, nil, err
			}
		}
		p = art
		logger.Info("[predict] Using pipeline artifact %s (cached=%v)", cfg.ArtifactPath, cfg.CacheArtifact)
	}

	if cfg.RedisAddr == "" {
		return p, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("[predict] Redis at %s unreachable, predictions will not be cached: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return p, func() {}, nil
	}

	logger.Info("[predict] Caching predictions in Redis at %s (ttl %v)", cfg.RedisAddr, cfg.PredictionCacheTTL)
	return predictor.NewCachedPredictor(p, client, cfg.PredictionCacheTTL, logger),
		func() { _ = client.Close() }, nil
}

// seedPostgres copies the CSV dataset into the listings table.
func seedPostgres(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	logger.Info("=== Seeding PostgreSQL from %s ===", cfg.DatasetPath)

	listings, err := storage.NewCSVReader(cfg.DatasetPath).Load(ctx)
	if err != nil {
		return err
	}
	if len(listings) == 0 {
		return dataset.ErrEmptyDataset
	}

	pg, err := storage.NewPostgresStore(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer pg.Close()

	var writer storage.ListingWriter = pg
	if err := writer.Write(ctx, listings); err != nil {
		return err
	}
	logger.Info("Stored %d listings in PostgreSQL (table: listings)", len(listings))
	return nil
}
