package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/breakpoint-analytics/tennis-api/internal/config"
	"github.com/breakpoint-analytics/tennis-api/internal/handlers"
	"github.com/breakpoint-analytics/tennis-api/internal/model"
	"github.com/breakpoint-analytics/tennis-api/internal/predict"
	"github.com/breakpoint-analytics/tennis-api/internal/snapshot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		sugar.Fatalw("Failed to connect to Postgres", "error", err)
	}
	defer pg.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		sugar.Fatalw("Invalid Redis URL", "error", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	// Load the latest snapshot set; an empty table means the pipeline has
	// never run and the API serves 503s until it does.
	store := snapshot.NewStore()
	pgStore := snapshot.NewPostgresStore(pg)
	if err := pgStore.EnsureSchema(ctx); err != nil {
		sugar.Fatalw("Failed to ensure snapshot schema", "error", err)
	}
	snaps, err := pgStore.LoadAll(ctx)
	if err != nil {
		sugar.Fatalw("Failed to load snapshots", "error", err)
	}
	if len(snaps) > 0 {
		store.Swap(snaps)
		sugar.Infow("Snapshot loaded", "players", len(snaps))
	} else {
		sugar.Warn("No snapshots persisted yet, predictions unavailable")
	}

	handlerCfg := handlers.Config{
		Postgres:  pg,
		Redis:     rdb,
		Logger:    logger,
		Snapshots: store,
		CacheTTL:  cfg.PredictionCacheTTL,
	}
	artifact, err := model.Load(cfg.ModelPath)
	if err != nil {
		sugar.Warnw("Model artifact unavailable, predictions disabled", "path", cfg.ModelPath, "error", err)
	} else {
		handlerCfg.Predictor = predict.NewService(store, artifact, predict.Options{
			ClampMin: cfg.ClampMin,
			ClampMax: cfg.ClampMax,
		}, sugar)
		sugar.Infow("Model artifact loaded", "path", cfg.ModelPath, "trainedAt", artifact.TrainedAt)
	}

	h := handlers.New(handlerCfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/players", h.ListPlayers)
		r.Get("/players/{playerId}", h.GetPlayerStats)
		r.Post("/predict", h.Predict)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		sugar.Infow("API listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Graceful shutdown failed", "error", err)
	}
}
