// Command pipeline runs one full recompute: ingest CSVs into the ledger,
// replay the ledger through the rating and rolling engines, build the feature
// matrix, train the classifier, and publish the model artifact plus the
// latest-state snapshots. Every run rebuilds from scratch; there is no
// incremental update path.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/breakpoint-analytics/tennis-api/internal/config"
	"github.com/breakpoint-analytics/tennis-api/internal/engine"
	"github.com/breakpoint-analytics/tennis-api/internal/features"
	"github.com/breakpoint-analytics/tennis-api/internal/ingest"
	"github.com/breakpoint-analytics/tennis-api/internal/ledger"
	"github.com/breakpoint-analytics/tennis-api/internal/model"
	"github.com/breakpoint-analytics/tennis-api/internal/snapshot"
)

func main() {
	csvGlob := flag.String("csv", "", "glob of match CSV files to ingest before the run (e.g. data/raw/atp_matches_*.csv)")
	skipTrain := flag.Bool("skip-train", false, "replay and publish snapshots without retraining the model")
	flag.Parse()

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

	if err := run(context.Background(), cfg, logger, *csvGlob, *skipTrain); err != nil {
		sugar.Fatalw("Pipeline failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, csvGlob string, skipTrain bool) error {
	sugar := logger.Sugar()
	start := time.Now()

	pg, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pg.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	store := ledger.NewStore(pg)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	// 1. Ingest (optional): parse CSVs and batch-load them into the ledger.
	if csvGlob != "" {
		if err := ingestCSVs(ctx, cfg, logger, store, csvGlob); err != nil {
			return err
		}
	}

	// 2. Load and normalize the ledger.
	raw, err := store.LoadMatches(ctx)
	if err != nil {
		return err
	}
	matches, err := ledger.Normalize(raw)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("ledger is empty, nothing to replay")
	}
	sugar.Infow("Ledger loaded", "matches", len(matches))

	// 3. Replay: point-in-time ratings and rolling features in one pass.
	result, err := engine.Replay(matches, engine.Options{
		Elo: engine.EloOptions{
			InitialRating: cfg.EloInitialRating,
			KDefault:      cfg.EloKDefault,
			KGrandSlam:    cfg.EloKGrandSlam,
			KSmall:        cfg.EloKSmall,
			DecayDays:     cfg.EloDecayDays,
		},
		Rolling: engine.RollingOptions{
			Window:            cfg.RollingWindow,
			Last3Window:       cfg.Last3Window,
			MinSurfaceMatches: cfg.MinSurfaceMatches,
		},
	})
	if err != nil {
		return err
	}

	// 4. Train on the differenced feature matrix.
	if !skipTrain {
		rows, err := features.Build(matches, result.Features)
		if err != nil {
			return err
		}
		artifact, metrics, err := model.Train(rows, model.Options{
			LearningRate: cfg.LearningRate,
			Epochs:       cfg.Epochs,
			Patience:     cfg.Patience,
			L2Penalty:    cfg.L2Penalty,
			TrainFrac:    cfg.TrainFrac,
			ValFrac:      cfg.ValFrac,
			MinSplitRows: cfg.MinSplitRows,
		}, sugar)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(cfg.ModelPath), 0o755); err != nil {
			return fmt.Errorf("create artifact dir: %w", err)
		}
		if err := artifact.Save(cfg.ModelPath); err != nil {
			return err
		}
		sugar.Infow("Model artifact saved",
			"path", cfg.ModelPath,
			"testAccuracy", metrics.Accuracy,
			"testLogLoss", metrics.LogLoss,
			"testROCAUC", metrics.ROCAUC,
		)
	}

	// 5. Project and publish the latest-state snapshots.
	snaps, err := engine.BuildSnapshots(ctx, result)
	if err != nil {
		return err
	}

	snapStore := snapshot.NewPostgresStore(pg)
	if err := snapStore.EnsureSchema(ctx); err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return snapStore.SaveAll(gctx, snaps) })
	g.Go(func() error { return snapshot.Publish(gctx, rdb, snaps) })
	if err := g.Wait(); err != nil {
		return err
	}

	sugar.Infow("Pipeline complete",
		"matches", len(matches),
		"players", len(snaps),
		"duration", time.Since(start),
	)
	return nil
}

func ingestCSVs(ctx context.Context, cfg *config.Config, logger *zap.Logger, store *ledger.Store, glob string) error {
	sugar := logger.Sugar()
	paths, err := filepath.Glob(glob)
	if err != nil {
		return fmt.Errorf("bad csv glob %q: %w", glob, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files match %q", glob)
	}

	pool := ingest.NewPool(ingest.PoolConfig{
		WorkerCount:   cfg.WorkerCount,
		QueueSize:     cfg.QueueSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Writer:        store,
		Logger:        logger,
	})
	pool.Start(ctx)

	total := 0
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		matches, err := ledger.ParseCSV(f, sugar)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		for i := range matches {
			pool.Enqueue(matches[i])
		}
		total += len(matches)
		sugar.Infow("CSV parsed", "file", path, "matches", len(matches))
	}

	pool.Stop()
	sugar.Infow("Ingest complete", "files", len(paths), "matches", total)
	return nil
}
