package handlers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

// MaxBodySize limits the size of request bodies to 64KB
const MaxBodySize = 65536

// Predictor computes a win-probability pair for two players on a surface.
type Predictor interface {
	Predict(ctx context.Context, playerA, playerB string, surface models.Surface) (*models.PredictionResponse, error)
}

// SnapshotReader is the read side of the latest-state snapshot store.
type SnapshotReader interface {
	Get(playerID string) (models.LatestPlayerSnapshot, bool)
	List() []models.LatestPlayerSnapshot
	Ready() bool
	BuiltAt() time.Time
}

type Config struct {
	Postgres  *pgxpool.Pool
	Redis     *redis.Client
	Logger    *zap.Logger
	Predictor Predictor
	Snapshots SnapshotReader
	CacheTTL  time.Duration
}

type Handler struct {
	pg        *pgxpool.Pool
	redis     *redis.Client
	logger    *zap.SugaredLogger
	validator *validator.Validate
	predictor Predictor
	snapshots SnapshotReader
	cacheTTL  time.Duration
}

func New(cfg Config) *Handler {
	return &Handler{
		pg:        cfg.Postgres,
		redis:     cfg.Redis,
		logger:    cfg.Logger.Sugar(),
		validator: validator.New(),
		predictor: cfg.Predictor,
		snapshots: cfg.Snapshots,
		cacheTTL:  cfg.CacheTTL,
	}
}
