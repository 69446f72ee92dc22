package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Stores
	PostgresURL string
	RedisURL    string

	// Artifacts
	ModelPath string

	// Elo
	EloInitialRating float64
	EloKDefault      float64
	EloKGrandSlam    float64
	EloKSmall        float64
	EloDecayDays     float64

	// Rolling features
	RollingWindow     int
	Last3Window       int
	MinSurfaceMatches int

	// Training
	TrainFrac     float64
	ValFrac       float64
	LearningRate  float64
	Epochs        int
	Patience      int
	L2Penalty     float64
	MinSplitRows  int

	// Prediction calibration
	ClampMin float64
	ClampMax float64

	// Ingest worker pool
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration

	// Serving cache
	PredictionCacheTTL time.Duration
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		ModelPath: getEnv("MODEL_PATH", "outputs/model.json"),

		EloInitialRating: getEnvFloat("ELO_INITIAL_RATING", 1500),
		EloKDefault:      getEnvFloat("ELO_K_DEFAULT", 32),
		EloKGrandSlam:    getEnvFloat("ELO_K_GRAND_SLAM", 48),
		EloKSmall:        getEnvFloat("ELO_K_SMALL", 24),
		EloDecayDays:     getEnvFloat("ELO_DECAY_DAYS", 365),

		RollingWindow:     getEnvInt("ROLLING_WINDOW", 10),
		Last3Window:       getEnvInt("LAST3_WINDOW", 3),
		MinSurfaceMatches: getEnvInt("MIN_SURFACE_MATCHES", 3),

		TrainFrac:    getEnvFloat("TRAIN_FRAC", 0.70),
		ValFrac:      getEnvFloat("VAL_FRAC", 0.15),
		LearningRate: getEnvFloat("LEARNING_RATE", 0.1),
		Epochs:       getEnvInt("EPOCHS", 500),
		Patience:     getEnvInt("PATIENCE", 25),
		L2Penalty:    getEnvFloat("L2_PENALTY", 0.0001),
		MinSplitRows: getEnvInt("MIN_SPLIT_ROWS", 50),

		ClampMin: getEnvFloat("PROB_CLAMP_MIN", 0.05),
		ClampMax: getEnvFloat("PROB_CLAMP_MAX", 0.95),

		WorkerCount:   getEnvInt("WORKER_COUNT", 4),
		QueueSize:     getEnvInt("QUEUE_SIZE", 10000),
		BatchSize:     getEnvInt("BATCH_SIZE", 500),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 1*time.Second),

		PredictionCacheTTL: getEnvDuration("PREDICTION_CACHE_TTL", 5*time.Minute),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	rawOrigins := strings.Split(origins, ",")
	for _, o := range rawOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.RedisURL, err = getEnvRequired("REDIS_URL"); err != nil {
		return nil, err
	}

	if cfg.TrainFrac+cfg.ValFrac >= 1.0 {
		return nil, fmt.Errorf("TRAIN_FRAC + VAL_FRAC must leave room for a test slice, got %.2f", cfg.TrainFrac+cfg.ValFrac)
	}
	if cfg.ClampMin < 0 || cfg.ClampMax > 1 || cfg.ClampMin >= cfg.ClampMax {
		return nil, fmt.Errorf("invalid probability clamp range [%.2f, %.2f]", cfg.ClampMin, cfg.ClampMax)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
