// Package predict joins the latest-state snapshot store with the trained
// model artifact to produce live win probabilities for a pair of players.
package predict

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/breakpoint-analytics/tennis-api/internal/features"
	"github.com/breakpoint-analytics/tennis-api/internal/model"
	"github.com/breakpoint-analytics/tennis-api/internal/models"
	"github.com/breakpoint-analytics/tennis-api/internal/snapshot"
)

var predictionsServed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tennis_predictions_served_total",
	Help: "Total number of win-probability predictions computed",
})

// SnapshotSource is the read side of the snapshot store.
type SnapshotSource interface {
	Get(playerID string) (models.LatestPlayerSnapshot, bool)
}

// Options configures prediction calibration.
type Options struct {
	// Clamp bounds keep sparse-data matchups from producing overconfident
	// extremes. This is a deliberate calibration choice.
	ClampMin float64
	ClampMax float64
}

func (o Options) withDefaults() Options {
	if o.ClampMin == 0 && o.ClampMax == 0 {
		o.ClampMin, o.ClampMax = 0.05, 0.95
	}
	return o
}

// Service computes live predictions from current player state.
type Service struct {
	snaps    SnapshotSource
	artifact *model.Artifact
	opts     Options
	logger   *zap.SugaredLogger
}

func NewService(snaps SnapshotSource, artifact *model.Artifact, opts Options, logger *zap.SugaredLogger) *Service {
	return &Service{
		snaps:    snaps,
		artifact: artifact,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// Predict returns the win-probability pair and display stats for two players
// on a surface. The feature vector is built from the snapshot with the exact
// column ordering and imputation rule used in training.
func (s *Service) Predict(ctx context.Context, playerA, playerB string, surface models.Surface) (*models.PredictionResponse, error) {
	snapA, ok := s.snaps.Get(playerA)
	if !ok {
		return nil, fmt.Errorf("player %s: %w", playerA, snapshot.ErrPlayerNotFound)
	}
	snapB, ok := s.snaps.Get(playerB)
	if !ok {
		return nil, fmt.Errorf("player %s: %w", playerB, snapshot.ErrPlayerNotFound)
	}

	row := diffRow(&snapA, &snapB, surface)
	raw := s.artifact.Predict(features.Vector(row))
	probA := clamp(raw, s.opts.ClampMin, s.opts.ClampMax)
	predictionsServed.Inc()

	s.logger.Debugw("Prediction computed",
		"playerA", playerA, "playerB", playerB, "surface", surface,
		"raw", raw, "clamped", probA,
	)

	return &models.PredictionResponse{
		ProbAWins: probA,
		ProbBWins: 1 - probA,
		Surface:   surface,
		StatsA:    displayStats(&snapA, surface),
		StatsB:    displayStats(&snapB, surface),
		Last5A:    snapA.Last5,
		Last5B:    snapB.Last5,
	}, nil
}

// diffRow builds a FeatureRow-shaped live vector: subject A minus opponent B,
// nil where either side lacks a stat, same as the training matrix.
func diffRow(a, b *models.LatestPlayerSnapshot, surface models.Surface) *models.FeatureRow {
	eloA, eloB := a.Elo, b.Elo
	return &models.FeatureRow{
		Surface:        surface,
		RankDiff:       diff(b.CurrentRank, a.CurrentRank),
		EloDiff:        diff(&eloA, &eloB),
		FormDiff:       diff(a.RollingWinPct, b.RollingWinPct),
		Last3WinDiff:   diff(a.Last3WinAvg, b.Last3WinAvg),
		SurfaceWinDiff: diff(a.SurfaceWinPctFor(surface), b.SurfaceWinPctFor(surface)),
		AceDiff:        diff(a.RollingAceAvg, b.RollingAceAvg),
		MinutesDiff:    diff(a.RollingMinutes, b.RollingMinutes),
		BPDiff:         diff(a.RollingBPSave, b.RollingBPSave),
	}
}

func displayStats(snap *models.LatestPlayerSnapshot, surface models.Surface) models.PlayerDisplayStats {
	return models.PlayerDisplayStats{
		Elo:           snap.Elo,
		SurfaceElo:    snap.SurfaceEloFor(surface),
		RollingWinPct: snap.RollingWinPct,
		Last3WinAvg:   snap.Last3WinAvg,
		SurfaceWinPct: snap.SurfaceWinPctFor(surface),
		RollingAceAvg: snap.RollingAceAvg,
		RollingMins:   snap.RollingMinutes,
		RollingBPSave: snap.RollingBPSave,
		CurrentRank:   snap.CurrentRank,
	}
}

func diff(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	out := *a - *b
	return &out
}

func clamp(p, lo, hi float64) float64 {
	if p < lo {
		return lo
	}
	if p > hi {
		return hi
	}
	return p
}
