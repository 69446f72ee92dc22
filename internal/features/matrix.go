// Package features turns per-match point-in-time state into the numeric
// matrix the classifier trains on, and builds the identically shaped vector
// at inference time. Column ordering is a cross-process contract between
// training and serving: any change invalidates saved model artifacts.
package features

import (
	"fmt"

	"github.com/breakpoint-analytics/tennis-api/internal/engine"
	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

// featureCols is the canonical column ordering. Clay is the one-hot reference
// level (alphabetically first among known surfaces); Unknown encodes as all
// zeros and is indistinguishable from the reference, which matches how the
// training data treats it.
var featureCols = []string{
	"rank_diff",
	"elo_diff",
	"form_diff",
	"last3_win_diff",
	"surface_win_diff",
	"ace_diff",
	"minutes_diff",
	"bp_diff",
	"surface_Carpet",
	"surface_Grass",
	"surface_Hard",
}

// Cols returns a copy of the canonical feature column ordering.
func Cols() []string {
	out := make([]string, len(featureCols))
	copy(out, featureCols)
	return out
}

// Build joins the ledger with the replay's pre-match features into the
// training matrix: two mirrored rows per match, winner perspective labeled 1
// and loser perspective labeled 0. The two inputs must be index-aligned,
// which Replay guarantees.
func Build(matches []models.Match, pre []engine.PreMatchFeatures) ([]models.FeatureRow, error) {
	if len(matches) != len(pre) {
		return nil, fmt.Errorf("feature build: %d matches but %d pre-match feature sets", len(matches), len(pre))
	}

	rows := make([]models.FeatureRow, 0, 2*len(matches))
	for i := range matches {
		m := &matches[i]
		p := &pre[i]
		if m.ID != p.MatchID {
			return nil, fmt.Errorf("feature build: match %s misaligned with features for %s at position %d", m.ID, p.MatchID, i)
		}
		rows = append(rows,
			row(m, p.Winner, p.Loser, 1),
			row(m, p.Loser, p.Winner, 0),
		)
	}
	return rows, nil
}

// row builds one perspective. All numeric fields are subject minus opponent,
// except rank where the sign flips (a higher-ranked opponent has a larger
// rank number, so opponent-minus-subject keeps "positive means subject is
// stronger" consistent across every column).
func row(m *models.Match, subject, opponent engine.PlayerFeatures, label float64) models.FeatureRow {
	return models.FeatureRow{
		MatchID: m.ID,
		Date:    m.Date,
		Surface: m.Surface,
		Label:   label,

		RankDiff:       diff(opponent.Rank, subject.Rank),
		EloDiff:        diff(&subject.Elo, &opponent.Elo),
		FormDiff:       diff(subject.Rolling.WinPct, opponent.Rolling.WinPct),
		Last3WinDiff:   diff(subject.Rolling.Last3WinAvg, opponent.Rolling.Last3WinAvg),
		SurfaceWinDiff: diff(subject.Rolling.SurfaceWinPct, opponent.Rolling.SurfaceWinPct),
		AceDiff:        diff(subject.Rolling.AceAvg, opponent.Rolling.AceAvg),
		MinutesDiff:    diff(subject.Rolling.MinutesAvg, opponent.Rolling.MinutesAvg),
		BPDiff:         diff(subject.Rolling.BPSavePct, opponent.Rolling.BPSavePct),
	}
}

// diff subtracts b from a, propagating nil when either side has no data.
// Imputation to zero happens only in Vector, after differencing, so a
// one-sided stat never leaks a half-computed difference into the matrix.
func diff(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	out := *a - *b
	return &out
}

// Vector encodes a feature row as numbers in the canonical column order,
// imputing nil differences to zero and one-hot encoding the surface.
func Vector(r *models.FeatureRow) []float64 {
	v := make([]float64, 0, len(featureCols))
	v = append(v,
		impute(r.RankDiff),
		impute(r.EloDiff),
		impute(r.FormDiff),
		impute(r.Last3WinDiff),
		impute(r.SurfaceWinDiff),
		impute(r.AceDiff),
		impute(r.MinutesDiff),
		impute(r.BPDiff),
		oneHot(r.Surface, models.SurfaceCarpet),
		oneHot(r.Surface, models.SurfaceGrass),
		oneHot(r.Surface, models.SurfaceHard),
	)
	return v
}

func impute(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func oneHot(s, target models.Surface) float64 {
	if s == target {
		return 1
	}
	return 0
}
