package models

import (
	"time"

	"github.com/google/uuid"
)

// FeatureRow is one training example: the difference (subject minus opponent)
// of every point-in-time feature, plus the match surface and the outcome label.
// Each ledger match produces two mirrored rows, one per participant.
//
// Diff fields are nil when either side lacked the underlying stat; imputation
// to zero happens only when the row is turned into a numeric vector.
type FeatureRow struct {
	MatchID uuid.UUID `json:"match_id"`
	Date    time.Time `json:"date"`
	Surface Surface   `json:"surface"`
	Label   float64   `json:"label"` // 1 = subject won, 0 = subject lost

	RankDiff       *float64 `json:"rank_diff,omitempty"` // opponent rank - subject rank
	EloDiff        *float64 `json:"elo_diff,omitempty"`
	FormDiff       *float64 `json:"form_diff,omitempty"`
	Last3WinDiff   *float64 `json:"last3_win_diff,omitempty"`
	SurfaceWinDiff *float64 `json:"surface_win_diff,omitempty"`
	AceDiff        *float64 `json:"ace_diff,omitempty"`
	MinutesDiff    *float64 `json:"minutes_diff,omitempty"`
	BPDiff         *float64 `json:"bp_diff,omitempty"`
}
