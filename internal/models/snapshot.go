package models

import "time"

// LatestPlayerSnapshot is the terminal state of a player after the full ledger
// has been replayed: current ratings plus whatever rolling aggregates the final
// trailing windows support. This is what the live prediction path and the
// dashboard read; it carries no per-match "before" semantics.
//
// Rolling fields are nil when the player has too little history for the stat,
// which downstream consumers must keep distinct from a true zero.
type LatestPlayerSnapshot struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`

	Elo            float64             `json:"elo"`
	SurfaceElo     map[Surface]float64 `json:"surface_elo"`
	RollingWinPct  *float64            `json:"rolling_win_pct,omitempty"`
	Last3WinAvg    *float64            `json:"last3_win_avg,omitempty"`
	SurfaceWinPct  map[Surface]float64 `json:"surface_win_pct,omitempty"`
	RollingAceAvg  *float64            `json:"rolling_ace_avg,omitempty"`
	RollingMinutes *float64            `json:"rolling_minutes_avg,omitempty"`
	RollingBPSave  *float64            `json:"rolling_bp_save,omitempty"`
	CurrentRank    *float64            `json:"current_rank,omitempty"`

	// Last5 holds the player's five most recent results, newest first
	// (1 = win, 0 = loss). Shorter than five for new players.
	Last5 []int `json:"last5"`

	MatchesPlayed int       `json:"matches_played"`
	LastMatchDate time.Time `json:"last_match_date"`
}

// SurfaceWinPctFor returns the rolling surface win rate for one surface, nil
// when the player is below the minimum-match threshold there.
func (s *LatestPlayerSnapshot) SurfaceWinPctFor(surface Surface) *float64 {
	if v, ok := s.SurfaceWinPct[surface]; ok {
		out := v
		return &out
	}
	return nil
}

// SurfaceEloFor returns the surface-specific rating, falling back to the
// global rating when the player has never appeared on that surface.
func (s *LatestPlayerSnapshot) SurfaceEloFor(surface Surface) float64 {
	if v, ok := s.SurfaceElo[surface]; ok {
		return v
	}
	return s.Elo
}
