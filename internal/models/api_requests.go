package models

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	PlayerA string `json:"player_a" validate:"required"`
	PlayerB string `json:"player_b" validate:"required,nefield=PlayerA"`
	Surface string `json:"surface" validate:"omitempty,oneof=Hard Clay Grass Carpet hard clay grass carpet"`
}

// PlayerDisplayStats is the subset of a snapshot shown next to a prediction.
type PlayerDisplayStats struct {
	Elo           float64  `json:"elo"`
	SurfaceElo    float64  `json:"surface_elo"`
	RollingWinPct *float64 `json:"rolling_win_pct"`
	Last3WinAvg   *float64 `json:"last3_win_avg"`
	SurfaceWinPct *float64 `json:"surface_win_pct"`
	RollingAceAvg *float64 `json:"rolling_ace_avg"`
	RollingMins   *float64 `json:"rolling_minutes_avg"`
	RollingBPSave *float64 `json:"rolling_bp_save"`
	CurrentRank   *float64 `json:"current_rank"`
}

// PredictionResponse is the body returned by POST /predict.
type PredictionResponse struct {
	ProbAWins float64            `json:"prob_a_wins"`
	ProbBWins float64            `json:"prob_b_wins"`
	Surface   Surface            `json:"surface"`
	StatsA    PlayerDisplayStats `json:"stats_a"`
	StatsB    PlayerDisplayStats `json:"stats_b"`
	Last5A    []int              `json:"last5_a"`
	Last5B    []int              `json:"last5_b"`
}

// PlayerListEntry is one row of GET /players, enough for autocomplete.
type PlayerListEntry struct {
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	Elo      float64 `json:"elo"`
	Matches  int     `json:"matches_played"`
}
