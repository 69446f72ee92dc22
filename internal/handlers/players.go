package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

// ListPlayers returns every known player with current rating, for dropdowns
// @Summary List Players
// @Tags Players
// @Produce json
// @Success 200 {object} map[string][]models.PlayerListEntry
// @Router /players [get]
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	if !h.snapshots.Ready() {
		h.errorResponse(w, http.StatusServiceUnavailable, "Snapshot not loaded yet. Run the pipeline first.")
		return
	}

	snaps := h.snapshots.List()
	players := make([]models.PlayerListEntry, 0, len(snaps))
	for i := range snaps {
		players = append(players, models.PlayerListEntry{
			PlayerID: snaps[i].PlayerID,
			Name:     snaps[i].Name,
			Elo:      snaps[i].Elo,
			Matches:  snaps[i].MatchesPlayed,
		})
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"players": players})
}

// GetPlayerStats returns the latest snapshot for one player
// @Summary Get Player Stats
// @Tags Players
// @Produce json
// @Param playerId path string true "Player ID"
// @Success 200 {object} models.LatestPlayerSnapshot
// @Failure 404 {object} map[string]string "Not Found"
// @Router /players/{playerId} [get]
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerId")
	if playerID == "" {
		h.errorResponse(w, http.StatusBadRequest, "Player ID is required")
		return
	}
	if !h.snapshots.Ready() {
		h.errorResponse(w, http.StatusServiceUnavailable, "Snapshot not loaded yet. Run the pipeline first.")
		return
	}

	snap, ok := h.snapshots.Get(playerID)
	if !ok {
		h.errorResponse(w, http.StatusNotFound, "Insufficient data for this player")
		return
	}

	h.jsonResponse(w, http.StatusOK, snap)
}
