package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
	"github.com/breakpoint-analytics/tennis-api/internal/snapshot"
)

// Predict returns win probabilities and comparative stats for two players
// @Summary Predict Match Outcome
// @Tags Predictions
// @Accept json
// @Produce json
// @Param request body models.PredictRequest true "Players and surface"
// @Success 200 {object} models.PredictionResponse
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "Player Not Found"
// @Router /predict [post]
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if h.predictor == nil || !h.snapshots.Ready() {
		h.errorResponse(w, http.StatusServiceUnavailable, "Model not ready. Run the pipeline first.")
		return
	}

	var req models.PredictRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "player_a and player_b are required and must differ; surface must be Hard, Clay, Grass or Carpet")
		return
	}

	surface := models.ParseSurface(req.Surface)
	if req.Surface == "" {
		surface = models.SurfaceHard
	}

	ctx := r.Context()
	cacheKey := "prediction:" + req.PlayerA + ":" + req.PlayerB + ":" + string(surface)
	if h.redis != nil {
		if cached, err := h.redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp models.PredictionResponse
			if json.Unmarshal(cached, &resp) == nil {
				h.jsonResponse(w, http.StatusOK, &resp)
				return
			}
		}
	}

	resp, err := h.predictor.Predict(ctx, req.PlayerA, req.PlayerB, surface)
	if err != nil {
		if errors.Is(err, snapshot.ErrPlayerNotFound) {
			h.errorResponse(w, http.StatusNotFound, "Insufficient data for one of the players")
			return
		}
		h.logger.Errorw("Prediction failed", "error", err, "playerA", req.PlayerA, "playerB", req.PlayerB)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to compute prediction")
		return
	}

	if h.redis != nil {
		go h.cachePrediction(cacheKey, resp)
	}
	h.jsonResponse(w, http.StatusOK, resp)
}

func (h *Handler) cachePrediction(key string, resp *models.PredictionResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, key, data, h.cacheTTL).Err(); err != nil {
		h.logger.Warnw("Failed to cache prediction", "error", err, "key", key)
	}
}
