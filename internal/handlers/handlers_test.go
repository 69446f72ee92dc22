package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
	"github.com/breakpoint-analytics/tennis-api/internal/snapshot"
)

type fakeSnapshots struct {
	players map[string]models.LatestPlayerSnapshot
	builtAt time.Time
}

func (f *fakeSnapshots) Get(playerID string) (models.LatestPlayerSnapshot, bool) {
	snap, ok := f.players[playerID]
	return snap, ok
}

func (f *fakeSnapshots) List() []models.LatestPlayerSnapshot {
	out := make([]models.LatestPlayerSnapshot, 0, len(f.players))
	for _, snap := range f.players {
		out = append(out, snap)
	}
	return out
}

func (f *fakeSnapshots) Ready() bool        { return f.players != nil }
func (f *fakeSnapshots) BuiltAt() time.Time { return f.builtAt }

type fakePredictor struct {
	resp *models.PredictionResponse
	err  error
}

func (f *fakePredictor) Predict(ctx context.Context, a, b string, surface models.Surface) (*models.PredictionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	resp := *f.resp
	resp.Surface = surface
	return &resp, nil
}

func newTestHandler(snaps *fakeSnapshots, pred Predictor) *Handler {
	return New(Config{
		Logger:    zap.NewNop(),
		Predictor: pred,
		Snapshots: snaps,
	})
}

func readySnapshots() *fakeSnapshots {
	return &fakeSnapshots{
		players: map[string]models.LatestPlayerSnapshot{
			"1": {PlayerID: "1", Name: "Alice", Elo: 1620, MatchesPlayed: 40},
			"2": {PlayerID: "2", Name: "Bob", Elo: 1480, MatchesPlayed: 12},
		},
		builtAt: time.Now(),
	}
}

func TestPredictOK(t *testing.T) {
	h := newTestHandler(readySnapshots(), &fakePredictor{
		resp: &models.PredictionResponse{ProbAWins: 0.72, ProbBWins: 0.28},
	})

	body := `{"player_a":"1","player_b":"2","surface":"Clay"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Predict(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp models.PredictionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ProbAWins != 0.72 || resp.ProbBWins != 0.28 {
		t.Errorf("probabilities = %v / %v", resp.ProbAWins, resp.ProbBWins)
	}
	if resp.Surface != models.SurfaceClay {
		t.Errorf("surface = %v, want Clay", resp.Surface)
	}
}

func TestPredictDefaultsToHard(t *testing.T) {
	h := newTestHandler(readySnapshots(), &fakePredictor{
		resp: &models.PredictionResponse{ProbAWins: 0.5, ProbBWins: 0.5},
	})

	body := `{"player_a":"1","player_b":"2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Predict(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp models.PredictionResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Surface != models.SurfaceHard {
		t.Errorf("omitted surface resolved to %v, want Hard", resp.Surface)
	}
}

func TestPredictBadRequests(t *testing.T) {
	h := newTestHandler(readySnapshots(), &fakePredictor{
		resp: &models.PredictionResponse{},
	})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"player_a":`},
		{"missing player_b", `{"player_a":"1"}`},
		{"same players", `{"player_a":"1","player_b":"1"}`},
		{"bad surface", `{"player_a":"1","player_b":"2","surface":"Moon"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.Predict(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestPredictUnknownPlayer(t *testing.T) {
	h := newTestHandler(readySnapshots(), &fakePredictor{
		err: fmt.Errorf("player ghost: %w", snapshot.ErrPlayerNotFound),
	})

	body := `{"player_a":"1","player_b":"ghost"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Predict(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body %s", w.Code, w.Body.String())
	}
}

func TestPredictNotReady(t *testing.T) {
	// No snapshot set loaded yet.
	h := newTestHandler(&fakeSnapshots{}, &fakePredictor{resp: &models.PredictionResponse{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(`{"player_a":"1","player_b":"2"}`))
	w := httptest.NewRecorder()
	h.Predict(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}

	// Snapshots loaded but no model artifact.
	h = newTestHandler(readySnapshots(), nil)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(`{"player_a":"1","player_b":"2"}`))
	w = httptest.NewRecorder()
	h.Predict(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status without model = %d, want 503", w.Code)
	}
}

func TestListPlayers(t *testing.T) {
	h := newTestHandler(readySnapshots(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/players", nil)
	w := httptest.NewRecorder()
	h.ListPlayers(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Players []models.PlayerListEntry `json:"players"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Players) != 2 {
		t.Errorf("got %d players, want 2", len(resp.Players))
	}
}

func TestListPlayersNotReady(t *testing.T) {
	h := newTestHandler(&fakeSnapshots{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/players", nil)
	w := httptest.NewRecorder()
	h.ListPlayers(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestGetPlayerStats(t *testing.T) {
	h := newTestHandler(readySnapshots(), nil)
	r := chi.NewRouter()
	r.Get("/api/v1/players/{playerId}", h.GetPlayerStats)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/players/1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var snap models.LatestPlayerSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if snap.Name != "Alice" || snap.Elo != 1620 {
		t.Errorf("snapshot = %+v", snap)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/players/999", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown player status = %d, want 404", w.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(readySnapshots(), nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.Health(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestReady(t *testing.T) {
	h := newTestHandler(readySnapshots(), nil)
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	h.Ready(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	h = newTestHandler(&fakeSnapshots{}, nil)
	w = httptest.NewRecorder()
	h.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status without snapshots = %d, want 503", w.Code)
	}
}
