package engine

import (
	"context"
	"testing"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

func TestBuildSnapshots(t *testing.T) {
	matches := []models.Match{
		testMatch(1, "a", "b", models.SurfaceHard, "G"),
		testMatch(2, "a", "c", models.SurfaceClay, ""),
		testMatch(3, "c", "b", models.SurfaceClay, ""),
		testMatch(4, "a", "b", models.SurfaceClay, ""),
	}
	res, err := Replay(matches, Options{
		Rolling: RollingOptions{MinSurfaceMatches: 2},
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	snaps, err := BuildSnapshots(context.Background(), res)
	if err != nil {
		t.Fatalf("BuildSnapshots: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snaps))
	}

	byID := make(map[string]models.LatestPlayerSnapshot, len(snaps))
	for _, s := range snaps {
		byID[s.PlayerID] = s
	}

	a := byID["a"]
	if a.MatchesPlayed != 3 {
		t.Errorf("a played %d, want 3", a.MatchesPlayed)
	}
	if a.Elo != res.Ratings.Rating("a") {
		t.Errorf("a snapshot Elo %v != book %v", a.Elo, res.Ratings.Rating("a"))
	}
	if a.RollingWinPct == nil || *a.RollingWinPct != 1 {
		t.Errorf("a rolling win rate = %v, want 1", a.RollingWinPct)
	}
	// Two clay matches meet the lowered threshold.
	if v, ok := a.SurfaceWinPct[models.SurfaceClay]; !ok || v != 1 {
		t.Errorf("a clay win rate = %v (present=%v), want 1", v, ok)
	}
	// Only one hard-court match: below the threshold.
	if _, ok := a.SurfaceWinPct[models.SurfaceHard]; ok {
		t.Error("a hard-court win rate should be absent below the threshold")
	}
	if _, ok := a.SurfaceElo[models.SurfaceClay]; !ok {
		t.Error("a clay rating missing from snapshot")
	}
	if len(a.Last5) != 3 || a.Last5[0] != 1 {
		t.Errorf("a Last5 = %v", a.Last5)
	}
	if a.LastMatchDate != matches[3].Date {
		t.Errorf("a last match date = %v, want %v", a.LastMatchDate, matches[3].Date)
	}

	b := byID["b"]
	if b.RollingWinPct == nil || *b.RollingWinPct != 0 {
		t.Errorf("b rolling win rate = %v, want a true 0", b.RollingWinPct)
	}
	if b.RollingAceAvg != nil {
		t.Errorf("b ace average = %v, want nil without box scores", b.RollingAceAvg)
	}
}

func TestBuildSnapshotsEmpty(t *testing.T) {
	res, err := Replay(nil, Options{})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	snaps, err := BuildSnapshots(context.Background(), res)
	if err != nil {
		t.Fatalf("BuildSnapshots: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("got %d snapshots from an empty replay, want 0", len(snaps))
	}
}
