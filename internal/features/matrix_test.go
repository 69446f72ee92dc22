package features

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/breakpoint-analytics/tennis-api/internal/engine"
	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

func f64(v float64) *float64 { return &v }

func TestColsOrder(t *testing.T) {
	want := []string{
		"rank_diff", "elo_diff", "form_diff", "last3_win_diff",
		"surface_win_diff", "ace_diff", "minutes_diff", "bp_diff",
		"surface_Carpet", "surface_Grass", "surface_Hard",
	}
	got := Cols()
	if len(got) != len(want) {
		t.Fatalf("Cols() has %d columns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Cols()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Cols hands out a copy, not the shared backing array.
	got[0] = "mutated"
	if Cols()[0] != "rank_diff" {
		t.Error("mutating the returned slice leaked into the canonical ordering")
	}
}

func TestBuildMirroredRows(t *testing.T) {
	id := uuid.New()
	m := models.Match{
		ID:       id,
		Date:     time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		Surface:  models.SurfaceGrass,
		A:        models.MatchSide{PlayerID: "w", Rank: f64(10)},
		B:        models.MatchSide{PlayerID: "l", Rank: f64(40)},
		WinnerID: "w",
	}
	pre := engine.PreMatchFeatures{
		MatchID: id,
		Date:    m.Date,
		Surface: m.Surface,
		Winner: engine.PlayerFeatures{
			PlayerID: "w",
			Elo:      1550,
			Rank:     f64(10),
			Rolling:  engine.RollingFeatures{WinPct: f64(0.8)},
		},
		Loser: engine.PlayerFeatures{
			PlayerID: "l",
			Elo:      1480,
			Rank:     f64(40),
			Rolling:  engine.RollingFeatures{WinPct: f64(0.3)},
		},
	}

	rows, err := Build([]models.Match{m}, []engine.PreMatchFeatures{pre})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (one per perspective)", len(rows))
	}

	winner, loser := rows[0], rows[1]
	if winner.Label != 1 || loser.Label != 0 {
		t.Fatalf("labels = %v, %v; want 1, 0", winner.Label, loser.Label)
	}

	// rank_diff is opponent minus subject: the winner (rank 10) facing rank 40
	// gets +30, the mirror gets -30.
	if winner.RankDiff == nil || *winner.RankDiff != 30 {
		t.Errorf("winner rank_diff = %v, want 30", winner.RankDiff)
	}
	if loser.RankDiff == nil || *loser.RankDiff != -30 {
		t.Errorf("loser rank_diff = %v, want -30", loser.RankDiff)
	}

	// Every other diff is subject minus opponent, exactly mirrored.
	if winner.EloDiff == nil || *winner.EloDiff != 70 {
		t.Errorf("winner elo_diff = %v, want 70", winner.EloDiff)
	}
	if loser.EloDiff == nil || *loser.EloDiff != -70 {
		t.Errorf("loser elo_diff = %v, want -70", loser.EloDiff)
	}
	if winner.FormDiff == nil || *winner.FormDiff != 0.5 {
		t.Errorf("winner form_diff = %v, want 0.5", winner.FormDiff)
	}
}

func TestBuildNilPropagation(t *testing.T) {
	id := uuid.New()
	m := models.Match{
		ID:       id,
		Surface:  models.SurfaceHard,
		A:        models.MatchSide{PlayerID: "w"},
		B:        models.MatchSide{PlayerID: "l"},
		WinnerID: "w",
	}
	pre := engine.PreMatchFeatures{
		MatchID: id,
		Surface: m.Surface,
		Winner: engine.PlayerFeatures{
			PlayerID: "w",
			Elo:      1500,
			Rolling:  engine.RollingFeatures{WinPct: f64(0.6)},
		},
		Loser: engine.PlayerFeatures{PlayerID: "l", Elo: 1500},
	}

	rows, err := Build([]models.Match{m}, []engine.PreMatchFeatures{pre})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// One side has a win rate and the other does not: the difference is
	// undefined, never a half-computed number.
	if rows[0].FormDiff != nil {
		t.Errorf("form_diff with one-sided data = %v, want nil", *rows[0].FormDiff)
	}
	if rows[0].RankDiff != nil {
		t.Errorf("rank_diff with no ranks = %v, want nil", *rows[0].RankDiff)
	}

	// Imputation to zero happens only at vectorization.
	v := Vector(&rows[0])
	if v[0] != 0 || v[2] != 0 {
		t.Errorf("vector did not impute nil diffs to zero: %v", v)
	}
	if v[1] != 0 {
		t.Errorf("elo_diff of equal ratings = %v, want 0", v[1])
	}
}

func TestBuildMisaligned(t *testing.T) {
	m := models.Match{
		ID:       uuid.New(),
		Surface:  models.SurfaceHard,
		A:        models.MatchSide{PlayerID: "w"},
		B:        models.MatchSide{PlayerID: "l"},
		WinnerID: "w",
	}

	if _, err := Build([]models.Match{m}, nil); err == nil {
		t.Error("length mismatch should fail")
	}

	pre := engine.PreMatchFeatures{MatchID: uuid.New()}
	if _, err := Build([]models.Match{m}, []engine.PreMatchFeatures{pre}); err == nil {
		t.Error("match ID mismatch should fail")
	}
}

func TestVectorSurfaceEncoding(t *testing.T) {
	tests := []struct {
		surface models.Surface
		want    [3]float64 // carpet, grass, hard
	}{
		{models.SurfaceCarpet, [3]float64{1, 0, 0}},
		{models.SurfaceGrass, [3]float64{0, 1, 0}},
		{models.SurfaceHard, [3]float64{0, 0, 1}},
		{models.SurfaceClay, [3]float64{0, 0, 0}},
		{models.SurfaceUnknown, [3]float64{0, 0, 0}},
	}
	for _, tt := range tests {
		r := models.FeatureRow{Surface: tt.surface}
		v := Vector(&r)
		if len(v) != len(Cols()) {
			t.Fatalf("vector length %d != %d columns", len(v), len(Cols()))
		}
		got := [3]float64{v[8], v[9], v[10]}
		if got != tt.want {
			t.Errorf("surface %s encoded as %v, want %v", tt.surface, got, tt.want)
		}
	}
}
