package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

// ParseCSV reads matches from a Sackmann-format ATP results CSV. Rows with a
// missing participant id or an unparseable date are dropped (the ledger
// contract excludes them), everything else is kept as-is; normalization and
// ordering happen later in Normalize.
func ParseCSV(r io.Reader, logger *zap.SugaredLogger) ([]models.Match, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"tourney_date", "winner_id", "loser_id"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("csv missing required column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var matches []models.Match
	dropped := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		winnerID := field(rec, "winner_id")
		loserID := field(rec, "loser_id")
		rawDate := field(rec, "tourney_date")
		date, dateErr := time.Parse("20060102", rawDate)
		if winnerID == "" || loserID == "" || dateErr != nil {
			dropped++
			continue
		}

		minutes := parseFloat(field(rec, "minutes"))
		m := models.Match{
			ID: models.DeterministicMatchID(
				field(rec, "tourney_id"), field(rec, "match_num"),
				rawDate, winnerID, loserID,
			),
			Date:    date,
			Surface: models.ParseSurface(field(rec, "surface")),
			Tier:    field(rec, "tourney_level"),
			A: models.MatchSide{
				PlayerID: winnerID,
				Name:     field(rec, "winner_name"),
				Rank:     parseFloat(field(rec, "winner_rank")),
				Aces:     parseFloat(field(rec, "w_ace")),
				BPSaved:  parseFloat(field(rec, "w_bpSaved")),
				BPFaced:  parseFloat(field(rec, "w_bpFaced")),
			},
			B: models.MatchSide{
				PlayerID: loserID,
				Name:     field(rec, "loser_name"),
				Rank:     parseFloat(field(rec, "loser_rank")),
				Aces:     parseFloat(field(rec, "l_ace")),
				BPSaved:  parseFloat(field(rec, "l_bpSaved")),
				BPFaced:  parseFloat(field(rec, "l_bpFaced")),
			},
			WinnerID: winnerID,
			Minutes:  minutes,
		}
		matches = append(matches, m)
	}

	if dropped > 0 {
		logger.Warnw("Dropped rows with missing identity or date", "dropped", dropped, "kept", len(matches))
	}
	return matches, nil
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
