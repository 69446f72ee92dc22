// Package ledger builds and persists the ordered, deduplicated collection of
// completed matches that every downstream stage derives from. The ledger is
// rebuilt from scratch on each pipeline run; there is no incremental append.
package ledger

import (
	"fmt"
	"sort"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

// Normalize validates, deduplicates and orders raw matches into the ledger
// form the engines require: ascending by date, ties broken deterministically
// by match ID so repeated runs replay in the same order, Seq assigned from
// the final position.
//
// Duplicate IDs keep the first occurrence. An invalid match (missing
// identity, winner not a participant) is a contract violation from the
// ingestion side and fails the whole run.
func Normalize(matches []models.Match) ([]models.Match, error) {
	seen := make(map[string]struct{}, len(matches))
	out := make([]models.Match, 0, len(matches))
	for i := range matches {
		m := matches[i]
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("normalize: %w", err)
		}
		key := m.ID.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	for i := range out {
		out[i].Seq = i
	}
	return out, nil
}
