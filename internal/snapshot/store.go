// Package snapshot holds the latest-state view of every player: the terminal
// ratings and rolling aggregates a finished replay produced. Serving reads an
// immutable set through an atomic pointer; a pipeline rerun builds a fresh
// set and swaps the reference, so readers never observe a partial update.
package snapshot

import (
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

// ErrPlayerNotFound reports a prediction or lookup for a player the ledger
// has never seen. The serving layer turns this into an "insufficient data"
// response instead of silently defaulting to neutral ratings.
var ErrPlayerNotFound = errors.New("player not found in snapshot")

type snapshotSet struct {
	players map[string]models.LatestPlayerSnapshot
	builtAt time.Time
}

// Store is the atomically swappable snapshot set.
type Store struct {
	current atomic.Pointer[snapshotSet]
}

func NewStore() *Store {
	return &Store{}
}

// Swap replaces the entire snapshot set in one step.
func (s *Store) Swap(snaps []models.LatestPlayerSnapshot) {
	set := &snapshotSet{
		players: make(map[string]models.LatestPlayerSnapshot, len(snaps)),
		builtAt: time.Now().UTC(),
	}
	for _, snap := range snaps {
		set.players[snap.PlayerID] = snap
	}
	s.current.Store(set)
}

// Ready reports whether a snapshot set has been loaded yet.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// BuiltAt returns when the current set was swapped in, zero when none is.
func (s *Store) BuiltAt() time.Time {
	if set := s.current.Load(); set != nil {
		return set.builtAt
	}
	return time.Time{}
}

// Get returns one player's snapshot.
func (s *Store) Get(playerID string) (models.LatestPlayerSnapshot, bool) {
	set := s.current.Load()
	if set == nil {
		return models.LatestPlayerSnapshot{}, false
	}
	snap, ok := set.players[playerID]
	return snap, ok
}

// Count returns the number of players in the current set.
func (s *Store) Count() int {
	if set := s.current.Load(); set != nil {
		return len(set.players)
	}
	return 0
}

// List returns every player snapshot sorted by name (id as tie-break), the
// order the dashboard dropdown wants.
func (s *Store) List() []models.LatestPlayerSnapshot {
	set := s.current.Load()
	if set == nil {
		return nil
	}
	out := make([]models.LatestPlayerSnapshot, 0, len(set.players))
	for _, snap := range set.players {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}
