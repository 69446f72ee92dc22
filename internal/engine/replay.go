// Package engine implements the point-in-time feature and rating pipeline:
// a single chronological fold over the match ledger that, for every match,
// records the state of knowledge available strictly before it (Elo ratings,
// trailing-window statistics) and only then updates that state. Nothing in
// this package may read a value influenced by the match being processed or
// any later match; that invariant is what keeps offline training honest and
// the live prediction path consistent with it.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

var (
	matchesReplayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tennis_matches_replayed_total",
		Help: "Total number of ledger matches folded through the engines",
	})

	replayDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tennis_replay_duration_seconds",
		Help:    "Duration of full ledger replays",
		Buckets: prometheus.DefBuckets,
	})
)

// Options bundles the knobs of both engines sharing the replay.
type Options struct {
	Elo     EloOptions
	Rolling RollingOptions
}

// PlayerFeatures is one participant's pre-match state.
type PlayerFeatures struct {
	PlayerID   string
	Elo        float64
	SurfaceElo float64
	Rank       *float64
	Rolling    RollingFeatures
}

// PreMatchFeatures is the point-in-time feature set for one ledger match:
// both participants' ratings and rolling statistics as they stood before the
// match was played.
type PreMatchFeatures struct {
	MatchID uuid.UUID
	Date    time.Time
	Surface models.Surface
	Winner  PlayerFeatures
	Loser   PlayerFeatures
}

// Result is the output of one full ledger replay: per-match pre-match
// features (index-aligned with the input) plus the terminal per-player state.
type Result struct {
	Features []PreMatchFeatures
	Ratings  *RatingBook
	Rolling  map[string]*RollingState
}

// Replay folds the ledger through the rating and rolling engines in one
// chronological pass. The input must be sorted ascending by date (ties broken
// by stable ingestion order); a date moving backwards fails with
// ErrChronologyViolation. First sight of a player silently initializes state.
//
// The fold is deliberately single-threaded: two matches for the same player
// must never be processed out of order or concurrently.
func Replay(matches []models.Match, opts Options) (*Result, error) {
	start := time.Now()
	opts.Rolling = opts.Rolling.withDefaults()

	res := &Result{
		Features: make([]PreMatchFeatures, 0, len(matches)),
		Ratings:  NewRatingBook(opts.Elo),
		Rolling:  make(map[string]*RollingState),
	}

	var lastDate time.Time
	for i := range matches {
		m := &matches[i]
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("replay at position %d: %w", i, err)
		}
		if m.Date.Before(lastDate) {
			return nil, fmt.Errorf("%w: match %s dated %s after %s",
				ErrChronologyViolation, m.ID, m.Date.Format("2006-01-02"), lastDate.Format("2006-01-02"))
		}
		lastDate = m.Date

		winner, loser := m.Winner(), m.Loser()
		wState := res.rollingFor(winner.PlayerID, opts.Rolling)
		lState := res.rollingFor(loser.PlayerID, opts.Rolling)

		// Record pre-match state first; these are the only values the
		// feature matrix may ever see for this match.
		res.Features = append(res.Features, PreMatchFeatures{
			MatchID: m.ID,
			Date:    m.Date,
			Surface: m.Surface,
			Winner: PlayerFeatures{
				PlayerID:   winner.PlayerID,
				Elo:        res.Ratings.Rating(winner.PlayerID),
				SurfaceElo: res.Ratings.SurfaceRating(winner.PlayerID, m.Surface),
				Rank:       winner.Rank,
				Rolling:    wState.Features(m.Surface),
			},
			Loser: PlayerFeatures{
				PlayerID:   loser.PlayerID,
				Elo:        res.Ratings.Rating(loser.PlayerID),
				SurfaceElo: res.Ratings.SurfaceRating(loser.PlayerID, m.Surface),
				Rank:       loser.Rank,
				Rolling:    lState.Features(m.Surface),
			},
		})

		// Post-match state mutation, exactly once per match.
		res.Ratings.Apply(m)
		wState.Update(m, winner, true)
		lState.Update(m, loser, false)

		matchesReplayed.Inc()
	}

	replayDuration.Observe(time.Since(start).Seconds())
	return res, nil
}

func (r *Result) rollingFor(playerID string, opts RollingOptions) *RollingState {
	s, ok := r.Rolling[playerID]
	if !ok {
		s = newRollingState(playerID, opts)
		r.Rolling[playerID] = s
	}
	return s
}
