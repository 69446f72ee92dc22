package engine

import (
	"math"
	"time"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

// EloOptions configures the rating book. Zero values are replaced with the
// standard constants in NewRatingBook.
type EloOptions struct {
	InitialRating float64
	KDefault      float64
	KGrandSlam    float64
	KSmall        float64

	// DecayRef, when non-zero, enables time-decay weighting: the effective
	// K of a match is scaled by exp(-daysBefore(DecayRef)/DecayDays). Used
	// only for historical rating reconstruction against a fixed evaluation
	// date; the normal same-pass replay leaves it disabled.
	DecayRef  time.Time
	DecayDays float64
}

func (o EloOptions) withDefaults() EloOptions {
	if o.InitialRating == 0 {
		o.InitialRating = 1500
	}
	if o.KDefault == 0 {
		o.KDefault = 32
	}
	if o.KGrandSlam == 0 {
		o.KGrandSlam = 48
	}
	if o.KSmall == 0 {
		o.KSmall = 24
	}
	if o.DecayDays == 0 {
		o.DecayDays = 365
	}
	return o
}

// RatingBook holds the current global and per-surface Elo rating of every
// player seen so far. Not safe for concurrent use; the replay owns it and
// mutates it strictly in ledger order.
type RatingBook struct {
	opts    EloOptions
	global  map[string]float64
	surface map[string]map[models.Surface]float64
}

func NewRatingBook(opts EloOptions) *RatingBook {
	return &RatingBook{
		opts:    opts.withDefaults(),
		global:  make(map[string]float64),
		surface: make(map[string]map[models.Surface]float64),
	}
}

// Rating returns the player's current global rating. Players never seen
// before read as the initial rating; lookups do not mutate the book.
func (b *RatingBook) Rating(playerID string) float64 {
	if r, ok := b.global[playerID]; ok {
		return r
	}
	return b.opts.InitialRating
}

// SurfaceRating returns the player's current rating on one surface, seeded
// from the initial rating the first time the player appears there.
func (b *RatingBook) SurfaceRating(playerID string, s models.Surface) float64 {
	if m, ok := b.surface[playerID]; ok {
		if r, ok := m[s]; ok {
			return r
		}
	}
	return b.opts.InitialRating
}

// SurfaceRatings returns a copy of the player's per-surface ratings.
func (b *RatingBook) SurfaceRatings(playerID string) map[models.Surface]float64 {
	out := make(map[models.Surface]float64, len(b.surface[playerID]))
	for s, r := range b.surface[playerID] {
		out[s] = r
	}
	return out
}

// ExpectedScore is the logistic Elo expectation for a player rated ra against
// an opponent rated rb. Exactly 0.5 when the ratings are equal.
func ExpectedScore(ra, rb float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rb-ra)/400.0))
}

// kFactor maps a tournament tier code to its K. Unknown or malformed tiers
// fall back to the default rather than failing.
func (b *RatingBook) kFactor(tier string) float64 {
	switch tier {
	case "G": // Grand Slam
		return b.opts.KGrandSlam
	case "250", "A", "C", "D", "F": // smaller tours, challengers, qualifiers
		return b.opts.KSmall
	default: // Masters, 500s, anything unrecognized
		return b.opts.KDefault
	}
}

func (b *RatingBook) decayWeight(matchDate time.Time) float64 {
	if b.opts.DecayRef.IsZero() {
		return 1.0
	}
	days := b.opts.DecayRef.Sub(matchDate).Hours() / 24
	if days <= 0 {
		return 1.0
	}
	return math.Exp(-days / b.opts.DecayDays)
}

// Apply updates both players' global and surface ratings for a completed
// match. Pre-match ratings must already have been read out; Apply is the
// post-match mutation and must be called exactly once per match, in ledger
// order.
func (b *RatingBook) Apply(m *models.Match) {
	winner := m.Winner().PlayerID
	loser := m.Loser().PlayerID
	k := b.kFactor(m.Tier) * b.decayWeight(m.Date)

	rw := b.Rating(winner)
	rl := b.Rating(loser)
	delta := k * (1.0 - ExpectedScore(rw, rl))
	b.global[winner] = rw + delta
	b.global[loser] = rl - delta

	if m.Surface == models.SurfaceUnknown {
		return
	}
	sw := b.SurfaceRating(winner, m.Surface)
	sl := b.SurfaceRating(loser, m.Surface)
	sDelta := k * (1.0 - ExpectedScore(sw, sl))
	b.setSurface(winner, m.Surface, sw+sDelta)
	b.setSurface(loser, m.Surface, sl-sDelta)
}

func (b *RatingBook) setSurface(playerID string, s models.Surface, r float64) {
	m, ok := b.surface[playerID]
	if !ok {
		m = make(map[models.Surface]float64, len(models.Surfaces))
		b.surface[playerID] = m
	}
	m[s] = r
}
