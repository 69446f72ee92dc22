package engine

import (
	"time"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

// RollingOptions configures the trailing windows.
type RollingOptions struct {
	Window            int // trailing matches kept per stat (default 10)
	Last3Window       int // short-form window (default 3)
	MinSurfaceMatches int // below this, surface win rate reads as nil (default 3)
}

func (o RollingOptions) withDefaults() RollingOptions {
	if o.Window == 0 {
		o.Window = 10
	}
	if o.Last3Window == 0 {
		o.Last3Window = 3
	}
	if o.MinSurfaceMatches == 0 {
		o.MinSurfaceMatches = 3
	}
	return o
}

// window is a bounded trailing sequence: pushing beyond capacity evicts the
// oldest value, so aggregates never rescan full history.
type window struct {
	vals []float64
	cap  int
}

func newWindow(cap int) *window {
	return &window{cap: cap}
}

func (w *window) push(v float64) {
	w.vals = append(w.vals, v)
	if len(w.vals) > w.cap {
		w.vals = w.vals[1:]
	}
}

func (w *window) size() int { return len(w.vals) }

// mean returns the trailing mean, nil when the window is empty. The nil
// keeps "no data" distinguishable from a true zero downstream.
func (w *window) mean() *float64 {
	return w.tailMean(len(w.vals))
}

// tailMean averages the most recent n values (all of them if fewer exist).
func (w *window) tailMean(n int) *float64 {
	if len(w.vals) == 0 || n <= 0 {
		return nil
	}
	if n > len(w.vals) {
		n = len(w.vals)
	}
	var sum float64
	for _, v := range w.vals[len(w.vals)-n:] {
		sum += v
	}
	out := sum / float64(n)
	return &out
}

// tail returns up to the n most recent values, newest first.
func (w *window) tail(n int) []float64 {
	if n > len(w.vals) {
		n = len(w.vals)
	}
	out := make([]float64, 0, n)
	for i := len(w.vals) - 1; i >= len(w.vals)-n; i-- {
		out = append(out, w.vals[i])
	}
	return out
}

// RollingFeatures is the pre-match view of one player's trailing windows.
type RollingFeatures struct {
	WinPct        *float64
	Last3WinAvg   *float64
	SurfaceWinPct *float64
	AceAvg        *float64
	MinutesAvg    *float64
	BPSavePct     *float64
}

// RollingState is one player's bounded trailing history. Created lazily on the
// player's first match and mutated once per match, in ledger order.
type RollingState struct {
	opts RollingOptions

	playerID string
	name     string

	outcomes *window
	surface  map[models.Surface]*window
	aces     *window
	minutes  *window
	bpSave   *window

	lastRank      *float64
	lastMatchDate time.Time
	played        int
}

func newRollingState(playerID string, opts RollingOptions) *RollingState {
	return &RollingState{
		opts:     opts,
		playerID: playerID,
		outcomes: newWindow(opts.Window),
		surface:  make(map[models.Surface]*window),
		aces:     newWindow(opts.Window),
		minutes:  newWindow(opts.Window),
		bpSave:   newWindow(opts.Window),
	}
}

// Features emits the rolling aggregates computable from matches strictly
// before the current one. Call before Update.
func (s *RollingState) Features(surface models.Surface) RollingFeatures {
	f := RollingFeatures{
		WinPct:      s.outcomes.mean(),
		Last3WinAvg: s.outcomes.tailMean(s.opts.Last3Window),
		AceAvg:      s.aces.mean(),
		MinutesAvg:  s.minutes.mean(),
		BPSavePct:   s.bpSave.mean(),
	}
	if sw, ok := s.surface[surface]; ok && sw.size() >= s.opts.MinSurfaceMatches {
		f.SurfaceWinPct = sw.mean()
	}
	return f
}

// SurfaceWinPcts returns the current surface win rates for every surface
// meeting the minimum-match threshold.
func (s *RollingState) SurfaceWinPcts() map[models.Surface]float64 {
	out := make(map[models.Surface]float64)
	for surf, w := range s.surface {
		if w.size() >= s.opts.MinSurfaceMatches {
			if m := w.mean(); m != nil {
				out[surf] = *m
			}
		}
	}
	return out
}

// Last5 returns the most recent results, newest first (1 = win).
func (s *RollingState) Last5() []int {
	vals := s.outcomes.tail(5)
	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = int(v)
	}
	return out
}

// Update pushes the just-completed match into the trailing windows.
func (s *RollingState) Update(m *models.Match, side models.MatchSide, won bool) {
	outcome := 0.0
	if won {
		outcome = 1.0
	}
	s.outcomes.push(outcome)

	if m.Surface != models.SurfaceUnknown {
		sw, ok := s.surface[m.Surface]
		if !ok {
			sw = newWindow(s.opts.Window)
			s.surface[m.Surface] = sw
		}
		sw.push(outcome)
	}

	if side.Aces != nil {
		s.aces.push(*side.Aces)
	}
	if m.Minutes != nil {
		s.minutes.push(*m.Minutes)
	}
	if side.BPFaced != nil && *side.BPFaced > 0 && side.BPSaved != nil {
		s.bpSave.push(*side.BPSaved / *side.BPFaced)
	}

	if side.Name != "" {
		s.name = side.Name
	}
	if side.Rank != nil {
		s.lastRank = side.Rank
	}
	s.lastMatchDate = m.Date
	s.played++
}
