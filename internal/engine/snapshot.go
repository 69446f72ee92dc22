package engine

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

// BuildSnapshots projects the terminal replay state into per-player
// snapshots: each player's current ratings plus the rolling aggregates their
// final trailing windows support.
//
// Unlike the replay itself, this is embarrassingly parallel (each player's
// terminal state is independent), so players are sharded across workers.
func BuildSnapshots(ctx context.Context, res *Result) ([]models.LatestPlayerSnapshot, error) {
	ids := make([]string, 0, len(res.Rolling))
	for id := range res.Rolling {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	snaps := make([]models.LatestPlayerSnapshot, len(ids))
	workers := runtime.NumCPU()
	if workers > len(ids) {
		workers = len(ids)
	}
	if workers < 1 {
		workers = 1
	}

	g, _ := errgroup.WithContext(ctx)
	chunk := (len(ids) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(ids) {
			hi = len(ids)
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				snaps[i] = snapshotFor(ids[i], res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snaps, nil
}

func snapshotFor(playerID string, res *Result) models.LatestPlayerSnapshot {
	roll := res.Rolling[playerID]
	snap := models.LatestPlayerSnapshot{
		PlayerID:      playerID,
		Name:          roll.name,
		Elo:           res.Ratings.Rating(playerID),
		SurfaceElo:    res.Ratings.SurfaceRatings(playerID),
		SurfaceWinPct: roll.SurfaceWinPcts(),
		CurrentRank:   roll.lastRank,
		Last5:         roll.Last5(),
		MatchesPlayed: roll.played,
		LastMatchDate: roll.lastMatchDate,
	}
	snap.RollingWinPct = roll.outcomes.mean()
	snap.Last3WinAvg = roll.outcomes.tailMean(roll.opts.Last3Window)
	snap.RollingAceAvg = roll.aces.mean()
	snap.RollingMinutes = roll.minutes.mean()
	snap.RollingBPSave = roll.bpSave.mean()
	return snap
}
