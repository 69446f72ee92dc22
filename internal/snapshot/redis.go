package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

const (
	playerStatsKey  = "player_stats"
	statsUpdatedKey = "player_stats:updated_at"
)

// Publish pushes the snapshot set into Redis for the dashboard: one hash
// field per player plus an updated-at marker, written through a pipeline.
func Publish(ctx context.Context, rdb *redis.Client, snaps []models.LatestPlayerSnapshot) error {
	pipe := rdb.Pipeline()
	pipe.Del(ctx, playerStatsKey)
	for i := range snaps {
		data, err := json.Marshal(&snaps[i])
		if err != nil {
			return fmt.Errorf("marshal snapshot for %s: %w", snaps[i].PlayerID, err)
		}
		pipe.HSet(ctx, playerStatsKey, snaps[i].PlayerID, data)
	}
	pipe.Set(ctx, statsUpdatedKey, time.Now().UTC().Format(time.RFC3339), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish snapshots to redis: %w", err)
	}
	return nil
}
