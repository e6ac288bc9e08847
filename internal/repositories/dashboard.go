package repositories

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresDashboardRepository serves channel-level aggregates.
type PostgresDashboardRepository struct {
	pool db.Pool
}

// NewPostgresDashboardRepository constructs a dashboard repository backed by
// PostgreSQL.
func NewPostgresDashboardRepository(pool db.Pool) *PostgresDashboardRepository {
	return &PostgresDashboardRepository{pool: pool}
}

// ChannelStats computes the channel aggregates in one round trip. A channel
// with no videos or subscribers reports zeroes rather than an error.
func (r *PostgresDashboardRepository) ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var stats models.ChannelStats
	err = conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM videos WHERE owner_id = $1),
            (SELECT COALESCE(SUM(views), 0) FROM videos WHERE owner_id = $1),
            (SELECT COUNT(*) FROM video_likes vl JOIN videos v ON v.id = vl.video_id WHERE v.owner_id = $1),
            (SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1)
    `, channelID).Scan(&stats.TotalVideos, &stats.TotalViews, &stats.TotalLikes, &stats.TotalSubscribers)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("select channel stats: %w", err)
	}

	return stats, nil
}
