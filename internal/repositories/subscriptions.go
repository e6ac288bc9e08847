package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresSubscriptionRepository implements the user-subscribes-channel
// toggle with the same single-statement shape as the like toggles: the
// (subscriber_id, channel_id) uniqueness constraint is the synchronization
// point, so the relation count per pair stays in {0, 1} under concurrency.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository
// backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle flips the subscription relation and reports whether it is now active.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var removed bool
	err = conn.QueryRow(ctx, `
        WITH removed AS (
            DELETE FROM subscriptions
            WHERE subscriber_id = $1 AND channel_id = $2
            RETURNING 1
        ), inserted AS (
            INSERT INTO subscriptions (subscriber_id, channel_id, created_at)
            SELECT $1, $2, now()
            WHERE NOT EXISTS (SELECT 1 FROM removed)
            ON CONFLICT (subscriber_id, channel_id) DO NOTHING
            RETURNING 1
        )
        SELECT EXISTS (SELECT 1 FROM removed)
    `, subscriberID, channelID).Scan(&removed)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle subscription: %w", err)
	}

	return !removed, nil
}

// ListSubscribers returns the public profiles of users subscribed to the
// channel.
func (r *PostgresSubscriptionRepository) ListSubscribers(ctx context.Context, channelID string) ([]models.PublicUser, error) {
	return r.listProfiles(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
    `, channelID)
}

// ListSubscribed returns the public profiles of channels the user is
// subscribed to.
func (r *PostgresSubscriptionRepository) ListSubscribed(ctx context.Context, subscriberID string) ([]models.PublicUser, error) {
	return r.listProfiles(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID)
}

func (r *PostgresSubscriptionRepository) listProfiles(ctx context.Context, query, id string) ([]models.PublicUser, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query subscription profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.PublicUser
	for rows.Next() {
		var profile models.PublicUser
		if err := rows.Scan(&profile.ID, &profile.Username, &profile.FullName, &profile.Avatar); err != nil {
			return nil, fmt.Errorf("scan subscription profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscription profiles: %w", err)
	}

	return profiles, nil
}
