package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresLikeRepository implements the like toggles for videos and comments.
//
// A toggle is a single conditional statement, not a find-then-write pair: a
// CTE deletes the relation when present, and inserts it under the composite
// uniqueness constraint otherwise. Two concurrent toggles for the same
// (subject, object) pair therefore can never double-create or double-delete;
// the relation count stays in {0, 1}.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// toggleStatement builds the delete-if-exists-else-insert CTE for a like
// table keyed by (liked_by, <object column>).
func toggleStatement(table, objectColumn string) string {
	return fmt.Sprintf(`
        WITH removed AS (
            DELETE FROM %[1]s
            WHERE liked_by = $1 AND %[2]s = $2
            RETURNING 1
        ), inserted AS (
            INSERT INTO %[1]s (liked_by, %[2]s, created_at)
            SELECT $1, $2, now()
            WHERE NOT EXISTS (SELECT 1 FROM removed)
            ON CONFLICT (liked_by, %[2]s) DO NOTHING
            RETURNING 1
        )
        SELECT EXISTS (SELECT 1 FROM removed)
    `, table, objectColumn)
}

func (r *PostgresLikeRepository) toggle(ctx context.Context, statement, subjectID, objectID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var removed bool
	if err := conn.QueryRow(ctx, statement, subjectID, objectID).Scan(&removed); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle like: %w", err)
	}

	// When nothing was removed the relation now exists: either this call
	// inserted it or a concurrent toggle won the insert race. Both read as
	// active.
	return !removed, nil
}

// ToggleVideo flips the user-likes-video relation and reports whether it is
// now active.
func (r *PostgresLikeRepository) ToggleVideo(ctx context.Context, userID, videoID string) (bool, error) {
	return r.toggle(ctx, toggleStatement("video_likes", "video_id"), userID, videoID)
}

// ToggleComment flips the user-likes-comment relation and reports whether it
// is now active.
func (r *PostgresLikeRepository) ToggleComment(ctx context.Context, userID, commentID string) (bool, error) {
	return r.toggle(ctx, toggleStatement("comment_likes", "comment_id"), userID, commentID)
}

// ListLikedVideos returns every active video like for the user, most recent
// first, joined with the liked video projection.
func (r *PostgresLikeRepository) ListLikedVideos(ctx context.Context, userID string) ([]models.LikedVideo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT vl.created_at, v.id, v.title, v.thumbnail, v.video_file, v.duration_secs, v.views
        FROM video_likes vl
        JOIN videos v ON v.id = vl.video_id
        WHERE vl.liked_by = $1
        ORDER BY vl.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	var liked []models.LikedVideo
	for rows.Next() {
		var entry models.LikedVideo
		if err := rows.Scan(&entry.LikedAt, &entry.Video.ID, &entry.Video.Title, &entry.Video.Thumbnail,
			&entry.Video.VideoFile, &entry.Video.DurationSecs, &entry.Video.Views); err != nil {
			return nil, fmt.Errorf("scan liked video: %w", err)
		}
		liked = append(liked, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked videos: %w", err)
	}

	return liked, nil
}

// CountForVideo reports the number of active likes on a video.
func (r *PostgresLikeRepository) CountForVideo(ctx context.Context, videoID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM video_likes WHERE video_id = $1`, videoID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count video likes: %w", err)
	}

	return count, nil
}
