package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
)

// Page controls offset pagination and ordering for owner listings.
type Page struct {
	Number  int
	Limit   int
	SortBy  string
	SortDir string
}

// normalize clamps the page to safe bounds and whitelists the sort column so
// it can be interpolated into the query.
func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 10
	}
	switch p.SortBy {
	case "created_at", "views", "duration_secs", "title":
	default:
		p.SortBy = "created_at"
	}
	if p.SortDir != "asc" {
		p.SortDir = "desc"
	}
	return p
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, owner_id, title, description, video_file, thumbnail, duration_secs, views, is_published, asset_status, asset_size, created_at, updated_at`

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoFile, &v.Thumbnail,
		&v.DurationSecs, &v.Views, &v.IsPublished, &v.AssetStatus, &v.AssetSize, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// Create stores a new video record. Freshly published videos start with a
// pending asset until ingestion completes.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	status := video.AssetStatus
	if status == "" {
		status = models.AssetStatusPending
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_file, thumbnail, duration_secs, views, is_published, asset_status, asset_size, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoFile, video.Thumbnail,
		video.DurationSecs, video.Views, video.IsPublished, status, video.AssetSize, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return ErrConflict
			case pgForeignKeyViolation:
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a video by its identifier.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// ListByOwner returns a page of the owner's videos.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID string, page Page) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	page = page.normalize()
	offset := (page.Number - 1) * page.Limit

	// Sort column and direction are whitelisted in normalize.
	query := fmt.Sprintf(`
        SELECT %s
        FROM videos
        WHERE owner_id = $1
        ORDER BY %s %s
        LIMIT $2 OFFSET $3
    `, videoColumns, page.SortBy, page.SortDir)

	rows, err := conn.Query(ctx, query, ownerID, page.Limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query videos by owner: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// UpdateDetails replaces the title and description and returns the updated row.
func (r *PostgresVideoRepository) UpdateDetails(ctx context.Context, id, title, description string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE videos
        SET title = $2, description = $3, updated_at = now()
        WHERE id = $1
        RETURNING `+videoColumns, id, title, description)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("update video details: %w", err)
	}

	return video, nil
}

// UpdateThumbnail replaces the thumbnail URL and returns the updated row.
func (r *PostgresVideoRepository) UpdateThumbnail(ctx context.Context, id, thumbnail string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE videos
        SET thumbnail = $2, updated_at = now()
        WHERE id = $1
        RETURNING `+videoColumns, id, thumbnail)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("update video thumbnail: %w", err)
	}

	return video, nil
}

// Delete removes a video. Dependent likes, comments, playlist entries, and
// watch-history rows are removed by ON DELETE CASCADE.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// IncrementViews bumps the view counter by one.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// TogglePublished flips the publish flag in a single statement and returns
// the new value.
func (r *PostgresVideoRepository) TogglePublished(ctx context.Context, id string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var published bool
	err = conn.QueryRow(ctx, `
        UPDATE videos
        SET is_published = NOT is_published, updated_at = now()
        WHERE id = $1
        RETURNING is_published
    `, id).Scan(&published)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle publish status: %w", err)
	}

	return published, nil
}

// MarkAssetReady records a successfully ingested video asset.
func (r *PostgresVideoRepository) MarkAssetReady(ctx context.Context, id, location string, durationSecs float64, size int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET asset_status = $2, video_file = $3, duration_secs = $4, asset_size = $5, updated_at = now()
        WHERE id = $1
    `, id, models.AssetStatusReady, location, durationSecs, size)
	if err != nil {
		return fmt.Errorf("mark video asset ready: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkAssetFailed records a failed ingestion attempt.
func (r *PostgresVideoRepository) MarkAssetFailed(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET asset_status = $2, video_file = '', asset_size = 0, updated_at = now()
        WHERE id = $1
    `, id, models.AssetStatusFailed)
	if err != nil {
		return fmt.Errorf("mark video asset failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ media.VideoAssetUpdater = (*PostgresVideoRepository)(nil)
