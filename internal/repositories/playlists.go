package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for
// playlists and their video memberships.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by
// PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// Create persists a new playlist.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description,
		playlist.CreatedAt, playlist.UpdatedAt)
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
		return fmt.Errorf("insert playlist: %w", err)
	}

	return nil
}

// FindByID fetches a playlist with its video projections in insertion order.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.PlaylistWithVideos, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.PlaylistWithVideos{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var playlist models.PlaylistWithVideos
	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, name, description, created_at, updated_at
        FROM playlists
        WHERE id = $1
    `, id)
	if err := row.Scan(&playlist.ID, &playlist.OwnerID, &playlist.Name, &playlist.Description,
		&playlist.CreatedAt, &playlist.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PlaylistWithVideos{}, ErrNotFound
		}
		return models.PlaylistWithVideos{}, fmt.Errorf("select playlist: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.title, v.thumbnail, v.video_file, v.duration_secs, v.views
        FROM playlist_videos pv
        JOIN videos v ON v.id = pv.video_id
        WHERE pv.playlist_id = $1
        ORDER BY pv.added_at ASC
    `, id)
	if err != nil {
		return models.PlaylistWithVideos{}, fmt.Errorf("query playlist videos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var video models.VideoSummary
		if err := rows.Scan(&video.ID, &video.Title, &video.Thumbnail, &video.VideoFile,
			&video.DurationSecs, &video.Views); err != nil {
			return models.PlaylistWithVideos{}, fmt.Errorf("scan playlist video: %w", err)
		}
		playlist.Videos = append(playlist.Videos, video)
	}

	if err := rows.Err(); err != nil {
		return models.PlaylistWithVideos{}, fmt.Errorf("iterate playlist videos: %w", err)
	}

	return playlist, nil
}

// ListByOwner returns the owner's playlists, newest first.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, name, description, created_at, updated_at
        FROM playlists
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query playlists by owner: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var playlist models.Playlist
		if err := rows.Scan(&playlist.ID, &playlist.OwnerID, &playlist.Name, &playlist.Description,
			&playlist.CreatedAt, &playlist.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}

	return playlists, nil
}

// Update replaces the playlist name and description and returns the updated row.
func (r *PostgresPlaylistRepository) Update(ctx context.Context, id, name, description string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE playlists
        SET name = $2, description = $3, updated_at = now()
        WHERE id = $1
        RETURNING id, owner_id, name, description, created_at, updated_at
    `, id, name, description)

	var playlist models.Playlist
	if err := row.Scan(&playlist.ID, &playlist.OwnerID, &playlist.Name, &playlist.Description,
		&playlist.CreatedAt, &playlist.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("update playlist: %w", err)
	}

	return playlist, nil
}

// Delete removes a playlist. Memberships cascade.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// AddVideo appends a video to a playlist. Adding a video that is already in
// the playlist surfaces as ErrConflict via the composite primary key, and a
// missing playlist or video as ErrNotFound via the foreign keys.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlist_videos (playlist_id, video_id, added_at)
        VALUES ($1, $2, now())
    `, playlistID, videoID)
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
		return fmt.Errorf("add playlist video: %w", err)
	}

	return nil
}

// RemoveVideo drops a video from a playlist.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM playlist_videos
        WHERE playlist_id = $1 AND video_id = $2
    `, playlistID, videoID)
	if err != nil {
		return fmt.Errorf("remove playlist video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
