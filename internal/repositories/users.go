package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users,
// including the single persisted refresh token per account and the
// append-only watch history.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, username, email, full_name, password_hash, avatar, cover_image, COALESCE(refresh_token, ''), created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.Password,
		&user.Avatar, &user.CoverImage, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// Create persists a new user record. Username and email are stored
// lowercased so uniqueness is case-insensitive.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, password_hash, avatar, cover_image, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, strings.ToLower(user.Username), strings.ToLower(user.Email), user.FullName,
		user.Password, user.Avatar, user.CoverImage, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by its identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}

	return user, nil
}

// FindByLogin fetches a user matching the provided username or email,
// case-insensitively.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, login string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	login = strings.ToLower(strings.TrimSpace(login))
	row := conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE username = $1 OR email = $1
    `, login)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by login: %w", err)
	}

	return user, nil
}

// UpdateProfile replaces the mutable account details and returns the updated row.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id, fullName, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE users
        SET full_name = $2, email = $3, updated_at = now()
        WHERE id = $1
        RETURNING `+userColumns, id, fullName, strings.ToLower(email))

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.User{}, ErrConflict
		}
		return models.User{}, fmt.Errorf("update user profile: %w", err)
	}

	return user, nil
}

// UpdateImage replaces the avatar or cover image URL and returns the updated row.
func (r *PostgresUserRepository) UpdateImage(ctx context.Context, id, column, url string) (models.User, error) {
	if column != "avatar" && column != "cover_image" {
		return models.User{}, fmt.Errorf("update user image: unsupported column %q", column)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE users
        SET `+column+` = $2, updated_at = now()
        WHERE id = $1
        RETURNING `+userColumns, id, url)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("update user image: %w", err)
	}

	return user, nil
}

// UpdatePassword persists a new password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET password_hash = $2, updated_at = now()
        WHERE id = $1
    `, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetRefreshToken unconditionally replaces the stored refresh token. This is
// the login rotation point.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $2, updated_at = now()
        WHERE id = $1
    `, userID, token)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SwapRefreshToken replaces the stored refresh token only when the stored
// value still equals current. The guard is part of the UPDATE predicate, so
// concurrent refreshes racing on the same stale token resolve to exactly one
// winner.
func (r *PostgresUserRepository) SwapRefreshToken(ctx context.Context, userID, current, next string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $3, updated_at = now()
        WHERE id = $1 AND refresh_token = $2
    `, userID, current, next)
	if err != nil {
		return fmt.Errorf("swap refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return auth.ErrTokenMismatch
	}

	return nil
}

// ClearRefreshToken removes the stored refresh token. Logout is idempotent:
// clearing an already cleared token succeeds as long as the user exists.
func (r *PostgresUserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = NULL, updated_at = now()
        WHERE id = $1
    `, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	return nil
}

// AppendWatchHistory records a view in the user's watch history. Entries are
// append-only and may repeat the same video.
func (r *PostgresUserRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, now())
    `, userID, videoID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("append watch history: %w", err)
	}

	return nil
}

// ListWatchHistory returns the user's watch history, most recent first,
// joined with the watched video projection.
func (r *PostgresUserRepository) ListWatchHistory(ctx context.Context, userID string) ([]models.WatchEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT wh.watched_at, v.id, v.title, v.thumbnail, v.video_file, v.duration_secs, v.views
        FROM watch_history wh
        JOIN videos v ON v.id = wh.video_id
        WHERE wh.user_id = $1
        ORDER BY wh.watched_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var entries []models.WatchEntry
	for rows.Next() {
		var entry models.WatchEntry
		if err := rows.Scan(&entry.WatchedAt, &entry.Video.ID, &entry.Video.Title, &entry.Video.Thumbnail,
			&entry.Video.VideoFile, &entry.Video.DurationSecs, &entry.Video.Views); err != nil {
			return nil, fmt.Errorf("scan watch entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return entries, nil
}

var _ auth.RefreshTokenStore = (*PostgresUserRepository)(nil)
