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

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create persists a new comment. A missing video surfaces as ErrNotFound via
// the foreign key.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.VideoID, comment.OwnerID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
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
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// FindByID fetches a comment by its identifier.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, video_id, owner_id, content, created_at, updated_at
        FROM comments
        WHERE id = $1
    `, id)

	var comment models.Comment
	if err := row.Scan(&comment.ID, &comment.VideoID, &comment.OwnerID, &comment.Content,
		&comment.CreatedAt, &comment.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}

	return comment, nil
}

// UpdateContent replaces the comment body and returns the updated row.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, content string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE comments
        SET content = $2, updated_at = now()
        WHERE id = $1
        RETURNING id, video_id, owner_id, content, created_at, updated_at
    `, id, content)

	var comment models.Comment
	if err := row.Scan(&comment.ID, &comment.VideoID, &comment.OwnerID, &comment.Content,
		&comment.CreatedAt, &comment.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}

	return comment, nil
}

// Delete removes a comment.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByVideo returns a page of a video's comments joined with each
// commenter's public profile, newest first.
func (r *PostgresCommentRepository) ListByVideo(ctx context.Context, videoID string, page Page) ([]models.CommentWithAuthor, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	page = page.normalize()
	offset := (page.Number - 1) * page.Limit

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at,
               u.id, u.username, u.full_name, u.avatar
        FROM comments c
        JOIN users u ON u.id = c.owner_id
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC
        LIMIT $2 OFFSET $3
    `, videoID, page.Limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.CommentWithAuthor
	for rows.Next() {
		var c models.CommentWithAuthor
		if err := rows.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
			&c.Author.ID, &c.Author.Username, &c.Author.FullName, &c.Author.Avatar); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}
