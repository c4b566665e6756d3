package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sabyjs3-beep/tctp/internal/domain"
)

const foreignKeyViolation = "23503"

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

const postColumns = `id, event_id, device_id, content, quick_tag, score, created_at`

func (r *PostRepo) GetByID(ctx context.Context, postID uuid.UUID) (*domain.Post, error) {
	var p domain.Post
	err := r.pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, postID,
	).Scan(&p.ID, &p.EventID, &p.DeviceID, &p.Content, &p.QuickTag, &p.Score, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post by ID: %w", err)
	}
	return &p, nil
}

func (r *PostRepo) Create(ctx context.Context, eventID, deviceID uuid.UUID, content, quickTag string) (*domain.Post, error) {
	var p domain.Post
	err := r.pool.QueryRow(ctx,
		`INSERT INTO posts (event_id, device_id, content, quick_tag)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+postColumns,
		eventID, deviceID, content, quickTag,
	).Scan(&p.ID, &p.EventID, &p.DeviceID, &p.Content, &p.QuickTag, &p.Score, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return &p, nil
}

func (r *PostRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+postColumns+` FROM posts WHERE event_id = $1 ORDER BY created_at DESC`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.ID, &p.EventID, &p.DeviceID, &p.Content, &p.QuickTag, &p.Score, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepo) CountRecentByDevice(ctx context.Context, eventID, deviceID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM posts
		 WHERE event_id = $1 AND device_id = $2 AND created_at >= $3`,
		eventID, deviceID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent posts: %w", err)
	}
	return count, nil
}

func (r *PostRepo) ApplyVote(ctx context.Context, postID, deviceID uuid.UUID, direction int) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO post_votes (post_id, device_id, direction, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (post_id, device_id)
		 DO UPDATE SET direction = EXCLUDED.direction, updated_at = now()`,
		postID, deviceID, direction)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return 0, domain.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to record post vote: %w", err)
	}

	// Recompute from the vote rows so revotes never drift the score.
	var score int
	err = tx.QueryRow(ctx,
		`UPDATE posts
		 SET score = (SELECT COALESCE(sum(direction), 0) FROM post_votes WHERE post_id = $1)
		 WHERE id = $1
		 RETURNING score`,
		postID).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update post score: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return score, nil
}
