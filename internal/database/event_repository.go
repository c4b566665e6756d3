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

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

const eventColumns = `id, venue_id, title, description, start_time, end_time,
	fingerprint, source_type, source_url, status, presence_count, created_at, updated_at`

const uniqueViolation = "23505"

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.VenueID, &e.Title, &e.Description, &e.StartTime, &e.EndTime,
		&e.Fingerprint, &e.SourceType, &e.SourceURL, &e.Status, &e.PresenceCount, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EventRepo) GetByID(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, eventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by ID: %w", err)
	}
	return e, nil
}

func (r *EventRepo) FindByFingerprint(ctx context.Context, fingerprint string) (*domain.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE fingerprint = $1`, fingerprint))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event by fingerprint: %w", err)
	}
	return e, nil
}

func (r *EventRepo) Create(ctx context.Context, ne domain.NewEvent) (*domain.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx,
		`INSERT INTO events (venue_id, title, description, start_time, end_time,
		                     fingerprint, source_type, source_url, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+eventColumns,
		ne.VenueID, ne.Title, ne.Description, ne.StartTime, ne.EndTime,
		ne.Fingerprint, ne.SourceType, ne.SourceURL, ne.Status))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, domain.ErrDuplicateEvent
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return e, nil
}

func (r *EventRepo) ListByCity(ctx context.Context, cityID uuid.UUID, from, until time.Time) ([]domain.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 WHERE venue_id IN (SELECT id FROM venues WHERE city_id = $1)
		   AND status <> 'archived'
		   AND start_time >= $2 AND start_time < $3
		 ORDER BY start_time`,
		cityID, from, until)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.VenueID, &e.Title, &e.Description, &e.StartTime, &e.EndTime,
			&e.Fingerprint, &e.SourceType, &e.SourceURL, &e.Status, &e.PresenceCount, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

func (r *EventRepo) AdjustPresenceCount(ctx context.Context, eventID uuid.UUID, delta int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`UPDATE events
		 SET presence_count = GREATEST(presence_count + $2, 0), updated_at = now()
		 WHERE id = $1
		 RETURNING presence_count`,
		eventID, delta).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrEventNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust presence count: %w", err)
	}
	return count, nil
}

func (r *EventRepo) MarkLiveDue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE events SET status = 'live', updated_at = $1
		 WHERE status = 'created' AND start_time <= $1`,
		now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark events live: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *EventRepo) MarkCoolingDue(ctx context.Context, now time.Time, staleAfter time.Duration) (int64, error) {
	// Events with an end time cool once it passes; open-ended events cool
	// after going stale.
	tag, err := r.pool.Exec(ctx,
		`UPDATE events SET status = 'cooling', updated_at = $1
		 WHERE status = 'live'
		   AND ((end_time IS NOT NULL AND end_time <= $1)
		     OR (end_time IS NULL AND start_time <= $2))`,
		now, now.Add(-staleAfter))
	if err != nil {
		return 0, fmt.Errorf("failed to mark events cooling: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *EventRepo) MarkArchivedDue(ctx context.Context, now time.Time, coolingFor time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE events SET status = 'archived', updated_at = $1
		 WHERE status = 'cooling' AND updated_at <= $2`,
		now, now.Add(-coolingFor))
	if err != nil {
		return 0, fmt.Errorf("failed to mark events archived: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *EventRepo) PurgeArchived(ctx context.Context, now time.Time, retainFor time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM events WHERE status = 'archived' AND updated_at <= $1`,
		now.Add(-retainFor))
	if err != nil {
		return 0, fmt.Errorf("failed to purge archived events: %w", err)
	}
	return tag.RowsAffected(), nil
}
