package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sabyjs3-beep/tctp/internal/domain"
)

type PresenceRepo struct {
	pool *pgxpool.Pool
}

func NewPresenceRepo(pool *pgxpool.Pool) *PresenceRepo {
	return &PresenceRepo{pool: pool}
}

func (r *PresenceRepo) Get(ctx context.Context, eventID, deviceID uuid.UUID) (*domain.Presence, error) {
	var p domain.Presence
	err := r.pool.QueryRow(ctx,
		`SELECT event_id, device_id, status, updated_at
		 FROM presences WHERE event_id = $1 AND device_id = $2`,
		eventID, deviceID,
	).Scan(&p.EventID, &p.DeviceID, &p.Status, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}
	return &p, nil
}

func (r *PresenceRepo) Upsert(ctx context.Context, p domain.Presence) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO presences (event_id, device_id, status, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (event_id, device_id)
		 DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`,
		p.EventID, p.DeviceID, p.Status, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert presence: %w", err)
	}
	return nil
}
