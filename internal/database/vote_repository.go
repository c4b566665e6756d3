package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sabyjs3-beep/tctp/internal/domain"
)

type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

func (r *VoteRepo) Upsert(ctx context.Context, v domain.Vote) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO votes (event_id, device_id, module, value, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (event_id, device_id, module)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		v.EventID, v.DeviceID, v.Module, v.Value, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert vote: %w", err)
	}
	return nil
}

func (r *VoteRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Vote, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT event_id, device_id, module, value, updated_at
		 FROM votes WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return collectVotes(rows)
}

func (r *VoteRepo) ListByEventAndDevice(ctx context.Context, eventID, deviceID uuid.UUID) ([]domain.Vote, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT event_id, device_id, module, value, updated_at
		 FROM votes WHERE event_id = $1 AND device_id = $2`, eventID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device votes: %w", err)
	}
	return collectVotes(rows)
}

func collectVotes(rows pgx.Rows) ([]domain.Vote, error) {
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		var v domain.Vote
		if err := rows.Scan(&v.EventID, &v.DeviceID, &v.Module, &v.Value, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read votes: %w", err)
	}
	return votes, nil
}
