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

type VenueRepo struct {
	pool *pgxpool.Pool
}

func NewVenueRepo(pool *pgxpool.Pool) *VenueRepo {
	return &VenueRepo{pool: pool}
}

const venueColumns = `id, city_id, name, address, unclaimed, created_at, updated_at`

func scanVenue(row pgx.Row) (*domain.Venue, error) {
	var v domain.Venue
	err := row.Scan(&v.ID, &v.CityID, &v.Name, &v.Address, &v.Unclaimed, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VenueRepo) GetByID(ctx context.Context, venueID uuid.UUID) (*domain.Venue, error) {
	v, err := scanVenue(r.pool.QueryRow(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE id = $1`, venueID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get venue by ID: %w", err)
	}
	return v, nil
}

func (r *VenueRepo) FindByName(ctx context.Context, cityID uuid.UUID, name string) (*domain.Venue, error) {
	v, err := scanVenue(r.pool.QueryRow(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE city_id = $1 AND name = $2`, cityID, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find venue by name: %w", err)
	}
	return v, nil
}

func (r *VenueRepo) ListByCity(ctx context.Context, cityID uuid.UUID) ([]domain.Venue, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE city_id = $1 ORDER BY name`, cityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	defer rows.Close()

	var venues []domain.Venue
	for rows.Next() {
		var v domain.Venue
		if err := rows.Scan(&v.ID, &v.CityID, &v.Name, &v.Address, &v.Unclaimed, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read venues: %w", err)
	}
	return venues, nil
}

func (r *VenueRepo) Search(ctx context.Context, query string, limit int) ([]domain.VenueHit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT v.id, v.name, c.slug, c.name
		 FROM venues v
		 JOIN cities c ON c.id = v.city_id
		 WHERE v.name ILIKE '%' || $1 || '%'
		 ORDER BY v.name
		 LIMIT $2`,
		query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search venues: %w", err)
	}
	defer rows.Close()

	var hits []domain.VenueHit
	for rows.Next() {
		var h domain.VenueHit
		if err := rows.Scan(&h.ID, &h.Name, &h.CitySlug, &h.CityName); err != nil {
			return nil, fmt.Errorf("failed to scan venue hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read venue hits: %w", err)
	}
	return hits, nil
}

func (r *VenueRepo) Create(ctx context.Context, cityID uuid.UUID, name, address string, unclaimed bool) (*domain.Venue, error) {
	// Concurrent ingests may race on (city_id, name); the unique constraint
	// makes the second insert a no-op fetch of the first.
	v, err := scanVenue(r.pool.QueryRow(ctx,
		`INSERT INTO venues (city_id, name, address, unclaimed)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (city_id, name) DO UPDATE SET updated_at = venues.updated_at
		 RETURNING `+venueColumns,
		cityID, name, address, unclaimed))
	if err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}
	return v, nil
}
