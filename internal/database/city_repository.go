package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sabyjs3-beep/tctp/internal/domain"
)

type CityRepo struct {
	pool *pgxpool.Pool
}

func NewCityRepo(pool *pgxpool.Pool) *CityRepo {
	return &CityRepo{pool: pool}
}

func (r *CityRepo) GetBySlug(ctx context.Context, slug string) (*domain.City, error) {
	var c domain.City
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, slug, active, created_at FROM cities WHERE slug = $1`,
		slug,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Active, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get city by slug: %w", err)
	}
	return &c, nil
}

func (r *CityRepo) List(ctx context.Context) ([]domain.City, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, slug, active, created_at FROM cities WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	defer rows.Close()

	var cities []domain.City
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cities: %w", err)
	}
	return cities, nil
}
