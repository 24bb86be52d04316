package postgres

import (
	"context"
	"fmt"

	"github.com/COCO0911/staybooking-project/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LocationRepository struct {
	pool *pgxpool.Pool
}

func NewLocationRepository(pool *pgxpool.Pool) *LocationRepository {
	return &LocationRepository{pool: pool}
}

// Save upserts the location for its stay; a stay has at most one location.
func (r *LocationRepository) Save(ctx context.Context, location domain.Location) error {
	const stmt = `
INSERT INTO locations (stay_id, latitude, longitude)
VALUES ($1, $2, $3)
ON CONFLICT (stay_id) DO UPDATE SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude`

	_, err := r.exec(ctx, stmt, location.StayID, location.Latitude, location.Longitude)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrStayNotFound
		}
		return fmt.Errorf("save location: %w", err)
	}
	return nil
}

func (r *LocationRepository) FindByStay(ctx context.Context, stayID string) (*domain.Location, error) {
	const query = `SELECT stay_id, latitude, longitude FROM locations WHERE stay_id = $1`

	var loc domain.Location
	err := r.pool.QueryRow(ctx, query, stayID).Scan(&loc.StayID, &loc.Latitude, &loc.Longitude)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find location: %w", err)
	}
	return &loc, nil
}

func (r *LocationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}
