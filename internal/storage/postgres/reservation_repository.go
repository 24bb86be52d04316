package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/COCO0911/staybooking-project/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

// FindByStayAndCheckoutAfter returns reservations for the stay whose
// checkout date is strictly after the given date.
func (r *ReservationRepository) FindByStayAndCheckoutAfter(ctx context.Context, stayID string, date time.Time) ([]domain.Reservation, error) {
	const query = `
SELECT id, stay_id, guest, checkin_date, checkout_date
FROM reservations
WHERE stay_id = $1 AND checkout_date > $2
ORDER BY checkin_date, id`

	return r.queryReservations(ctx, query, stayID, date)
}

func (r *ReservationRepository) ListByStay(ctx context.Context, stayID string) ([]domain.Reservation, error) {
	const query = `
SELECT id, stay_id, guest, checkin_date, checkout_date
FROM reservations
WHERE stay_id = $1
ORDER BY checkin_date, id`

	return r.queryReservations(ctx, query, stayID)
}

func (r *ReservationRepository) queryReservations(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.StayID, &res.Guest, &res.CheckinDate, &res.CheckoutDate); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	return reservations, nil
}

func (r *ReservationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
