package postgres

import (
	"context"
	"fmt"

	"github.com/COCO0911/staybooking-project/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StayRepository struct {
	pool *pgxpool.Pool
}

func NewStayRepository(pool *pgxpool.Pool) *StayRepository {
	return &StayRepository{pool: pool}
}

// WithSerializableTx runs fn inside a SERIALIZABLE transaction. A
// serialization abort at commit surfaces as domain.ErrStoreContention.
func (r *StayRepository) WithSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
}

const stayColumns = `
s.id, s.name, s.address, s.description, s.guest_number, s.host, s.created_at,
COALESCE((SELECT array_agg(si.url ORDER BY si.position) FROM stay_images si WHERE si.stay_id = s.id), '{}')`

func (r *StayRepository) FindByOwner(ctx context.Context, owner string) ([]domain.Stay, error) {
	query := `SELECT ` + stayColumns + ` FROM stays s WHERE s.host = $1 ORDER BY s.created_at, s.id`

	rows, err := r.query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("find stays by owner: %w", err)
	}
	defer rows.Close()

	var stays []domain.Stay
	for rows.Next() {
		stay, err := scanStay(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stay: %w", err)
		}
		stays = append(stays, stay)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find stays by owner: %w", err)
	}
	return stays, nil
}

func (r *StayRepository) FindByIDAndOwner(ctx context.Context, stayID, owner string) (domain.Stay, error) {
	query := `SELECT ` + stayColumns + ` FROM stays s WHERE s.id = $1 AND s.host = $2`

	stay, err := scanStay(r.queryRow(ctx, query, stayID, owner))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Stay{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Stay{}, domain.ErrStayNotFound
		}
		return domain.Stay{}, fmt.Errorf("find stay by id and owner: %w", err)
	}
	return stay, nil
}

// Create inserts the stay and its ordered image rows, returning the stay
// with its store-assigned ID and creation timestamp filled in.
func (r *StayRepository) Create(ctx context.Context, stay domain.Stay) (domain.Stay, error) {
	const stmt = `
INSERT INTO stays (name, address, description, guest_number, host)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`

	err := r.queryRow(ctx, stmt, stay.Name, stay.Address, stay.Description, stay.GuestNumber, stay.Host).
		Scan(&stay.ID, &stay.CreatedAt)
	if err != nil {
		return domain.Stay{}, fmt.Errorf("create stay: %w", err)
	}

	const imageStmt = `INSERT INTO stay_images (stay_id, position, url) VALUES ($1, $2, $3)`
	for i, url := range stay.Images {
		if _, err := r.exec(ctx, imageStmt, stay.ID, i, url); err != nil {
			return domain.Stay{}, fmt.Errorf("create stay image %d: %w", i, err)
		}
	}
	return stay, nil
}

func (r *StayRepository) DeleteByID(ctx context.Context, stayID string) error {
	const stmt = `DELETE FROM stays WHERE id = $1`

	tag, err := r.exec(ctx, stmt, stayID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isSerializationFailure(err) {
			return domain.ErrStoreContention
		}
		return fmt.Errorf("delete stay: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStayNotFound
	}
	return nil
}

func scanStay(row pgx.Row) (domain.Stay, error) {
	var s domain.Stay
	err := row.Scan(&s.ID, &s.Name, &s.Address, &s.Description, &s.GuestNumber, &s.Host, &s.CreatedAt, &s.Images)
	if err != nil {
		return domain.Stay{}, err
	}
	return s, nil
}

func (r *StayRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *StayRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *StayRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
