package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/faredrop/faredrop-backend/internal/domain"
)

const watchColumns = `
	id, user_id, trip_id, provider, target_price, currency, cabin_class,
	is_active, check_interval_minutes, cooldown_minutes,
	last_checked_at, last_alerted_at, created_at, updated_at`

type PriceWatchRepository struct {
	db *sqlx.DB
}

func NewPriceWatchRepo(db *sqlx.DB) *PriceWatchRepository {
	return &PriceWatchRepository{db: db}
}

func (r *PriceWatchRepository) Create(ctx context.Context, watch *domain.PriceWatch) (*domain.PriceWatch, error) {
	const query = `
		INSERT INTO price_watches
			(user_id, trip_id, provider, target_price, currency, cabin_class,
			 is_active, check_interval_minutes, cooldown_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING` + watchColumns

	var created domain.PriceWatch
	err := r.db.GetContext(ctx, &created, query,
		watch.UserID, watch.TripID, watch.Provider, watch.TargetPrice,
		watch.Currency, watch.CabinClass, watch.IsActive,
		watch.CheckIntervalMinutes, watch.CooldownMinutes)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *PriceWatchRepository) FindByID(ctx context.Context, userID, watchID uuid.UUID) (*domain.PriceWatch, error) {
	const query = `SELECT` + watchColumns + `
		FROM price_watches
		WHERE id = $1 AND user_id = $2`

	var watch domain.PriceWatch
	if err := r.db.GetContext(ctx, &watch, query, watchID, userID); err != nil {
		return nil, err
	}
	return &watch, nil
}

func (r *PriceWatchRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.PriceWatch, error) {
	const query = `SELECT` + watchColumns + `
		FROM price_watches
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.queryWatches(ctx, query, userID, limit, offset)
}

func (r *PriceWatchRepository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `SELECT COUNT(*) FROM price_watches WHERE user_id = $1`

	var count int64
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PriceWatchRepository) ListForTrip(ctx context.Context, userID, tripID uuid.UUID, limit, offset int) ([]domain.PriceWatch, error) {
	const query = `SELECT` + watchColumns + `
		FROM price_watches
		WHERE user_id = $1 AND trip_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	return r.queryWatches(ctx, query, userID, tripID, limit, offset)
}

func (r *PriceWatchRepository) CountForTrip(ctx context.Context, userID, tripID uuid.UUID) (int64, error) {
	const query = `SELECT COUNT(*) FROM price_watches WHERE user_id = $1 AND trip_id = $2`

	var count int64
	if err := r.db.GetContext(ctx, &count, query, userID, tripID); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PriceWatchRepository) ListActiveForTrip(ctx context.Context, tripID uuid.UUID) ([]domain.PriceWatch, error) {
	const query = `SELECT` + watchColumns + `
		FROM price_watches
		WHERE trip_id = $1 AND is_active = TRUE
		ORDER BY created_at`

	return r.queryWatches(ctx, query, tripID)
}

func (r *PriceWatchRepository) Update(ctx context.Context, watch *domain.PriceWatch) (*domain.PriceWatch, error) {
	const query = `
		UPDATE price_watches
		SET provider = $3,
		    target_price = $4,
		    currency = $5,
		    cabin_class = $6,
		    is_active = $7,
		    check_interval_minutes = $8,
		    cooldown_minutes = $9,
		    updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING` + watchColumns

	var updated domain.PriceWatch
	err := r.db.GetContext(ctx, &updated, query,
		watch.ID, watch.UserID, watch.Provider, watch.TargetPrice,
		watch.Currency, watch.CabinClass, watch.IsActive,
		watch.CheckIntervalMinutes, watch.CooldownMinutes)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *PriceWatchRepository) Delete(ctx context.Context, userID, watchID uuid.UUID) error {
	const query = `DELETE FROM price_watches WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, watchID, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SelectDue is the scheduler's work queue: active watches whose interval has
// elapsed, never-checked watches first (infinitely overdue), then oldest
// check first. The query only reads; last_checked_at moves in MarkChecked.
func (r *PriceWatchRepository) SelectDue(ctx context.Context, now time.Time, limit int) ([]domain.PriceWatch, error) {
	const query = `SELECT` + watchColumns + `
		FROM price_watches
		WHERE is_active = TRUE
		  AND (last_checked_at IS NULL
		       OR last_checked_at + make_interval(mins => check_interval_minutes) <= $1)
		ORDER BY last_checked_at ASC NULLS FIRST, created_at ASC
		LIMIT $2`

	return r.queryWatches(ctx, query, now, limit)
}

func (r *PriceWatchRepository) MarkChecked(ctx context.Context, watchID uuid.UUID, at time.Time) error {
	const query = `
		UPDATE price_watches
		SET last_checked_at = $2, updated_at = now()
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, watchID, at)
	return err
}

// ClaimAlert performs the cooldown check and the last_alerted_at write as a
// single statement, so two concurrent evaluations of the same watch can
// never both pass the check.
func (r *PriceWatchRepository) ClaimAlert(ctx context.Context, watchID uuid.UUID, at time.Time) (bool, error) {
	const query = `
		UPDATE price_watches
		SET last_alerted_at = $2, updated_at = now()
		WHERE id = $1
		  AND (last_alerted_at IS NULL
		       OR last_alerted_at + make_interval(mins => cooldown_minutes) <= $2)`

	result, err := r.db.ExecContext(ctx, query, watchID, at)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PriceWatchRepository) queryWatches(ctx context.Context, query string, args ...any) ([]domain.PriceWatch, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	watches := make([]domain.PriceWatch, 0)
	for rows.Next() {
		var watch domain.PriceWatch
		if err := rows.StructScan(&watch); err != nil {
			return nil, err
		}
		watches = append(watches, watch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return watches, nil
}
