package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/faredrop/faredrop-backend/internal/domain"
)

type TripRepository struct {
	db *sqlx.DB
}

func NewTripRepo(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	const query = `
		INSERT INTO trips (user_id, origin, destination, departure_date, return_date, travelers, trip_type, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, origin, destination, departure_date, return_date,
		          travelers, trip_type, notes, created_at, updated_at
	`

	var created domain.Trip
	err := r.db.GetContext(ctx, &created, query,
		trip.UserID, trip.Origin, trip.Destination, trip.DepartureDate,
		trip.ReturnDate, trip.Travelers, trip.TripType, trip.Notes)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *TripRepository) FindByID(ctx context.Context, userID, tripID uuid.UUID) (*domain.Trip, error) {
	const query = `
		SELECT id, user_id, origin, destination, departure_date, return_date,
		       travelers, trip_type, notes, created_at, updated_at
		FROM trips
		WHERE id = $1 AND user_id = $2
	`

	var trip domain.Trip
	if err := r.db.GetContext(ctx, &trip, query, tripID, userID); err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *TripRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Trip, error) {
	const query = `
		SELECT id, user_id, origin, destination, departure_date, return_date,
		       travelers, trip_type, notes, created_at, updated_at
		FROM trips
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryxContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]domain.Trip, 0)
	for rows.Next() {
		var trip domain.Trip
		if err := rows.StructScan(&trip); err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trips, nil
}

func (r *TripRepository) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `SELECT COUNT(*) FROM trips WHERE user_id = $1`

	var count int64
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	const query = `
		UPDATE trips
		SET origin = $3,
		    destination = $4,
		    departure_date = $5,
		    return_date = $6,
		    travelers = $7,
		    trip_type = $8,
		    notes = $9,
		    updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, origin, destination, departure_date, return_date,
		          travelers, trip_type, notes, created_at, updated_at
	`

	var updated domain.Trip
	err := r.db.GetContext(ctx, &updated, query,
		trip.ID, trip.UserID, trip.Origin, trip.Destination, trip.DepartureDate,
		trip.ReturnDate, trip.Travelers, trip.TripType, trip.Notes)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *TripRepository) Delete(ctx context.Context, userID, tripID uuid.UUID) error {
	const query = `DELETE FROM trips WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, tripID, userID)
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
