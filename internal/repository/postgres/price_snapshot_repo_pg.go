package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/faredrop/faredrop-backend/internal/domain"
)

const snapshotColumns = `
	id, trip_id, user_id, provider, price, currency, cabin_class, airline,
	outbound_departure, outbound_arrival, return_departure, return_arrival,
	stops, raw_data, raw_data_url, scraped_at, created_at`

type PriceSnapshotRepository struct {
	db *sqlx.DB
}

func NewPriceSnapshotRepo(db *sqlx.DB) *PriceSnapshotRepository {
	return &PriceSnapshotRepository{db: db}
}

func (r *PriceSnapshotRepository) Create(ctx context.Context, snapshot *domain.PriceSnapshot) (*domain.PriceSnapshot, error) {
	const query = `
		INSERT INTO price_snapshots
			(trip_id, user_id, provider, price, currency, cabin_class, airline,
			 outbound_departure, outbound_arrival, return_departure, return_arrival,
			 stops, raw_data, raw_data_url, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING` + snapshotColumns

	var created domain.PriceSnapshot
	err := r.db.GetContext(ctx, &created, query,
		snapshot.TripID, snapshot.UserID, snapshot.Provider, snapshot.Price,
		snapshot.Currency, snapshot.CabinClass, snapshot.Airline,
		snapshot.OutboundDeparture, snapshot.OutboundArrival,
		snapshot.ReturnDeparture, snapshot.ReturnArrival,
		snapshot.Stops, snapshot.RawData, snapshot.RawDataURL, snapshot.ScrapedAt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *PriceSnapshotRepository) ListForTrip(ctx context.Context, userID, tripID uuid.UUID, provider *string, limit, offset int) ([]domain.PriceSnapshot, error) {
	const query = `SELECT` + snapshotColumns + `
		FROM price_snapshots
		WHERE trip_id = $1 AND user_id = $2
		  AND ($3::text IS NULL OR provider = $3)
		ORDER BY scraped_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.db.QueryxContext(ctx, query, tripID, userID, provider, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]domain.PriceSnapshot, 0)
	for rows.Next() {
		var snapshot domain.PriceSnapshot
		if err := rows.StructScan(&snapshot); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *PriceSnapshotRepository) CountForTrip(ctx context.Context, userID, tripID uuid.UUID, provider *string) (int64, error) {
	const query = `
		SELECT COUNT(*)
		FROM price_snapshots
		WHERE trip_id = $1 AND user_id = $2
		  AND ($3::text IS NULL OR provider = $3)`

	var count int64
	if err := r.db.GetContext(ctx, &count, query, tripID, userID, provider); err != nil {
		return 0, err
	}
	return count, nil
}
