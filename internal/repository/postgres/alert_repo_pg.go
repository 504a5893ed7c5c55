package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/faredrop/faredrop-backend/internal/domain"
)

const alertColumns = `
	id, price_watch_id, user_id, price_snapshot_id, alert_type, channel,
	status, target_price, triggered_price, message, sent_at, created_at`

type AlertRepository struct {
	db *sqlx.DB
}

func NewAlertRepo(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
	const query = `
		INSERT INTO alerts
			(price_watch_id, user_id, price_snapshot_id, alert_type, channel,
			 status, target_price, triggered_price, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING` + alertColumns

	var created domain.Alert
	err := r.db.GetContext(ctx, &created, query,
		alert.PriceWatchID, alert.UserID, alert.PriceSnapshotID,
		alert.AlertType, alert.Channel, alert.Status,
		alert.TargetPrice, alert.TriggeredPrice, alert.Message)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *AlertRepository) UpdateStatus(ctx context.Context, alertID uuid.UUID, status string, sentAt *time.Time) error {
	const query = `UPDATE alerts SET status = $2, sent_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, alertID, status, sentAt)
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

func (r *AlertRepository) FindByID(ctx context.Context, userID, alertID uuid.UUID) (*domain.Alert, error) {
	const query = `SELECT` + alertColumns + `
		FROM alerts
		WHERE id = $1 AND user_id = $2`

	var alert domain.Alert
	if err := r.db.GetContext(ctx, &alert, query, alertID, userID); err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *AlertRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Alert, error) {
	const query = `SELECT` + alertColumns + `
		FROM alerts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.queryAlerts(ctx, query, userID, limit, offset)
}

func (r *AlertRepository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `SELECT COUNT(*) FROM alerts WHERE user_id = $1`

	var count int64
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AlertRepository) ListForWatch(ctx context.Context, userID, watchID uuid.UUID, limit, offset int) ([]domain.Alert, error) {
	const query = `SELECT` + alertColumns + `
		FROM alerts
		WHERE user_id = $1 AND price_watch_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	return r.queryAlerts(ctx, query, userID, watchID, limit, offset)
}

func (r *AlertRepository) CountForWatch(ctx context.Context, userID, watchID uuid.UUID) (int64, error) {
	const query = `SELECT COUNT(*) FROM alerts WHERE user_id = $1 AND price_watch_id = $2`

	var count int64
	if err := r.db.GetContext(ctx, &count, query, userID, watchID); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AlertRepository) queryAlerts(ctx context.Context, query string, args ...any) ([]domain.Alert, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := make([]domain.Alert, 0)
	for rows.Next() {
		var alert domain.Alert
		if err := rows.StructScan(&alert); err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return alerts, nil
}
