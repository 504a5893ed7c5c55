package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/faredrop/faredrop-backend/internal/domain"
)

type PriceWatchRepository interface {
	Create(ctx context.Context, watch *domain.PriceWatch) (*domain.PriceWatch, error)
	FindByID(ctx context.Context, userID, watchID uuid.UUID) (*domain.PriceWatch, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.PriceWatch, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ListForTrip(ctx context.Context, userID, tripID uuid.UUID, limit, offset int) ([]domain.PriceWatch, error)
	CountForTrip(ctx context.Context, userID, tripID uuid.UUID) (int64, error)
	ListActiveForTrip(ctx context.Context, tripID uuid.UUID) ([]domain.PriceWatch, error)
	Update(ctx context.Context, watch *domain.PriceWatch) (*domain.PriceWatch, error)
	Delete(ctx context.Context, userID, watchID uuid.UUID) error

	// SelectDue returns up to limit active watches whose re-check interval
	// has elapsed (or that have never been checked), oldest check first with
	// never-checked watches ahead of everything. Read-only; marking a watch
	// checked is a separate explicit step.
	SelectDue(ctx context.Context, now time.Time, limit int) ([]domain.PriceWatch, error)

	// MarkChecked sets last_checked_at. Called after a scrape attempt
	// completes, whether it succeeded or terminally failed.
	MarkChecked(ctx context.Context, watchID uuid.UUID, at time.Time) error

	// ClaimAlert atomically checks the cooldown and sets last_alerted_at in
	// one statement. Returns false when the watch is still in cooldown (or
	// gone), in which case last_alerted_at is untouched.
	ClaimAlert(ctx context.Context, watchID uuid.UUID, at time.Time) (bool, error)
}
