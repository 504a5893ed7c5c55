package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/faredrop/faredrop-backend/internal/domain"
)

type PriceSnapshotRepository interface {
	Create(ctx context.Context, snapshot *domain.PriceSnapshot) (*domain.PriceSnapshot, error)
	ListForTrip(ctx context.Context, userID, tripID uuid.UUID, provider *string, limit, offset int) ([]domain.PriceSnapshot, error)
	CountForTrip(ctx context.Context, userID, tripID uuid.UUID, provider *string) (int64, error)
}
