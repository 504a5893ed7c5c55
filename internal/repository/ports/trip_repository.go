package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/faredrop/faredrop-backend/internal/domain"
)

type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) (*domain.Trip, error)
	FindByID(ctx context.Context, userID, tripID uuid.UUID) (*domain.Trip, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Trip, error)
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
	Update(ctx context.Context, trip *domain.Trip) (*domain.Trip, error)
	Delete(ctx context.Context, userID, tripID uuid.UUID) error
}
