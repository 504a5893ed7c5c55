package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/faredrop/faredrop-backend/internal/domain"
	"github.com/faredrop/faredrop-backend/internal/repository/ports"
	"github.com/faredrop/faredrop-backend/internal/scraper"
)

var (
	ErrWatchValidation = errors.New("price watch validation failed")
	ErrWatchNotFound   = errors.New("price watch not found")
)

const (
	defaultCheckIntervalMinutes = 6 * 60
	defaultCooldownMinutes      = 6 * 60
	defaultCabinClass           = "economy"
)

type PriceWatchCreateInput struct {
	TripID               uuid.UUID
	Provider             string
	TargetPrice          int64
	Currency             string
	CabinClass           string
	CheckIntervalMinutes int
	CooldownMinutes      int
}

type PriceWatchUpdateInput struct {
	Provider             *string
	TargetPrice          *int64
	Currency             *string
	CabinClass           *string
	IsActive             *bool
	CheckIntervalMinutes *int
	CooldownMinutes      *int
}

// PriceWatchService owns watch CRUD. Provider names are validated against
// the scraper registry at creation and update time; the orchestrator
// re-checks at scrape time.
type PriceWatchService struct {
	watches  ports.PriceWatchRepository
	trips    ports.TripRepository
	registry *scraper.Registry
}

func NewPriceWatchService(watches ports.PriceWatchRepository, trips ports.TripRepository, registry *scraper.Registry) *PriceWatchService {
	return &PriceWatchService{watches: watches, trips: trips, registry: registry}
}

func (s *PriceWatchService) Create(ctx context.Context, userID uuid.UUID, input PriceWatchCreateInput) (*domain.PriceWatch, error) {
	if _, err := s.trips.FindByID(ctx, userID, input.TripID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	watch := &domain.PriceWatch{
		UserID:               userID,
		TripID:               input.TripID,
		Provider:             strings.TrimSpace(input.Provider),
		TargetPrice:          input.TargetPrice,
		Currency:             strings.ToUpper(strings.TrimSpace(input.Currency)),
		CabinClass:           strings.TrimSpace(input.CabinClass),
		IsActive:             true,
		CheckIntervalMinutes: input.CheckIntervalMinutes,
		CooldownMinutes:      input.CooldownMinutes,
	}
	if watch.Currency == "" {
		watch.Currency = "USD"
	}
	if watch.CabinClass == "" {
		watch.CabinClass = defaultCabinClass
	}
	if watch.CheckIntervalMinutes == 0 {
		watch.CheckIntervalMinutes = defaultCheckIntervalMinutes
	}
	if watch.CooldownMinutes == 0 {
		watch.CooldownMinutes = defaultCooldownMinutes
	}
	if err := s.validateWatch(watch); err != nil {
		return nil, err
	}
	return s.watches.Create(ctx, watch)
}

func (s *PriceWatchService) GetByID(ctx context.Context, userID, watchID uuid.UUID) (*domain.PriceWatch, error) {
	watch, err := s.watches.FindByID(ctx, userID, watchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWatchNotFound
		}
		return nil, err
	}
	return watch, nil
}

func (s *PriceWatchService) ListForUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]domain.PriceWatch, int64, error) {
	limit, offset := pageToRange(page, perPage)
	watches, err := s.watches.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.watches.CountForUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return watches, total, nil
}

func (s *PriceWatchService) ListForTrip(ctx context.Context, userID, tripID uuid.UUID, page, perPage int) ([]domain.PriceWatch, int64, error) {
	limit, offset := pageToRange(page, perPage)
	watches, err := s.watches.ListForTrip(ctx, userID, tripID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.watches.CountForTrip(ctx, userID, tripID)
	if err != nil {
		return nil, 0, err
	}
	return watches, total, nil
}

func (s *PriceWatchService) Update(ctx context.Context, userID, watchID uuid.UUID, input PriceWatchUpdateInput) (*domain.PriceWatch, error) {
	watch, err := s.GetByID(ctx, userID, watchID)
	if err != nil {
		return nil, err
	}

	if input.Provider != nil {
		watch.Provider = strings.TrimSpace(*input.Provider)
	}
	if input.TargetPrice != nil {
		watch.TargetPrice = *input.TargetPrice
	}
	if input.Currency != nil {
		watch.Currency = strings.ToUpper(strings.TrimSpace(*input.Currency))
	}
	if input.CabinClass != nil {
		watch.CabinClass = strings.TrimSpace(*input.CabinClass)
	}
	if input.IsActive != nil {
		watch.IsActive = *input.IsActive
	}
	if input.CheckIntervalMinutes != nil {
		watch.CheckIntervalMinutes = *input.CheckIntervalMinutes
	}
	if input.CooldownMinutes != nil {
		watch.CooldownMinutes = *input.CooldownMinutes
	}
	if err := s.validateWatch(watch); err != nil {
		return nil, err
	}

	updated, err := s.watches.Update(ctx, watch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWatchNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (s *PriceWatchService) Delete(ctx context.Context, userID, watchID uuid.UUID) error {
	if err := s.watches.Delete(ctx, userID, watchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrWatchNotFound
		}
		return err
	}
	return nil
}

func (s *PriceWatchService) validateWatch(watch *domain.PriceWatch) error {
	if watch.TargetPrice <= 0 {
		return errValidationf(ErrWatchValidation, "target_price must be positive (minor currency units)")
	}
	if len(watch.Currency) != 3 {
		return errValidationf(ErrWatchValidation, "currency must be a 3-letter ISO 4217 code")
	}
	if interval := watch.CheckInterval(); interval < domain.MinCheckInterval || interval > domain.MaxCheckInterval {
		return errValidationf(ErrWatchValidation, "check interval must be between %s and %s",
			domain.MinCheckInterval, domain.MaxCheckInterval)
	}
	if cooldown := watch.Cooldown(); cooldown < domain.MinCooldown || cooldown > domain.MaxCooldown {
		return errValidationf(ErrWatchValidation, "cooldown must be between %s and %s",
			domain.MinCooldown, domain.MaxCooldown)
	}
	if _, err := s.registry.Get(watch.Provider); err != nil {
		var unknown *scraper.UnknownProviderError
		if errors.As(err, &unknown) {
			return errValidationf(ErrWatchValidation, "%s", unknown.Error())
		}
		return err
	}
	return nil
}
