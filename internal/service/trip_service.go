package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/faredrop/faredrop-backend/internal/domain"
	"github.com/faredrop/faredrop-backend/internal/repository/ports"
)

var (
	ErrTripValidation = errors.New("trip validation failed")
	ErrTripNotFound   = errors.New("trip not found")
)

var validTripTypes = map[string]struct{}{
	domain.TripTypeFlight:    {},
	domain.TripTypeHotel:     {},
	domain.TripTypeCarRental: {},
}

type TripCreateInput struct {
	Origin        string
	Destination   string
	DepartureDate time.Time
	ReturnDate    *time.Time
	Travelers     int
	TripType      string
	Notes         *string
}

type TripUpdateInput struct {
	Origin        *string
	Destination   *string
	DepartureDate *time.Time
	ReturnDate    *time.Time
	Travelers     *int
	TripType      *string
	Notes         *string
}

type TripService struct {
	trips ports.TripRepository
}

func NewTripService(trips ports.TripRepository) *TripService {
	return &TripService{trips: trips}
}

func (s *TripService) Create(ctx context.Context, userID uuid.UUID, input TripCreateInput) (*domain.Trip, error) {
	trip := &domain.Trip{
		UserID:        userID,
		Origin:        strings.ToUpper(strings.TrimSpace(input.Origin)),
		Destination:   strings.ToUpper(strings.TrimSpace(input.Destination)),
		DepartureDate: input.DepartureDate,
		ReturnDate:    input.ReturnDate,
		Travelers:     input.Travelers,
		TripType:      input.TripType,
		Notes:         input.Notes,
	}
	if trip.Travelers <= 0 {
		trip.Travelers = 1
	}
	if trip.TripType == "" {
		trip.TripType = domain.TripTypeFlight
	}
	if err := validateTrip(trip); err != nil {
		return nil, err
	}
	return s.trips.Create(ctx, trip)
}

func (s *TripService) GetByID(ctx context.Context, userID, tripID uuid.UUID) (*domain.Trip, error) {
	trip, err := s.trips.FindByID(ctx, userID, tripID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return trip, nil
}

func (s *TripService) List(ctx context.Context, userID uuid.UUID, page, perPage int) ([]domain.Trip, int64, error) {
	limit, offset := pageToRange(page, perPage)
	trips, err := s.trips.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.trips.Count(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return trips, total, nil
}

func (s *TripService) Update(ctx context.Context, userID, tripID uuid.UUID, input TripUpdateInput) (*domain.Trip, error) {
	trip, err := s.GetByID(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}

	if input.Origin != nil {
		trip.Origin = strings.ToUpper(strings.TrimSpace(*input.Origin))
	}
	if input.Destination != nil {
		trip.Destination = strings.ToUpper(strings.TrimSpace(*input.Destination))
	}
	if input.DepartureDate != nil {
		trip.DepartureDate = *input.DepartureDate
	}
	if input.ReturnDate != nil {
		trip.ReturnDate = input.ReturnDate
	}
	if input.Travelers != nil {
		trip.Travelers = *input.Travelers
	}
	if input.TripType != nil {
		trip.TripType = *input.TripType
	}
	if input.Notes != nil {
		trip.Notes = input.Notes
	}
	if err := validateTrip(trip); err != nil {
		return nil, err
	}

	updated, err := s.trips.Update(ctx, trip)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (s *TripService) Delete(ctx context.Context, userID, tripID uuid.UUID) error {
	if err := s.trips.Delete(ctx, userID, tripID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTripNotFound
		}
		return err
	}
	return nil
}

func validateTrip(trip *domain.Trip) error {
	if len(trip.Origin) != 3 {
		return errValidationf(ErrTripValidation, "origin must be a 3-letter IATA code")
	}
	if len(trip.Destination) != 3 {
		return errValidationf(ErrTripValidation, "destination must be a 3-letter IATA code")
	}
	if trip.DepartureDate.IsZero() {
		return errValidationf(ErrTripValidation, "departure_date is required")
	}
	if trip.ReturnDate != nil && trip.ReturnDate.Before(trip.DepartureDate) {
		return errValidationf(ErrTripValidation, "return_date must not precede departure_date")
	}
	if trip.Travelers < 1 || trip.Travelers > 9 {
		return errValidationf(ErrTripValidation, "travelers must be between 1 and 9")
	}
	if _, ok := validTripTypes[trip.TripType]; !ok {
		return errValidationf(ErrTripValidation, "trip_type must be one of flight, hotel, car_rental")
	}
	return nil
}
