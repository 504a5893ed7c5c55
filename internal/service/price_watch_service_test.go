package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/faredrop/faredrop-backend/internal/domain"
	"github.com/faredrop/faredrop-backend/internal/scraper"
	"github.com/faredrop/faredrop-backend/internal/scraper/providers"
)

func watchServiceFixture(t *testing.T) (*PriceWatchService, *memWatchRepo, domain.Trip) {
	t.Helper()

	trips := newMemTripRepo()
	watches := newMemWatchRepo()
	registry := scraper.NewRegistry()
	registry.Register(providers.SimulatedName, providers.NewSimulated)

	trip := trips.put(domain.Trip{
		UserID:        uuid.New(),
		Origin:        "SFO",
		Destination:   "JFK",
		DepartureDate: time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC),
		Travelers:     1,
		TripType:      domain.TripTypeFlight,
	})
	return NewPriceWatchService(watches, trips, registry), watches, trip
}

func TestWatchCreateAppliesDefaults(t *testing.T) {
	svc, _, trip := watchServiceFixture(t)

	watch, err := svc.Create(context.Background(), trip.UserID, PriceWatchCreateInput{
		TripID:      trip.ID,
		Provider:    providers.SimulatedName,
		TargetPrice: 25000,
		Currency:    "usd",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if watch.Currency != "USD" {
		t.Fatalf("expected currency normalized to USD, got %q", watch.Currency)
	}
	if watch.CabinClass != "economy" {
		t.Fatalf("expected default cabin class, got %q", watch.CabinClass)
	}
	if watch.CheckIntervalMinutes != 360 || watch.CooldownMinutes != 360 {
		t.Fatalf("expected 360-minute defaults, got interval=%d cooldown=%d",
			watch.CheckIntervalMinutes, watch.CooldownMinutes)
	}
	if !watch.IsActive {
		t.Fatal("new watches start active")
	}
}

func TestWatchCreateValidation(t *testing.T) {
	svc, _, trip := watchServiceFixture(t)

	cases := []struct {
		name   string
		input  PriceWatchCreateInput
		expect error
	}{
		{
			"unknown trip",
			PriceWatchCreateInput{TripID: uuid.New(), Provider: providers.SimulatedName, TargetPrice: 100, Currency: "USD"},
			ErrTripNotFound,
		},
		{
			"zero target price",
			PriceWatchCreateInput{TripID: trip.ID, Provider: providers.SimulatedName, TargetPrice: 0, Currency: "USD"},
			ErrWatchValidation,
		},
		{
			"bad currency",
			PriceWatchCreateInput{TripID: trip.ID, Provider: providers.SimulatedName, TargetPrice: 100, Currency: "DOLLARS"},
			ErrWatchValidation,
		},
		{
			"interval below minimum",
			PriceWatchCreateInput{TripID: trip.ID, Provider: providers.SimulatedName, TargetPrice: 100, Currency: "USD", CheckIntervalMinutes: 5},
			ErrWatchValidation,
		},
		{
			"cooldown above maximum",
			PriceWatchCreateInput{TripID: trip.ID, Provider: providers.SimulatedName, TargetPrice: 100, Currency: "USD", CooldownMinutes: 60 * 100},
			ErrWatchValidation,
		},
		{
			"unregistered provider",
			PriceWatchCreateInput{TripID: trip.ID, Provider: "kayak", TargetPrice: 100, Currency: "USD"},
			ErrWatchValidation,
		},
	}
	for _, tc := range cases {
		if _, err := svc.Create(context.Background(), trip.UserID, tc.input); !errors.Is(err, tc.expect) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.expect, err)
		}
	}
}

func TestWatchUpdateDeactivate(t *testing.T) {
	svc, watches, trip := watchServiceFixture(t)

	watch, err := svc.Create(context.Background(), trip.UserID, PriceWatchCreateInput{
		TripID:      trip.ID,
		Provider:    providers.SimulatedName,
		TargetPrice: 25000,
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	inactive := false
	updated, err := svc.Update(context.Background(), trip.UserID, watch.ID, PriceWatchUpdateInput{
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.IsActive {
		t.Fatal("expected watch deactivated")
	}

	// Deactivated watches never show up as due.
	due, err := watches.SelectDue(context.Background(), time.Now().UTC().Add(24*time.Hour), 10)
	if err != nil {
		t.Fatalf("SelectDue returned error: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("expected no due watches, got %d", len(due))
	}
}
