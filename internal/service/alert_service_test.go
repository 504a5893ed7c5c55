package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/faredrop/faredrop-backend/internal/domain"
)

func alertTestWatch(watches *memWatchRepo, trips *memTripRepo, target int64) domain.PriceWatch {
	userID := uuid.New()
	trip := trips.put(domain.Trip{
		UserID:        userID,
		Origin:        "SFO",
		Destination:   "JFK",
		DepartureDate: time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC),
		Travelers:     1,
		TripType:      domain.TripTypeFlight,
	})
	return watches.put(domain.PriceWatch{
		UserID:               userID,
		TripID:               trip.ID,
		Provider:             "simulated",
		TargetPrice:          target,
		Currency:             "USD",
		CabinClass:           "economy",
		IsActive:             true,
		CheckIntervalMinutes: 360,
		CooldownMinutes:      60,
	})
}

func snapshotsFor(watch domain.PriceWatch, prices ...int64) []domain.PriceSnapshot {
	snapshots := make([]domain.PriceSnapshot, 0, len(prices))
	for _, price := range prices {
		snapshots = append(snapshots, domain.PriceSnapshot{
			ID:        uuid.New(),
			TripID:    watch.TripID,
			UserID:    watch.UserID,
			Provider:  watch.Provider,
			Price:     price,
			Currency:  "USD",
			ScrapedAt: time.Now().UTC(),
		})
	}
	return snapshots
}

func TestEvaluateFiresBelowTarget(t *testing.T) {
	trips := newMemTripRepo()
	watches := newMemWatchRepo()
	alerts := newMemAlertRepo()
	dispatcher := &fakeDispatcher{}
	svc := NewAlertService(alerts, watches, trips, dispatcher)

	watch := alertTestWatch(watches, trips, 25000)
	alert, err := svc.Evaluate(context.Background(), &watch, snapshotsFor(watch, 26000, 24000, 27000))
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if alert == nil {
		t.Fatal("expected an alert, got nil")
	}
	if alert.TriggeredPrice != 24000 {
		t.Fatalf("expected triggered price 24000, got %d", alert.TriggeredPrice)
	}
	if alert.Status != domain.AlertStatusSent {
		t.Fatalf("expected status %q, got %q", domain.AlertStatusSent, alert.Status)
	}
	if dispatcher.sentCount() != 1 {
		t.Fatalf("expected 1 dispatched notification, got %d", dispatcher.sentCount())
	}

	stored, ok := watches.get(watch.ID)
	if !ok {
		t.Fatal("watch vanished from repo")
	}
	if stored.LastAlertedAt == nil {
		t.Fatal("expected last_alerted_at to be set after trigger")
	}
}

func TestEvaluateEqualPriceDoesNotFire(t *testing.T) {
	trips := newMemTripRepo()
	watches := newMemWatchRepo()
	alerts := newMemAlertRepo()
	dispatcher := &fakeDispatcher{}
	svc := NewAlertService(alerts, watches, trips, dispatcher)

	watch := alertTestWatch(watches, trips, 25000)
	alert, err := svc.Evaluate(context.Background(), &watch, snapshotsFor(watch, 25000))
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if alert != nil {
		t.Fatalf("price equal to target must not fire, got alert %v", alert.ID)
	}
	if dispatcher.sentCount() != 0 {
		t.Fatalf("expected no notifications, got %d", dispatcher.sentCount())
	}
}

func TestEvaluateRespectsCooldown(t *testing.T) {
	trips := newMemTripRepo()
	watches := newMemWatchRepo()
	alerts := newMemAlertRepo()
	dispatcher := &fakeDispatcher{}
	svc := NewAlertService(alerts, watches, trips, dispatcher)

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	watch := alertTestWatch(watches, trips, 25000)
	alert, err := svc.Evaluate(context.Background(), &watch, snapshotsFor(watch, 24000))
	if err != nil || alert == nil {
		t.Fatalf("first Evaluate: alert=%v err=%v", alert, err)
	}

	// A lower price 30 minutes later stays silent, the 60-minute cooldown
	// has not elapsed.
	svc.now = func() time.Time { return base.Add(30 * time.Minute) }
	alert, err = svc.Evaluate(context.Background(), &watch, snapshotsFor(watch, 20000))
	if err != nil {
		t.Fatalf("second Evaluate returned error: %v", err)
	}
	if alert != nil {
		t.Fatal("expected cooldown to suppress second alert")
	}

	// After the cooldown a drop fires again.
	svc.now = func() time.Time { return base.Add(61 * time.Minute) }
	alert, err = svc.Evaluate(context.Background(), &watch, snapshotsFor(watch, 19000))
	if err != nil {
		t.Fatalf("third Evaluate returned error: %v", err)
	}
	if alert == nil {
		t.Fatal("expected alert after cooldown elapsed")
	}
	if dispatcher.sentCount() != 2 {
		t.Fatalf("expected 2 notifications total, got %d", dispatcher.sentCount())
	}
}

func TestEvaluateIgnoresOtherProviders(t *testing.T) {
	trips := newMemTripRepo()
	watches := newMemWatchRepo()
	alerts := newMemAlertRepo()
	svc := NewAlertService(alerts, watches, trips, &fakeDispatcher{})

	watch := alertTestWatch(watches, trips, 25000)
	snapshots := snapshotsFor(watch, 30000)
	snapshots = append(snapshots, domain.PriceSnapshot{
		ID:       uuid.New(),
		TripID:   watch.TripID,
		UserID:   watch.UserID,
		Provider: "fareapi",
		Price:    10000,
		Currency: "USD",
	})

	alert, err := svc.Evaluate(context.Background(), &watch, snapshots)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if alert != nil {
		t.Fatal("snapshot from a different provider must not trigger this watch")
	}
}

func TestEvaluateDispatchFailureMarksAlertFailed(t *testing.T) {
	trips := newMemTripRepo()
	watches := newMemWatchRepo()
	alerts := newMemAlertRepo()
	dispatcher := &fakeDispatcher{sendErr: errFakeDown}
	svc := NewAlertService(alerts, watches, trips, dispatcher)

	watch := alertTestWatch(watches, trips, 25000)
	alert, err := svc.Evaluate(context.Background(), &watch, snapshotsFor(watch, 24000))
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if alert == nil {
		t.Fatal("expected an alert despite dispatch failure")
	}
	if alert.Status != domain.AlertStatusFailed {
		t.Fatalf("expected status %q, got %q", domain.AlertStatusFailed, alert.Status)
	}
	if alert.SentAt != nil {
		t.Fatal("failed dispatch must not set sent_at")
	}

	// The cooldown is consumed even when delivery fails.
	stored, _ := watches.get(watch.ID)
	if stored.LastAlertedAt == nil {
		t.Fatal("expected last_alerted_at set after failed dispatch")
	}
}
