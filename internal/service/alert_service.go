package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/faredrop/faredrop-backend/internal/domain"
	"github.com/faredrop/faredrop-backend/internal/notification"
	"github.com/faredrop/faredrop-backend/internal/repository/ports"
)

var ErrAlertNotFound = errors.New("alert not found")

// AlertService decides when a batch of fresh snapshots triggers an alert.
// The rule: the cheapest new snapshot must be strictly below the watch's
// target (a price exactly equal to the target does not trigger), and the
// watch's cooldown must have elapsed. The cooldown check and the
// last_alerted_at write happen in one atomic repository call, so concurrent
// evaluations of the same watch can never double-alert.
type AlertService struct {
	alerts     ports.AlertRepository
	watches    ports.PriceWatchRepository
	trips      ports.TripRepository
	dispatcher notification.Dispatcher
	now        func() time.Time
}

func NewAlertService(
	alerts ports.AlertRepository,
	watches ports.PriceWatchRepository,
	trips ports.TripRepository,
	dispatcher notification.Dispatcher,
) *AlertService {
	return &AlertService{
		alerts:     alerts,
		watches:    watches,
		trips:      trips,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Evaluate inspects the snapshots just stored for a watch and returns the
// created alert, or nil when nothing triggered. Snapshots from other
// providers are ignored. Dispatch failure is recorded on the alert's status
// and does not undo the trigger.
func (s *AlertService) Evaluate(ctx context.Context, watch *domain.PriceWatch, snapshots []domain.PriceSnapshot) (*domain.Alert, error) {
	best := cheapestForProvider(snapshots, watch.Provider)
	if best == nil {
		return nil, nil
	}
	if best.Price >= watch.TargetPrice {
		return nil, nil
	}

	now := s.now().UTC()
	claimed, err := s.watches.ClaimAlert(ctx, watch.ID, now)
	if err != nil {
		return nil, fmt.Errorf("claim alert for watch %s: %w", watch.ID, err)
	}
	if !claimed {
		log.Printf("alerts: watch %s in cooldown, skipping", watch.ID)
		return nil, nil
	}

	message := s.buildMessage(ctx, watch, best)
	alert := &domain.Alert{
		PriceWatchID:    watch.ID,
		UserID:          watch.UserID,
		PriceSnapshotID: best.ID,
		AlertType:       domain.AlertTypePriceDrop,
		Channel:         s.dispatcher.Channel(),
		Status:          domain.AlertStatusPending,
		TargetPrice:     watch.TargetPrice,
		TriggeredPrice:  best.Price,
		Message:         &message,
	}
	created, err := s.alerts.Create(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("create alert for watch %s: %w", watch.ID, err)
	}

	s.dispatch(ctx, created, message)
	return created, nil
}

// EvaluateTrip runs Evaluate for every active watch on a trip. Used by the
// trip-scoped manual scrape, where one batch of snapshots can satisfy
// several watches at once.
func (s *AlertService) EvaluateTrip(ctx context.Context, tripID uuid.UUID, snapshots []domain.PriceSnapshot) ([]domain.Alert, error) {
	if len(snapshots) == 0 {
		return nil, nil
	}
	watches, err := s.watches.ListActiveForTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load watches for trip %s: %w", tripID, err)
	}

	var created []domain.Alert
	for i := range watches {
		alert, err := s.Evaluate(ctx, &watches[i], snapshots)
		if err != nil {
			log.Printf("alerts: evaluate watch %s: %v", watches[i].ID, err)
			continue
		}
		if alert != nil {
			created = append(created, *alert)
		}
	}
	return created, nil
}

func (s *AlertService) dispatch(ctx context.Context, alert *domain.Alert, message string) {
	payload := notification.Payload{
		UserID:  alert.UserID,
		AlertID: alert.ID,
		Subject: "Price drop alert",
		Body:    message,
	}

	status := domain.AlertStatusSent
	var sentAt *time.Time
	if err := s.dispatcher.Send(ctx, payload); err != nil {
		log.Printf("alerts: dispatch alert %s failed: %v", alert.ID, err)
		status = domain.AlertStatusFailed
	} else {
		at := s.now().UTC()
		sentAt = &at
	}

	if err := s.alerts.UpdateStatus(ctx, alert.ID, status, sentAt); err != nil {
		log.Printf("alerts: record status for alert %s: %v", alert.ID, err)
		return
	}
	alert.Status = status
	alert.SentAt = sentAt
}

func (s *AlertService) buildMessage(ctx context.Context, watch *domain.PriceWatch, snapshot *domain.PriceSnapshot) string {
	route := "your trip"
	if trip, err := s.trips.FindByID(ctx, watch.UserID, watch.TripID); err == nil {
		route = fmt.Sprintf("%s to %s on %s",
			trip.Origin, trip.Destination, trip.DepartureDate.Format("2006-01-02"))
	}
	price := float64(snapshot.Price) / 100
	target := float64(watch.TargetPrice) / 100
	return fmt.Sprintf("Great news! A flight for %s is now $%.2f, $%.2f below your target of $%.2f.",
		route, price, target-price, target)
}

func cheapestForProvider(snapshots []domain.PriceSnapshot, provider string) *domain.PriceSnapshot {
	var best *domain.PriceSnapshot
	for i := range snapshots {
		if snapshots[i].Provider != provider {
			continue
		}
		// Strictly-less keeps the first-seen snapshot on price ties.
		if best == nil || snapshots[i].Price < best.Price {
			best = &snapshots[i]
		}
	}
	return best
}

// --- history queries ---

func (s *AlertService) GetByID(ctx context.Context, userID, alertID uuid.UUID) (*domain.Alert, error) {
	alert, err := s.alerts.FindByID(ctx, userID, alertID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	return alert, nil
}

func (s *AlertService) ListForUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]domain.Alert, int64, error) {
	limit, offset := pageToRange(page, perPage)
	alerts, err := s.alerts.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.alerts.CountForUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

func (s *AlertService) ListForWatch(ctx context.Context, userID, watchID uuid.UUID, page, perPage int) ([]domain.Alert, int64, error) {
	limit, offset := pageToRange(page, perPage)
	alerts, err := s.alerts.ListForWatch(ctx, userID, watchID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.alerts.CountForWatch(ctx, userID, watchID)
	if err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}
