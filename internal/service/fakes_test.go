package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/faredrop/faredrop-backend/internal/domain"
	"github.com/faredrop/faredrop-backend/internal/notification"
)

// In-memory fakes for the repository ports. They keep just enough state for
// scenario tests to drive the pipeline end to end without a database.

type memTripRepo struct {
	mu    sync.Mutex
	trips map[uuid.UUID]domain.Trip
}

func newMemTripRepo() *memTripRepo {
	return &memTripRepo{trips: make(map[uuid.UUID]domain.Trip)}
}

func (r *memTripRepo) put(trip domain.Trip) domain.Trip {
	r.mu.Lock()
	defer r.mu.Unlock()
	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now().UTC()
	}
	r.trips[trip.ID] = trip
	return trip
}

func (r *memTripRepo) Create(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	created := r.put(*trip)
	return &created, nil
}

func (r *memTripRepo) FindByID(ctx context.Context, userID, tripID uuid.UUID) (*domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trip, ok := r.trips[tripID]
	if !ok || trip.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return &trip, nil
}

func (r *memTripRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Trip
	for _, trip := range r.trips {
		if trip.UserID == userID {
			out = append(out, trip)
		}
	}
	return out, nil
}

func (r *memTripRepo) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	trips, _ := r.List(ctx, userID, 0, 0)
	return int64(len(trips)), nil
}

func (r *memTripRepo) Update(ctx context.Context, trip *domain.Trip) (*domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trips[trip.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	r.trips[trip.ID] = *trip
	updated := *trip
	return &updated, nil
}

func (r *memTripRepo) Delete(ctx context.Context, userID, tripID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	trip, ok := r.trips[tripID]
	if !ok || trip.UserID != userID {
		return sql.ErrNoRows
	}
	delete(r.trips, tripID)
	return nil
}

type memWatchRepo struct {
	mu      sync.Mutex
	watches map[uuid.UUID]domain.PriceWatch

	selectDueErr   error
	claimErr       error
	markCheckedErr error
}

func newMemWatchRepo() *memWatchRepo {
	return &memWatchRepo{watches: make(map[uuid.UUID]domain.PriceWatch)}
}

func (r *memWatchRepo) put(watch domain.PriceWatch) domain.PriceWatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	if watch.ID == uuid.Nil {
		watch.ID = uuid.New()
	}
	if watch.CreatedAt.IsZero() {
		watch.CreatedAt = time.Now().UTC()
	}
	r.watches[watch.ID] = watch
	return watch
}

func (r *memWatchRepo) get(id uuid.UUID) (domain.PriceWatch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	watch, ok := r.watches[id]
	return watch, ok
}

func (r *memWatchRepo) Create(ctx context.Context, watch *domain.PriceWatch) (*domain.PriceWatch, error) {
	created := r.put(*watch)
	return &created, nil
}

func (r *memWatchRepo) FindByID(ctx context.Context, userID, watchID uuid.UUID) (*domain.PriceWatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	watch, ok := r.watches[watchID]
	if !ok || watch.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return &watch, nil
}

func (r *memWatchRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.PriceWatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PriceWatch
	for _, watch := range r.watches {
		if watch.UserID == userID {
			out = append(out, watch)
		}
	}
	return out, nil
}

func (r *memWatchRepo) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	watches, _ := r.ListForUser(ctx, userID, 0, 0)
	return int64(len(watches)), nil
}

func (r *memWatchRepo) ListForTrip(ctx context.Context, userID, tripID uuid.UUID, limit, offset int) ([]domain.PriceWatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PriceWatch
	for _, watch := range r.watches {
		if watch.UserID == userID && watch.TripID == tripID {
			out = append(out, watch)
		}
	}
	return out, nil
}

func (r *memWatchRepo) CountForTrip(ctx context.Context, userID, tripID uuid.UUID) (int64, error) {
	watches, _ := r.ListForTrip(ctx, userID, tripID, 0, 0)
	return int64(len(watches)), nil
}

func (r *memWatchRepo) ListActiveForTrip(ctx context.Context, tripID uuid.UUID) ([]domain.PriceWatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PriceWatch
	for _, watch := range r.watches {
		if watch.TripID == tripID && watch.IsActive {
			out = append(out, watch)
		}
	}
	return out, nil
}

func (r *memWatchRepo) Update(ctx context.Context, watch *domain.PriceWatch) (*domain.PriceWatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.watches[watch.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	r.watches[watch.ID] = *watch
	updated := *watch
	return &updated, nil
}

func (r *memWatchRepo) Delete(ctx context.Context, userID, watchID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	watch, ok := r.watches[watchID]
	if !ok || watch.UserID != userID {
		return sql.ErrNoRows
	}
	delete(r.watches, watchID)
	return nil
}

func (r *memWatchRepo) SelectDue(ctx context.Context, now time.Time, limit int) ([]domain.PriceWatch, error) {
	if r.selectDueErr != nil {
		return nil, r.selectDueErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PriceWatch
	for _, watch := range r.watches {
		if watch.Due(now) {
			out = append(out, watch)
		}
	}
	// Never-checked watches first, then oldest check, mirroring the SQL's
	// ORDER BY last_checked_at ASC NULLS FIRST.
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LastCheckedAt, out[j].LastCheckedAt
		switch {
		case a == nil && b == nil:
			return out[i].ID.String() < out[j].ID.String()
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memWatchRepo) MarkChecked(ctx context.Context, watchID uuid.UUID, at time.Time) error {
	if r.markCheckedErr != nil {
		return r.markCheckedErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	watch, ok := r.watches[watchID]
	if !ok {
		return sql.ErrNoRows
	}
	watch.LastCheckedAt = &at
	r.watches[watchID] = watch
	return nil
}

func (r *memWatchRepo) ClaimAlert(ctx context.Context, watchID uuid.UUID, at time.Time) (bool, error) {
	if r.claimErr != nil {
		return false, r.claimErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	watch, ok := r.watches[watchID]
	if !ok {
		return false, nil
	}
	if watch.LastAlertedAt != nil && watch.LastAlertedAt.Add(watch.Cooldown()).After(at) {
		return false, nil
	}
	watch.LastAlertedAt = &at
	r.watches[watchID] = watch
	return true, nil
}

type memSnapshotRepo struct {
	mu        sync.Mutex
	snapshots []domain.PriceSnapshot

	createErr error
}

func (r *memSnapshotRepo) Create(ctx context.Context, snapshot *domain.PriceSnapshot) (*domain.PriceSnapshot, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	created := *snapshot
	created.ID = uuid.New()
	created.CreatedAt = time.Now().UTC()
	r.snapshots = append(r.snapshots, created)
	return &created, nil
}

func (r *memSnapshotRepo) ListForTrip(ctx context.Context, userID, tripID uuid.UUID, provider *string, limit, offset int) ([]domain.PriceSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PriceSnapshot
	for _, snapshot := range r.snapshots {
		if snapshot.UserID != userID || snapshot.TripID != tripID {
			continue
		}
		if provider != nil && snapshot.Provider != *provider {
			continue
		}
		out = append(out, snapshot)
	}
	return out, nil
}

func (r *memSnapshotRepo) CountForTrip(ctx context.Context, userID, tripID uuid.UUID, provider *string) (int64, error) {
	snapshots, _ := r.ListForTrip(ctx, userID, tripID, provider, 0, 0)
	return int64(len(snapshots)), nil
}

type memAlertRepo struct {
	mu     sync.Mutex
	alerts map[uuid.UUID]domain.Alert
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{alerts: make(map[uuid.UUID]domain.Alert)}
}

func (r *memAlertRepo) Create(ctx context.Context, alert *domain.Alert) (*domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	created := *alert
	created.ID = uuid.New()
	created.CreatedAt = time.Now().UTC()
	r.alerts[created.ID] = created
	return &created, nil
}

func (r *memAlertRepo) UpdateStatus(ctx context.Context, alertID uuid.UUID, status string, sentAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[alertID]
	if !ok {
		return sql.ErrNoRows
	}
	alert.Status = status
	alert.SentAt = sentAt
	r.alerts[alertID] = alert
	return nil
}

func (r *memAlertRepo) FindByID(ctx context.Context, userID, alertID uuid.UUID) (*domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[alertID]
	if !ok || alert.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return &alert, nil
}

func (r *memAlertRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Alert
	for _, alert := range r.alerts {
		if alert.UserID == userID {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *memAlertRepo) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	alerts, _ := r.ListForUser(ctx, userID, 0, 0)
	return int64(len(alerts)), nil
}

func (r *memAlertRepo) ListForWatch(ctx context.Context, userID, watchID uuid.UUID, limit, offset int) ([]domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Alert
	for _, alert := range r.alerts {
		if alert.UserID == userID && alert.PriceWatchID == watchID {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *memAlertRepo) CountForWatch(ctx context.Context, userID, watchID uuid.UUID) (int64, error) {
	alerts, _ := r.ListForWatch(ctx, userID, watchID, 0, 0)
	return int64(len(alerts)), nil
}

type fakeDispatcher struct {
	mu      sync.Mutex
	sent    []notification.Payload
	sendErr error
}

func (d *fakeDispatcher) Channel() string { return domain.AlertChannelLog }

func (d *fakeDispatcher) Send(ctx context.Context, payload notification.Payload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sendErr != nil {
		return d.sendErr
	}
	d.sent = append(d.sent, payload)
	return nil
}

func (d *fakeDispatcher) sentCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

type fakeStorage struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

func (s *fakeStorage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, objectName)
	return "http://storage.local/" + bucket + "/" + objectName, nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) bool { return false }

var errFakeDown = errors.New("backend down")
