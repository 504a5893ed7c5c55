package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/faredrop/faredrop-backend/internal/domain"
	"github.com/faredrop/faredrop-backend/internal/repository/ports"
	"github.com/faredrop/faredrop-backend/internal/scraper"
)

// ErrScrapeRateLimited reports that a manual scrape was denied because the
// provider's rate-limit budget for the current window is spent.
var ErrScrapeRateLimited = errors.New("provider rate limit reached")

// Per-watch outcome statuses. Deferred means the rate limiter denied the
// request this tick; the watch is not marked checked and stays due.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeDeferred  = "deferred"
)

type WatchOutcome struct {
	WatchID   uuid.UUID  `json:"watch_id"`
	Provider  string     `json:"provider"`
	Status    string     `json:"status"`
	Snapshots int        `json:"snapshots"`
	AlertID   *uuid.UUID `json:"alert_id,omitempty"`
	Error     string     `json:"error,omitempty"`

	// MarkFailed reports that last_checked_at could not be written after the
	// run, so the watch stays due and will be picked up again next tick.
	MarkFailed bool `json:"mark_failed,omitempty"`
}

// BatchSummary aggregates one batch of watch runs. One watch's failure never
// aborts the others; every watch lands in exactly one bucket.
type BatchSummary struct {
	Total        int            `json:"total"`
	Succeeded    int            `json:"succeeded"`
	Failed       int            `json:"failed"`
	Deferred     int            `json:"deferred"`
	MarkFailures int            `json:"mark_failures,omitempty"`
	Outcomes     []WatchOutcome `json:"outcomes,omitempty"`
}

type ScrapeConfig struct {
	MaxRetries            int
	BaseDelay             time.Duration
	FetchTimeout          time.Duration
	Concurrency           int
	ArchiveBucket         string
	ArchiveThresholdBytes int
}

func (c ScrapeConfig) withDefaults() ScrapeConfig {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 30 * time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.ArchiveThresholdBytes <= 0 {
		c.ArchiveThresholdBytes = 32 * 1024
	}
	return c
}

// ScrapeService orchestrates the scrape of a single watch end to end:
// rate-limit check, provider resolution, fetch with retries, snapshot
// persistence, and alert evaluation. It is used by both the scheduler and
// the manual trigger endpoints, so both paths behave identically.
type ScrapeService struct {
	trips     ports.TripRepository
	watches   ports.PriceWatchRepository
	snapshots ports.PriceSnapshotRepository
	registry  *scraper.Registry
	limiter   scraper.RateLimiter
	retry     scraper.RetryExecutor
	alerts    *AlertService
	archive   ports.ObjectStorage
	cfg       ScrapeConfig
	now       func() time.Time
}

func NewScrapeService(
	trips ports.TripRepository,
	watches ports.PriceWatchRepository,
	snapshots ports.PriceSnapshotRepository,
	registry *scraper.Registry,
	limiter scraper.RateLimiter,
	alerts *AlertService,
	archive ports.ObjectStorage,
	cfg ScrapeConfig,
) *ScrapeService {
	cfg = cfg.withDefaults()
	if limiter == nil {
		limiter = scraper.AllowAll{}
	}
	return &ScrapeService{
		trips:     trips,
		watches:   watches,
		snapshots: snapshots,
		registry:  registry,
		limiter:   limiter,
		retry:     scraper.NewRetryExecutor(cfg.MaxRetries, cfg.BaseDelay),
		alerts:    alerts,
		archive:   archive,
		cfg:       cfg,
		now:       time.Now,
	}
}

// RunWatch processes one due watch. Every exit path decides explicitly
// whether the watch gets marked checked:
//   - rate-limit denial: not marked, stays due for the next tick
//   - terminal failure (unknown provider, missing trip): marked, so a
//     broken configuration cannot hot-loop
//   - exhausted retries: marked, no snapshots
//   - persistence failure: not marked, so the scrape is retried next tick
//   - success: marked, one snapshot per provider result
func (s *ScrapeService) RunWatch(ctx context.Context, watch *domain.PriceWatch) WatchOutcome {
	outcome := WatchOutcome{WatchID: watch.ID, Provider: watch.Provider}

	if !s.limiter.Allow(ctx, watch.Provider) {
		log.Printf("scrape: watch %s deferred, provider %s over rate limit", watch.ID, watch.Provider)
		outcome.Status = OutcomeDeferred
		return outcome
	}

	trip, err := s.trips.FindByID(ctx, watch.UserID, watch.TripID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Orphaned watch; mark checked so it does not monopolize ticks.
			outcome.MarkFailed = !s.markChecked(ctx, watch.ID)
			return s.failed(outcome, fmt.Errorf("trip %s not found", watch.TripID))
		}
		return s.failed(outcome, fmt.Errorf("load trip %s: %w", watch.TripID, err))
	}

	provider, err := s.registry.Get(watch.Provider)
	if err != nil {
		outcome.MarkFailed = !s.markChecked(ctx, watch.ID)
		return s.failed(outcome, err)
	}

	query := scraper.Query{
		Origin:        trip.Origin,
		Destination:   trip.Destination,
		DepartureDate: trip.DepartureDate,
		ReturnDate:    trip.ReturnDate,
		Travelers:     trip.Travelers,
		CabinClass:    watch.CabinClass,
		TripID:        trip.ID,
		UserID:        watch.UserID,
	}

	var results []scraper.PriceResult
	err = s.retry.Run(ctx, watch.Provider, func(ctx context.Context) error {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
		fetched, err := provider.Fetch(fetchCtx, query)
		if err != nil {
			return err
		}
		results = fetched
		return nil
	})
	if err != nil {
		outcome.MarkFailed = !s.markChecked(ctx, watch.ID)
		return s.failed(outcome, err)
	}

	stored, err := s.storeResults(ctx, results, trip.ID, watch.UserID)
	if err != nil {
		return s.failed(outcome, fmt.Errorf("persist snapshots: %w", err))
	}
	outcome.MarkFailed = !s.markChecked(ctx, watch.ID)
	outcome.Status = OutcomeSucceeded
	outcome.Snapshots = len(stored)

	alert, err := s.alerts.Evaluate(ctx, watch, stored)
	if err != nil {
		log.Printf("scrape: alert evaluation for watch %s: %v", watch.ID, err)
	} else if alert != nil {
		outcome.AlertID = &alert.ID
	}
	return outcome
}

// RunBatch fans the watches out over a bounded worker pool. Worker count
// bounds aggregate concurrency; per-provider pressure is the rate limiter's
// job. Outcomes are collected per watch, never short-circuited.
func (s *ScrapeService) RunBatch(ctx context.Context, watches []domain.PriceWatch) BatchSummary {
	summary := BatchSummary{Total: len(watches)}
	if len(watches) == 0 {
		return summary
	}

	outcomes := make([]WatchOutcome, len(watches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range watches {
		g.Go(func() error {
			outcomes[i] = s.RunWatch(gctx, &watches[i])
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in outcomes

	for _, outcome := range outcomes {
		switch outcome.Status {
		case OutcomeSucceeded:
			summary.Succeeded++
		case OutcomeDeferred:
			summary.Deferred++
		default:
			summary.Failed++
		}
		if outcome.MarkFailed {
			summary.MarkFailures++
		}
	}
	summary.Outcomes = outcomes
	return summary
}

// RunWatchByID is the manual single-watch trigger exposed over the API.
func (s *ScrapeService) RunWatchByID(ctx context.Context, userID, watchID uuid.UUID) (WatchOutcome, error) {
	watch, err := s.watches.FindByID(ctx, userID, watchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return WatchOutcome{}, ErrWatchNotFound
		}
		return WatchOutcome{}, err
	}
	return s.RunWatch(ctx, watch), nil
}

// ScrapeTrip is the manual trip-scoped trigger: fetch prices from one
// provider for a trip, store the snapshots, and evaluate every active watch
// on the trip against them. Rate limiting and retries apply exactly as in
// the scheduled path.
func (s *ScrapeService) ScrapeTrip(ctx context.Context, userID, tripID uuid.UUID, providerName, cabinClass string) ([]domain.PriceSnapshot, []domain.Alert, error) {
	trip, err := s.trips.FindByID(ctx, userID, tripID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrTripNotFound
		}
		return nil, nil, err
	}

	provider, err := s.registry.Get(providerName)
	if err != nil {
		return nil, nil, err
	}

	if !s.limiter.Allow(ctx, providerName) {
		return nil, nil, fmt.Errorf("%w: %s", ErrScrapeRateLimited, providerName)
	}

	if cabinClass == "" {
		cabinClass = defaultCabinClass
	}
	query := scraper.Query{
		Origin:        trip.Origin,
		Destination:   trip.Destination,
		DepartureDate: trip.DepartureDate,
		ReturnDate:    trip.ReturnDate,
		Travelers:     trip.Travelers,
		CabinClass:    cabinClass,
		TripID:        trip.ID,
		UserID:        userID,
	}

	var results []scraper.PriceResult
	err = s.retry.Run(ctx, providerName, func(ctx context.Context) error {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
		fetched, err := provider.Fetch(fetchCtx, query)
		if err != nil {
			return err
		}
		results = fetched
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	stored, err := s.storeResults(ctx, results, trip.ID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("persist snapshots: %w", err)
	}

	alerts, err := s.alerts.EvaluateTrip(ctx, trip.ID, stored)
	if err != nil {
		log.Printf("scrape: alert evaluation for trip %s: %v", trip.ID, err)
	}
	return stored, alerts, nil
}

// PriceHistory returns the stored snapshots for a trip, newest first.
func (s *ScrapeService) PriceHistory(ctx context.Context, userID, tripID uuid.UUID, provider *string, page, perPage int) ([]domain.PriceSnapshot, int64, error) {
	if _, err := s.trips.FindByID(ctx, userID, tripID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrTripNotFound
		}
		return nil, 0, err
	}

	limit, offset := pageToRange(page, perPage)
	snapshots, err := s.snapshots.ListForTrip(ctx, userID, tripID, provider, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.snapshots.CountForTrip(ctx, userID, tripID, provider)
	if err != nil {
		return nil, 0, err
	}
	return snapshots, total, nil
}

func (s *ScrapeService) storeResults(ctx context.Context, results []scraper.PriceResult, tripID, userID uuid.UUID) ([]domain.PriceSnapshot, error) {
	stored := make([]domain.PriceSnapshot, 0, len(results))
	for _, result := range results {
		snapshot := &domain.PriceSnapshot{
			TripID:            tripID,
			UserID:            userID,
			Provider:          result.Provider,
			Price:             result.Price,
			Currency:          result.Currency,
			OutboundDeparture: result.OutboundDeparture,
			OutboundArrival:   result.OutboundArrival,
			ReturnDeparture:   result.ReturnDeparture,
			ReturnArrival:     result.ReturnArrival,
			Stops:             result.Stops,
			ScrapedAt:         result.ScrapedAt,
		}
		if result.CabinClass != "" {
			cabin := result.CabinClass
			snapshot.CabinClass = &cabin
		}
		if result.Airline != "" {
			airline := result.Airline
			snapshot.Airline = &airline
		}
		if snapshot.ScrapedAt.IsZero() {
			snapshot.ScrapedAt = s.now().UTC()
		}
		s.attachRawData(ctx, snapshot, result.RawData)

		created, err := s.snapshots.Create(ctx, snapshot)
		if err != nil {
			return nil, err
		}
		stored = append(stored, *created)
	}
	return stored, nil
}

// attachRawData keeps the provider payload inline unless it exceeds the
// archive threshold and object storage is configured, in which case only a
// URL is stored on the row. Archive failures fall back to inline storage.
func (s *ScrapeService) attachRawData(ctx context.Context, snapshot *domain.PriceSnapshot, raw []byte) {
	if len(raw) == 0 {
		return
	}
	if s.archive == nil || len(raw) <= s.cfg.ArchiveThresholdBytes {
		snapshot.RawData = raw
		return
	}

	objectName := fmt.Sprintf("%s/%s/%d.json",
		snapshot.Provider, snapshot.TripID, s.now().UTC().UnixNano())
	url, err := s.archive.Upload(ctx, s.cfg.ArchiveBucket, objectName,
		"application/json", bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		log.Printf("scrape: archive payload for trip %s: %v, keeping inline", snapshot.TripID, err)
		snapshot.RawData = raw
		return
	}
	snapshot.RawDataURL = &url
}

func (s *ScrapeService) markChecked(ctx context.Context, watchID uuid.UUID) bool {
	if err := s.watches.MarkChecked(ctx, watchID, s.now().UTC()); err != nil {
		log.Printf("scrape: mark watch %s checked: %v", watchID, err)
		return false
	}
	return true
}

func (s *ScrapeService) failed(outcome WatchOutcome, err error) WatchOutcome {
	log.Printf("scrape: watch %s failed: %v", outcome.WatchID, err)
	outcome.Status = OutcomeFailed
	outcome.Error = err.Error()
	return outcome
}
