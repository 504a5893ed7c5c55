package service

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/faredrop/faredrop-backend/internal/domain"
	"github.com/faredrop/faredrop-backend/internal/repository/ports"
)

// ErrTickInProgress is returned when a tick is requested while the previous
// one is still running. Overlapping ticks are skipped rather than queued so
// a slow provider can never pile up concurrent batches.
var ErrTickInProgress = errors.New("scheduler tick already in progress")

type SchedulerConfig struct {
	Interval  time.Duration
	BatchSize int
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	return c
}

// Scheduler drives the periodic re-check loop: every Interval it selects
// the due watches (never-checked first, then oldest check) and hands them to
// the scrape service's worker pool. The "is a tick running" flag is the one
// piece of process-wide mutable state here and lives in a single atomic.
type Scheduler struct {
	watches ports.PriceWatchRepository
	scrapes *ScrapeService
	cfg     SchedulerConfig

	running atomic.Bool
	now     func() time.Time
	tick    <-chan time.Time
}

func NewScheduler(watches ports.PriceWatchRepository, scrapes *ScrapeService, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		watches: watches,
		scrapes: scrapes,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
}

// Start blocks, running one tick every interval until ctx is cancelled.
// The tick source is a field so tests can drive the loop from a plain
// channel instead of waiting on a real timer.
func (s *Scheduler) Start(ctx context.Context) {
	log.Printf("scheduler: starting, interval=%s batch=%d", s.cfg.Interval, s.cfg.BatchSize)
	tick := s.tick
	if tick == nil {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("scheduler: stopping: %v", ctx.Err())
			return
		case <-tick:
			summary, err := s.RunTick(ctx)
			if err != nil {
				if errors.Is(err, ErrTickInProgress) {
					log.Printf("scheduler: previous tick still running, skipping")
					continue
				}
				// Selector failure aborts only this tick; the next one
				// starts fresh.
				log.Printf("scheduler: tick failed: %v", err)
				continue
			}
			log.Printf("scheduler: tick done total=%d succeeded=%d failed=%d deferred=%d markfailures=%d",
				summary.Total, summary.Succeeded, summary.Failed, summary.Deferred, summary.MarkFailures)
		}
	}
}

// RunTick executes one scheduling pass: select due watches, scrape them.
// Also exposed over the operational API so tooling and tests can drive
// ticks without waiting for the timer.
func (s *Scheduler) RunTick(ctx context.Context) (BatchSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return BatchSummary{}, ErrTickInProgress
	}
	defer s.running.Store(false)

	due, err := s.selectDue(ctx)
	if err != nil {
		return BatchSummary{}, err
	}
	return s.scrapes.RunBatch(ctx, due), nil
}

func (s *Scheduler) selectDue(ctx context.Context) ([]domain.PriceWatch, error) {
	due, err := s.watches.SelectDue(ctx, s.now().UTC(), s.cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	return due, nil
}
