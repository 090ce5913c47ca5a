// Package refresh periodically re-resolves cached food records whose
// nutrition data has grown stale.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/mealprep/internal/config"
	"git.home.luguber.info/inful/mealprep/internal/logfields"
	"git.home.luguber.info/inful/mealprep/internal/resolve"
	"git.home.luguber.info/inful/mealprep/internal/store"
)

// refreshUser is the actor recorded for background re-resolutions. It keeps
// refresh traffic out of per-user alias lookups and event streams.
const refreshUser = "system"

// batchSize caps how many records a single run re-resolves, so a large
// backlog spreads over several intervals instead of bursting provider quota.
const batchSize = 50

// Resolver is the subset of the resolution pipeline the job needs.
type Resolver interface {
	Resolve(ctx context.Context, user, rawName string, opts resolve.Options) (*resolve.Result, error)
}

// Job wraps a gocron scheduler that refreshes stale food records.
type Job struct {
	scheduler gocron.Scheduler
	store     store.Store
	resolver  Resolver
	interval  time.Duration
	maxAge    time.Duration
	now       func() time.Time
}

// New creates the refresh job from configuration. The scheduler is created
// but not started.
func New(cfg config.RefreshConfig, st store.Store, r Resolver) (*Job, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	j := &Job{
		scheduler: s,
		store:     st,
		resolver:  r,
		interval:  cfg.Interval.Std(),
		maxAge:    cfg.MaxAge.Std(),
		now:       time.Now,
	}

	if _, err := s.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(j.executeRefresh),
		gocron.WithName("stale-food-refresh"),
	); err != nil {
		return nil, fmt.Errorf("failed to create refresh job: %w", err)
	}

	return j, nil
}

// Start begins the scheduler.
func (j *Job) Start(ctx context.Context) {
	slog.Info("Starting refresh scheduler",
		slog.Duration("interval", j.interval),
		slog.Duration("max_age", j.maxAge))
	j.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (j *Job) Stop(ctx context.Context) error {
	slog.Info("Stopping refresh scheduler")
	return j.scheduler.Shutdown()
}

// executeRefresh is called by gocron on each tick.
func (j *Job) executeRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := j.RunOnce(ctx); err != nil {
		slog.Error("Stale food refresh failed", logfields.Error(err))
	}
}

// RunOnce refreshes one batch of stale records and returns how many were
// successfully re-resolved.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.maxAge)
	stale, err := j.store.ListStaleFoodRecords(ctx, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale food records: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	slog.Info("Refreshing stale food records", slog.Int("count", len(stale)))

	refreshed := 0
	for _, sf := range stale {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		if _, err := j.resolver.Resolve(ctx, refreshUser, sf.LookupName, resolve.Options{ForceRefresh: true}); err != nil {
			// A record that no longer resolves keeps its old data; the
			// next run will try again.
			slog.Warn("Failed to refresh food record",
				slog.String("name", sf.LookupName),
				logfields.Source(string(sf.Record.Source)),
				logfields.Error(err))
			continue
		}
		refreshed++
	}

	slog.Info("Stale food refresh complete",
		slog.Int("refreshed", refreshed),
		slog.Int("failed", len(stale)-refreshed))
	return refreshed, nil
}
