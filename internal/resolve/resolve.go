// Package resolve links ingredient names to nutrition records, trying the
// local cache first and falling back through the configured providers.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/mealprep/internal/eventlog"
	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/ingredient"
	"git.home.luguber.info/inful/mealprep/internal/logfields"
	"git.home.luguber.info/inful/mealprep/internal/metrics"
	"git.home.luguber.info/inful/mealprep/internal/nutrition"
	"git.home.luguber.info/inful/mealprep/internal/observability"
	"git.home.luguber.info/inful/mealprep/internal/store"
)

// Searcher finds candidate records for a cleaned ingredient name.
type Searcher interface {
	SearchFoods(ctx context.Context, query string) ([]nutrition.FoodRecord, error)
}

// SearcherFunc adapts a plain function to Searcher.
type SearcherFunc func(ctx context.Context, query string) ([]nutrition.FoodRecord, error)

func (f SearcherFunc) SearchFoods(ctx context.Context, query string) ([]nutrition.FoodRecord, error) {
	return f(ctx, query)
}

// BarcodeLookup fetches a record by exact barcode.
type BarcodeLookup interface {
	ProductByBarcode(ctx context.Context, barcode string) (*nutrition.FoodRecord, error)
}

// Attempt outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected" // candidates found, none passed the keyword gate
	OutcomeNoMatch  = "no_match"
	OutcomeError    = "error"
)

// Attempt records one step of the fallback chain for transparency.
type Attempt struct {
	Source     string `json:"source"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Options tune a single resolution.
type Options struct {
	UPC          string // exact barcode lookup, skips the keyword gate
	ForceRefresh bool   // bypass the cache
	IngredientID string // recipe ingredient line to link on success
}

// Result is a successful resolution.
type Result struct {
	Record   *nutrition.FoodRecord `json:"record"`
	Source   string                `json:"source"` // "cache" or the provider name
	Cleaned  string                `json:"cleaned_name"`
	Attempts []Attempt             `json:"attempts,omitempty"`
}

// UnresolvedError is returned when every source has been exhausted.
type UnresolvedError struct {
	Name     string
	Attempts []Attempt
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("no nutrition data found for %q after %d attempts", e.Name, len(e.Attempts))
}

type source struct {
	name     string
	searcher Searcher
}

// Resolver runs the cache-then-providers fallback chain.
type Resolver struct {
	store   store.Store
	events  *eventlog.Log
	metrics metrics.Recorder

	mu          sync.RWMutex // guards the source set for config hot-reload
	barcodeName string
	barcode     BarcodeLookup
	sources     []source

	now func() time.Time
}

// New creates a resolver. events may be nil; rec may be nil for no metrics.
func New(st store.Store, events *eventlog.Log, rec metrics.Recorder) *Resolver {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Resolver{
		store:   st,
		events:  events,
		metrics: rec,
		now:     time.Now,
	}
}

// SetBarcodeLookup installs the exact-barcode source.
func (r *Resolver) SetBarcodeLookup(name string, lookup BarcodeLookup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.barcodeName = name
	r.barcode = lookup
}

// AddSource appends a name-search source to the fallback chain. Sources are
// tried in registration order.
func (r *Resolver) AddSource(name string, s Searcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source{name: name, searcher: s})
}

// ResetSources drops all registered sources, including the barcode lookup.
// Used when provider credentials change and clients are rebuilt.
func (r *Resolver) ResetSources() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.barcodeName = ""
	r.barcode = nil
	r.sources = nil
}

// snapshot returns the current source set for a single resolution, so a
// concurrent reload cannot change the chain mid-flight.
func (r *Resolver) snapshot() (string, BarcodeLookup, []source) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.barcodeName, r.barcode, r.sources
}

// Resolve finds a nutrition record for rawName. The cleaned, canonicalized
// name is the cache key; provider fallback order is barcode (when opts.UPC is
// set), then the registered search sources. All provider candidates except
// barcode hits must pass the keyword gate against the query.
func (r *Resolver) Resolve(ctx context.Context, user, rawName string, opts Options) (*Result, error) {
	aliases, err := r.store.ListAliases(ctx, user)
	if err != nil {
		return nil, err
	}
	name := ingredient.Canonical(aliases, rawName)
	if name == "" && opts.UPC == "" {
		return nil, apperrors.ValidationError("ingredient name is empty after cleaning")
	}
	ctx = observability.WithIngredient(ctx, name)

	start := r.now()
	var attempts []Attempt

	if !opts.ForceRefresh {
		if rec := r.cacheLookup(ctx, name, opts.UPC); rec != nil {
			r.metrics.IncCacheHit(true)
			return r.accept(ctx, user, name, "cache", rec, attempts, opts, start)
		}
		r.metrics.IncCacheHit(false)
	}

	barcodeName, barcode, sources := r.snapshot()

	if opts.UPC != "" && barcode != nil {
		rec, attempt := r.tryBarcode(ctx, barcodeName, barcode, opts.UPC)
		attempts = append(attempts, attempt)
		if rec != nil {
			return r.accept(ctx, user, name, barcodeName, rec, attempts, opts, start)
		}
	}

	// Text search needs a query; a barcode-only request stops here.
	if name != "" {
		for _, src := range sources {
			rec, attempt := r.trySearch(ctx, src, name)
			attempts = append(attempts, attempt)
			if rec != nil {
				return r.accept(ctx, user, name, src.name, rec, attempts, opts, start)
			}
		}
	}

	r.metrics.IncResolutionOutcome("unresolved")
	r.metrics.ObserveResolutionDuration(r.now().Sub(start))
	r.logEvent(ctx, user, map[string]any{
		"name":     name,
		"resolved": false,
		"attempts": attempts,
	})

	return nil, &UnresolvedError{Name: name, Attempts: attempts}
}

func (r *Resolver) cacheLookup(ctx context.Context, name, upc string) *nutrition.FoodRecord {
	if upc != "" {
		if rec, err := r.store.FindFoodByUPC(ctx, upc); err == nil {
			return rec
		}
	}
	if name == "" {
		return nil
	}
	rec, err := r.store.FindFoodByName(ctx, name)
	if err != nil {
		return nil
	}
	return rec
}

func (r *Resolver) tryBarcode(ctx context.Context, sourceName string, lookup BarcodeLookup, upc string) (*nutrition.FoodRecord, Attempt) {
	start := r.now()
	rec, err := lookup.ProductByBarcode(ctx, upc)
	elapsed := r.now().Sub(start).Milliseconds()
	if err != nil {
		outcome := OutcomeError
		if apperrors.IsCategory(err, apperrors.CategoryNotFound) {
			outcome = OutcomeNoMatch
		}
		return nil, Attempt{Source: sourceName, Outcome: outcome, Error: err.Error(), DurationMS: elapsed}
	}
	// Barcodes are exact identifiers, no keyword gate.
	return rec, Attempt{Source: sourceName, Outcome: OutcomeAccepted, DurationMS: elapsed}
}

func (r *Resolver) trySearch(ctx context.Context, src source, name string) (*nutrition.FoodRecord, Attempt) {
	start := r.now()
	records, err := src.searcher.SearchFoods(ctx, name)
	elapsed := r.now().Sub(start).Milliseconds()
	if err != nil {
		return nil, Attempt{Source: src.name, Outcome: OutcomeError, Error: err.Error(), DurationMS: elapsed}
	}
	if len(records) == 0 {
		return nil, Attempt{Source: src.name, Outcome: OutcomeNoMatch, DurationMS: elapsed}
	}
	for i := range records {
		if ingredient.MatchesKeywords(name, records[i].Description) {
			return &records[i], Attempt{Source: src.name, Outcome: OutcomeAccepted, DurationMS: elapsed}
		}
	}
	return nil, Attempt{Source: src.name, Outcome: OutcomeRejected, DurationMS: elapsed}
}

func (r *Resolver) accept(ctx context.Context, user, name, sourceName string, rec *nutrition.FoodRecord, attempts []Attempt, opts Options, start time.Time) (*Result, error) {
	if sourceName != "cache" {
		rec.FetchedAt = r.now()
		lookup := name
		if lookup == "" {
			lookup = ingredient.Clean(rec.Description)
		}
		if err := r.store.UpsertFoodRecord(ctx, lookup, rec); err != nil {
			return nil, err
		}
	}
	if opts.IngredientID != "" {
		if err := r.store.LinkIngredient(ctx, user, opts.IngredientID, rec.ID); err != nil {
			return nil, err
		}
	}

	r.metrics.IncResolutionOutcome(sourceName)
	r.metrics.ObserveResolutionDuration(r.now().Sub(start))
	observability.InfoContext(ctx, "ingredient resolved",
		logfields.Source(sourceName), slog.String("record_id", rec.ID), slog.String("description", rec.Description))

	r.logEvent(ctx, user, map[string]any{
		"name":      name,
		"resolved":  true,
		"source":    sourceName,
		"record_id": rec.ID,
		"attempts":  attempts,
	})

	return &Result{Record: rec, Source: sourceName, Cleaned: name, Attempts: attempts}, nil
}

func (r *Resolver) logEvent(ctx context.Context, user string, payload map[string]any) {
	if r.events == nil {
		return
	}
	if err := r.events.Append(ctx, eventlog.TypeResolution, user, payload); err != nil {
		observability.WarnContext(ctx, "failed to log resolution event", logfields.Error(err))
	}
}
