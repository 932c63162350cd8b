package search

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/chronik/internal/domain"
	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
	"github.com/kailas-cloud/chronik/internal/domain/search/query"
	"github.com/kailas-cloud/chronik/internal/domain/search/result"
)

// querier is the consumer interface for search reads (ISP).
type querier interface {
	Select(ctx context.Context, dest any, query string, args ...any) error
}

// Strategy searches one entity type. The set of implementations is closed.
type Strategy interface {
	Type() entity.Type
	Search(ctx context.Context, q query.Scoped) ([]result.Item, error)
	sealed()
}

// Tuning controls the matching behavior of one strategy.
type Tuning struct {
	// PrefixMatch appends :* to every term.
	PrefixMatch bool
	// Trigram enables the similarity fallback pass.
	Trigram bool
	// Threshold is the minimum similarity() for a fallback hit.
	Threshold float64
	// MinResults triggers the fallback when full-text returns fewer rows.
	MinResults int
}

// Default fallback parameters.
const (
	DefaultMinResults = 3
)

// DefaultTuning returns the built-in tuning for t. Types with short,
// typo-prone titles get the trigram fallback.
func DefaultTuning(t entity.Type) Tuning {
	tu := Tuning{
		PrefixMatch: true,
		Threshold:   query.TrigramThreshold,
		MinResults:  DefaultMinResults,
	}
	switch t {
	case entity.Contact, entity.Location, entity.Taxonomy, entity.Bookmark:
		tu.Trigram = true
	}
	return tu
}

// Option configures a Repo.
type Option func(*Repo)

// WithTuning overrides the tuning of a single entity type.
func WithTuning(t entity.Type, tu Tuning) Option {
	return func(r *Repo) { r.tunings[t] = tu }
}

// WithFallbackCounter counts trigram fallback passes per entity type.
func WithFallbackCounter(c *prometheus.CounterVec) Option {
	return func(r *Repo) { r.fallbacks = c }
}

// Repo hands out the per-entity strategies over one store.
type Repo struct {
	store     querier
	tunings   map[entity.Type]Tuning
	fallbacks *prometheus.CounterVec
}

// New creates a search repository.
func New(s querier, opts ...Option) *Repo {
	r := &Repo{store: s, tunings: make(map[entity.Type]Tuning, len(entity.All()))}
	for _, t := range entity.All() {
		r.tunings[t] = DefaultTuning(t)
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Tuning returns the effective tuning for t.
func (r *Repo) Tuning(t entity.Type) Tuning {
	return r.tunings[t]
}

// For returns the strategy for t.
func (r *Repo) For(t entity.Type) (Strategy, error) {
	b := base{store: r.store, tuning: r.tunings[t], fallbacks: r.fallbacks}
	switch t {
	case entity.JournalEntry:
		return JournalEntries{b}, nil
	case entity.Contact:
		return Contacts{b}, nil
	case entity.Location:
		return Locations{b}, nil
	case entity.Taxonomy:
		return Tags{b}, nil
	case entity.Task:
		return Tasks{b}, nil
	case entity.ActValue:
		return Values{b}, nil
	case entity.ActGoal:
		return Goals{b}, nil
	case entity.Habit:
		return Habits{b}, nil
	case entity.Bookmark:
		return Bookmarks{b}, nil
	case entity.CalendarEvent:
		return CalendarEvents{b}, nil
	case entity.Consumption:
		return ConsumptionLogs{b}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEntityType, string(t))
}

// Search runs the strategy for t.
func (r *Repo) Search(ctx context.Context, t entity.Type, q query.Scoped) ([]result.Item, error) {
	s, err := r.For(t)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, q)
}
