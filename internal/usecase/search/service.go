package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/chronik/internal/domain"
	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
	"github.com/kailas-cloud/chronik/internal/domain/search/query"
	"github.com/kailas-cloud/chronik/internal/domain/search/request"
	"github.com/kailas-cloud/chronik/internal/domain/search/result"
	"github.com/kailas-cloud/chronik/internal/logger"
	"github.com/kailas-cloud/chronik/internal/metrics"
)

// Defaults for Config zero values.
const (
	DefaultStrategyTimeout = 2 * time.Second
	DefaultMaxConcurrency  = 11
)

// Config bounds the fan-out.
type Config struct {
	// StrategyTimeout is the deadline of each entity query.
	StrategyTimeout time.Duration
	// MaxConcurrency caps the entity queries running at once.
	MaxConcurrency int
}

// Service aggregates per-entity searches into one ranked, grouped response.
type Service struct {
	repo   Repository
	cache  Cache
	cfg    Config
	logger *zap.Logger
}

// New creates a search service. cache can be nil.
func New(repo Repository, cache Cache, cfg Config, logger *zap.Logger) *Service {
	if cfg.StrategyTimeout <= 0 {
		cfg.StrategyTimeout = DefaultStrategyTimeout
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, cache: cache, cfg: cfg, logger: logger}
}

// outcome is what one entity strategy produced.
type outcome struct {
	items []result.Item
	err   error
}

// Search fans the request out to the requested entity types and assembles
// the response. Failing types are dropped from the response, even when none
// succeeded; such responses are never cached.
func (s *Service) Search(ctx context.Context, userID string, req *request.Request) (result.Response, error) {
	if userID == "" {
		return result.Response{}, domain.ErrUnauthorized
	}

	terms := query.Build(req.Query())
	if terms.Empty() {
		metrics.SearchRequestsTotal.WithLabelValues("empty").Inc()
		return result.Empty(req.Query()), nil
	}

	if s.cache != nil {
		if resp, ok := s.cache.Get(ctx, userID, req); ok {
			metrics.SearchRequestsTotal.WithLabelValues("cached").Inc()
			return resp, nil
		}
	}

	types := req.Types()
	outcomes := s.fanOut(ctx, terms.Scope(userID, req.Limit()), types)

	log := logger.FromContextOr(ctx, s.logger)
	var items []result.Item
	failed := 0
	for i, o := range outcomes {
		if o.err != nil {
			failed++
			log.Warn("Entity search failed",
				zap.String("entity_type", string(types[i])),
				zap.Error(o.err),
			)
			continue
		}
		items = append(items, o.items...)
	}

	// Failed types degrade to missing groups; the search itself still succeeds.
	resp := result.Assemble(req.Query(), items, req.Limit())
	metrics.SearchResultsReturned.Observe(float64(resp.TotalCount))

	switch {
	case len(types) > 0 && failed == len(types):
		metrics.SearchRequestsTotal.WithLabelValues("unavailable").Inc()
		return resp, nil
	case failed > 0:
		metrics.SearchRequestsTotal.WithLabelValues("partial").Inc()
		return resp, nil
	}

	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	if s.cache != nil {
		s.cache.Put(ctx, userID, req, resp)
	}
	return resp, nil
}

// fanOut runs one strategy per type concurrently. outcomes[i] belongs to types[i].
func (s *Service) fanOut(ctx context.Context, q query.Scoped, types []entity.Type) []outcome {
	outcomes := make([]outcome, len(types))

	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrency)
	for i, t := range types {
		g.Go(func() error {
			outcomes[i] = s.runOne(ctx, t, q)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// runOne bounds a single strategy by the per-strategy deadline, even if the
// strategy ignores its context.
func (s *Service) runOne(ctx context.Context, t entity.Type, q query.Scoped) outcome {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StrategyTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		items, err := s.repo.Search(ctx, t, q)
		done <- outcome{items: items, err: err}
	}()

	var o outcome
	select {
	case o = <-done:
	case <-ctx.Done():
		o = outcome{err: fmt.Errorf("search %s: %w", t, ctx.Err())}
	}

	status := "ok"
	if o.err != nil {
		status = "error"
		reason := "error"
		if errors.Is(o.err, context.DeadlineExceeded) {
			reason = "timeout"
		} else if errors.Is(o.err, context.Canceled) {
			reason = "canceled"
		}
		metrics.SearchStrategyFailuresTotal.WithLabelValues(string(t), reason).Inc()
	}
	metrics.SearchStrategyDuration.WithLabelValues(string(t), status).Observe(time.Since(start).Seconds())

	return o
}
