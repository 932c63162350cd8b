package search

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
	"github.com/kailas-cloud/chronik/internal/domain/search/query"
	"github.com/kailas-cloud/chronik/internal/domain/search/request"
	"github.com/kailas-cloud/chronik/internal/domain/search/result"
)

// mockRepo implements Repository. Calls may arrive concurrently.
type mockRepo struct {
	mu       sync.Mutex
	calls    []entity.Type
	lastQ    query.Scoped
	searchFn func(ctx context.Context, t entity.Type, q query.Scoped) ([]result.Item, error)
}

func (m *mockRepo) Search(ctx context.Context, t entity.Type, q query.Scoped) ([]result.Item, error) {
	m.mu.Lock()
	m.calls = append(m.calls, t)
	m.lastQ = q
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, t, q)
	}
	return nil, nil
}

func (m *mockRepo) called() []entity.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.Type(nil), m.calls...)
}

type mockCache struct {
	resp    result.Response
	hit     bool
	puts    int
	putResp result.Response
}

func (m *mockCache) Get(context.Context, string, *request.Request) (result.Response, bool) {
	return m.resp, m.hit
}

func (m *mockCache) Put(_ context.Context, _ string, _ *request.Request, resp result.Response) {
	m.puts++
	m.putResp = resp
}

func newTestService(t *testing.T, cfg Config) (*Service, *mockRepo) {
	t.Helper()
	repo := &mockRepo{}
	return New(repo, nil, cfg, zap.NewNop()), repo
}

func mustRequest(t *testing.T, p request.Params) *request.Request {
	t.Helper()
	r, err := request.New(p)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &r
}

func hit(id string, typ entity.Type, rank float64) result.Item {
	return result.Item{ID: id, Type: typ, Title: id, Rank: rank}
}
