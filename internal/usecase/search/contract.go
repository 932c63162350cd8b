package search

import (
	"context"

	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
	"github.com/kailas-cloud/chronik/internal/domain/search/query"
	"github.com/kailas-cloud/chronik/internal/domain/search/request"
	"github.com/kailas-cloud/chronik/internal/domain/search/result"
)

// Repository runs the search strategy of one entity type.
type Repository interface {
	Search(ctx context.Context, t entity.Type, q query.Scoped) ([]result.Item, error)
}

// Cache stores complete responses for repeated identical searches.
type Cache interface {
	Get(ctx context.Context, userID string, req *request.Request) (result.Response, bool)
	Put(ctx context.Context, userID string, req *request.Request, resp result.Response)
}
