package chi

import (
	"time"

	"github.com/kailas-cloud/chronik/internal/domain/search/result"
)

// ErrorCode is the machine-readable error code of an error response.
type ErrorCode string

// Error codes.
const (
	CodeInvalidQuery ErrorCode = "INVALID_QUERY"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeServerError  ErrorCode = "SERVER_ERROR"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code"`
}

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	Query      string        `json:"query"`
	TotalCount int           `json:"totalCount"`
	Results    []SearchGroup `json:"results"`
}

// SearchGroup holds the hits of one entity type.
type SearchGroup struct {
	Type  string       `json:"type"`
	Label string       `json:"label"`
	Icon  string       `json:"icon"`
	Count int          `json:"count"`
	Items []SearchItem `json:"items"`
}

// SearchItem is one hit.
type SearchItem struct {
	ID      string     `json:"id"`
	Type    string     `json:"type"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	URL     string     `json:"url"`
	Date    *time.Time `json:"date,omitempty"`
	Rank    float64    `json:"rank"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func searchResponseToDTO(resp result.Response) SearchResponse {
	groups := make([]SearchGroup, len(resp.Groups))
	for i, g := range resp.Groups {
		items := make([]SearchItem, len(g.Items))
		for j, it := range g.Items {
			items[j] = SearchItem{
				ID:      it.ID,
				Type:    string(it.Type),
				Title:   it.Title,
				Snippet: it.Snippet,
				URL:     it.URL,
				Date:    it.Date,
				Rank:    it.Rank,
			}
		}
		groups[i] = SearchGroup{
			Type:  string(g.Type),
			Label: g.Label,
			Icon:  g.Icon,
			Count: g.Count,
			Items: items,
		}
	}
	return SearchResponse{Query: resp.Query, TotalCount: resp.TotalCount, Results: groups}
}
