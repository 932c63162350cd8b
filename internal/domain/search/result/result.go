package result

import (
	"sort"
	"time"

	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
)

// Match tells which pass produced an item.
type Match int

// Match kinds. Lower values win rank ties.
const (
	MatchFullText Match = iota
	MatchTrigram
)

// Item is a single search hit.
type Item struct {
	ID      string
	Type    entity.Type
	Title   string
	Snippet string
	URL     string
	Date    *time.Time
	// Rank is only comparable within one response.
	Rank  float64
	Match Match
}

// Group is the hits of one entity type, best first.
type Group struct {
	Type  entity.Type
	Label string
	Icon  string
	Count int
	Items []Item
}

// Response is the assembled answer to one search.
type Response struct {
	Query string
	// TotalCount is the number of items returned, not the number of database matches.
	TotalCount int
	Groups     []Group
}

// Empty returns a response without hits.
func Empty(query string) Response {
	return Response{Query: query, Groups: []Group{}}
}

// MergeFallback adds trigram hits to full-text hits, dropping any trigram hit
// whose ID already matched full-text.
func MergeFallback(fts, trigram []Item) []Item {
	if len(trigram) == 0 {
		return fts
	}
	seen := make(map[string]struct{}, len(fts))
	for _, it := range fts {
		seen[it.ID] = struct{}{}
	}
	out := make([]Item, 0, len(fts)+len(trigram))
	out = append(out, fts...)
	for _, it := range trigram {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Sort orders items by rank descending. Ties go to full-text matches, then
// canonical type order, then ID.
func Sort(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Rank != b.Rank {
			return a.Rank > b.Rank
		}
		if a.Match != b.Match {
			return a.Match < b.Match
		}
		if a.Type != b.Type {
			return a.Type.Order() < b.Type.Order()
		}
		return a.ID < b.ID
	})
}

// Assemble ranks items across types, keeps the best limit and groups them by
// type in canonical order.
func Assemble(query string, items []Item, limit int) Response {
	Sort(items)
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}

	byType := make(map[entity.Type][]Item)
	for _, it := range items {
		byType[it.Type] = append(byType[it.Type], it)
	}

	groups := make([]Group, 0, len(byType))
	for _, t := range entity.All() {
		its, ok := byType[t]
		if !ok {
			continue
		}
		groups = append(groups, Group{
			Type:  t,
			Label: t.Label(),
			Icon:  t.Icon(),
			Count: len(its),
			Items: its,
		})
	}

	return Response{Query: query, TotalCount: len(items), Groups: groups}
}
