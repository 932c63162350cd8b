package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
	"github.com/kailas-cloud/chronik/internal/domain/search/query"
	"github.com/kailas-cloud/chronik/internal/domain/search/result"
	"github.com/kailas-cloud/chronik/internal/logger"
)

// trigramSnippetLen bounds the plain-text snippet of a fallback hit.
const trigramSnippetLen = 200

// table describes how one entity type is stored and presented.
// SQL fragments reference the row alias t.
type table struct {
	typ     entity.Type
	name    string
	title   string
	body    string
	vector  string
	date    string
	trigram string
	slug    string
	url     func(r row) string

	ftsSQL     string
	trigramSQL string
}

// row is the scan target shared by every entity query.
type row struct {
	ID      string
	Title   string
	Snippet string
	Date    *time.Time
	Rank    float64
	Slug    string
}

func newTable(t table) *table {
	date := t.date
	if date == "" {
		date = "NULL::timestamptz"
	}
	slug := t.slug
	if slug == "" {
		slug = "''"
	}

	// Args: headline options, tsquery, user id, limit.
	t.ftsSQL = fmt.Sprintf(`SELECT t."id" AS id, %[1]s AS title,
  ts_headline('%[2]s', %[3]s, q.tsq, ?) AS snippet,
  %[4]s AS date, ts_rank(v.doc, q.tsq) AS rank, %[5]s AS slug
FROM "%[6]s" t
CROSS JOIN (SELECT to_tsquery('%[2]s', ?) AS tsq) q
CROSS JOIN LATERAL (SELECT %[7]s AS doc) v
WHERE t."userId" = ? AND v.doc @@ q.tsq
ORDER BY rank DESC, t."id"
LIMIT ?`, t.title, query.TextSearchConfig, t.body, date, slug, t.name, t.vector)

	// Args: text, user id, text, threshold, like pattern, limit.
	t.trigramSQL = fmt.Sprintf(`SELECT t."id" AS id, %[1]s AS title,
  left(%[2]s, %[3]d) AS snippet,
  %[4]s AS date, similarity(%[5]s, ?) AS rank, %[6]s AS slug
FROM "%[7]s" t
WHERE t."userId" = ? AND (similarity(%[5]s, ?) > ? OR %[5]s ILIKE ? ESCAPE '\')
ORDER BY rank DESC, t."id"
LIMIT ?`, t.title, t.body, trigramSnippetLen, date, t.trigram, slug, t.name)

	return &t
}

// vector builds a weighted tsvector expression. Column groups get weights
// A, B, C, D in order.
func vector(groups ...[]string) string {
	const weights = "ABCD"
	var parts []string
	for i, cols := range groups {
		for _, c := range cols {
			parts = append(parts, fmt.Sprintf(
				`setweight(to_tsvector('%s', coalesce(t."%s", '')), '%c')`,
				query.TextSearchConfig, c, weights[i]))
		}
	}
	return strings.Join(parts, " || ")
}

func pathURL(prefix string) func(row) string {
	return func(r row) string { return prefix + url.PathEscape(r.ID) }
}

func queryURL(path, param string) func(row) string {
	return func(r row) string { return path + "?" + url.Values{param: {r.ID}}.Encode() }
}

func day(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.UTC().Format(time.DateOnly)
}

func (t *table) items(rows []row, m result.Match) []result.Item {
	out := make([]result.Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, result.Item{
			ID:      r.ID,
			Type:    t.typ,
			Title:   r.Title,
			Snippet: r.Snippet,
			URL:     t.url(r),
			Date:    r.Date,
			Rank:    r.Rank,
			Match:   m,
		})
	}
	return out
}

// base carries what every strategy needs to run its queries.
type base struct {
	store     querier
	tuning    Tuning
	fallbacks *prometheus.CounterVec
}

// run executes the full-text pass and, when it comes back sparse, the
// trigram pass. Results are scoped to q.UserID.
func (b base) run(ctx context.Context, t *table, q query.Scoped) ([]result.Item, error) {
	if q.UserID == "" {
		return nil, fmt.Errorf("search %s: empty user id", t.typ)
	}
	if q.Limit <= 0 {
		return nil, nil
	}

	tsq := q.TsQuery
	if !b.tuning.PrefixMatch {
		tsq = q.ExactQuery
	}

	var fts []row
	if tsq != "" {
		err := b.store.Select(ctx, &fts, t.ftsSQL,
			query.DefaultHeadlineOptions(), tsq, q.UserID, q.Limit)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", t.typ, err)
		}
	}
	items := t.items(fts, result.MatchFullText)

	if !b.tuning.Trigram || len(fts) >= b.tuning.MinResults || q.Text == "" {
		return items, nil
	}

	if b.fallbacks != nil {
		b.fallbacks.WithLabelValues(string(t.typ)).Inc()
	}
	logger.FromContext(ctx).Debug("trigram fallback",
		zap.String("entity_type", string(t.typ)),
		zap.Int("fts_rows", len(fts)),
	)

	var trgm []row
	err := b.store.Select(ctx, &trgm, t.trigramSQL,
		q.Text, q.UserID, q.Text, b.tuning.Threshold, q.LikePattern, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("search %s trigram: %w", t.typ, err)
	}

	merged := result.MergeFallback(items, t.items(trgm, result.MatchTrigram))
	if len(merged) > q.Limit {
		merged = merged[:q.Limit]
	}
	return merged, nil
}
