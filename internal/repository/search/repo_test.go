package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/chronik/internal/domain"
	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
	"github.com/kailas-cloud/chronik/internal/domain/search/query"
	"github.com/kailas-cloud/chronik/internal/domain/search/result"
)

func TestFor_EveryTypeHasStrategy(t *testing.T) {
	repo, _ := newTestRepo(t)
	for _, typ := range entity.All() {
		s, err := repo.For(typ)
		require.NoError(t, err, typ)
		assert.Equal(t, typ, s.Type())
	}
}

func TestFor_UnknownType(t *testing.T) {
	repo, _ := newTestRepo(t)
	for _, typ := range []entity.Type{"day_entry", "media_asset", ""} {
		_, err := repo.For(typ)
		assert.ErrorIs(t, err, domain.ErrUnknownEntityType)
	}
}

func TestSearch_ScopedToUser(t *testing.T) {
	repo, fs := newTestRepo(t)
	for _, typ := range entity.All() {
		fs.calls = nil
		s, err := repo.For(typ)
		require.NoError(t, err)

		_, err = s.Search(context.Background(), testQuery("anna"))
		require.NoError(t, err)
		require.NotEmpty(t, fs.calls, typ)

		for _, c := range fs.calls {
			assert.Contains(t, c.sql, `WHERE t."userId" = ?`, typ)
			assert.Contains(t, c.args, "user-1", typ)
		}
	}
}

func TestSearch_FullTextArgs(t *testing.T) {
	repo, fs := newTestRepo(t)
	s, err := repo.For(entity.JournalEntry)
	require.NoError(t, err)

	_, err = s.Search(context.Background(), testQuery("Meeting mit Anna"))
	require.NoError(t, err)
	require.Len(t, fs.calls, 1)

	c := fs.calls[0]
	assert.Contains(t, c.sql, `FROM "JournalEntry" t`)
	assert.Contains(t, c.sql, "to_tsquery('simple', ?)")
	assert.Contains(t, c.sql, "ts_rank(")
	assert.Equal(t, []any{
		query.DefaultHeadlineOptions(),
		"Meeting:* & mit:* & Anna:*",
		"user-1",
		20,
	}, c.args)
}

func TestSearch_ExactMatchTuning(t *testing.T) {
	tu := DefaultTuning(entity.CalendarEvent)
	tu.PrefixMatch = false
	repo, fs := newTestRepo(t, WithTuning(entity.CalendarEvent, tu))

	s, err := repo.For(entity.CalendarEvent)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), testQuery("team sync"))
	require.NoError(t, err)

	require.Len(t, fs.calls, 1)
	assert.Equal(t, "team & sync", fs.calls[0].args[1])
}

func TestSearch_MapsRows(t *testing.T) {
	day := time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)
	repo, fs := newTestRepo(t)
	fs.ftsRows = []row{{ID: "j1", Title: "Dinner", Snippet: "with <mark>Anna</mark>", Date: &day, Rank: 0.6}}

	s, err := repo.For(entity.JournalEntry)
	require.NoError(t, err)
	items, err := s.Search(context.Background(), testQuery("anna"))
	require.NoError(t, err)

	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, "j1", it.ID)
	assert.Equal(t, entity.JournalEntry, it.Type)
	assert.Equal(t, "Dinner", it.Title)
	assert.Equal(t, "with <mark>Anna</mark>", it.Snippet)
	assert.Equal(t, "/journal?date=2024-03-09&highlight=j1", it.URL)
	assert.Equal(t, 0.6, it.Rank)
	assert.Equal(t, result.MatchFullText, it.Match)
}

func TestURLs(t *testing.T) {
	day := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		tbl  *table
		r    row
		want string
	}{
		{journalTable, row{ID: "e1"}, "/journal?highlight=e1"},
		{contactTable, row{ID: "c1", Slug: "anna-schmidt"}, "/prm/anna-schmidt"},
		{contactTable, row{ID: "c1"}, "/prm/c1"},
		{locationTable, row{ID: "l1"}, "/locations/l1"},
		{taxonomyTable, row{ID: "x1"}, "/taxonomy/x1"},
		{taskTable, row{ID: "t1"}, "/tasks?task=t1"},
		{valueTable, row{ID: "v1"}, "/act/values/v1"},
		{goalTable, row{ID: "g1"}, "/act/goals/g1"},
		{habitTable, row{ID: "h1"}, "/habits/h1"},
		{bookmarkTable, row{ID: "b1"}, "/bookmarks?bookmark=b1"},
		{calendarTable, row{ID: "ev1", Date: &day}, "/calendar?date=2024-01-02&event=ev1"},
		{consumptionTable, row{ID: "k1"}, "/consumption/k1"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.tbl.url(tc.r), tc.tbl.typ)
	}
}

func TestSearch_TrigramFallbackWhenSparse(t *testing.T) {
	repo, fs := newTestRepo(t)
	fs.ftsRows = []row{{ID: "c1", Title: "Anna", Rank: 0.1}}
	fs.trigramRow = []row{
		{ID: "c1", Title: "Anna", Rank: 0.9},
		{ID: "c2", Title: "Hanna", Rank: 0.4},
	}

	s, err := repo.For(entity.Contact)
	require.NoError(t, err)
	items, err := s.Search(context.Background(), testQuery("anna"))
	require.NoError(t, err)

	require.Len(t, fs.calls, 2)
	trgm := fs.calls[1]
	assert.Contains(t, trgm.sql, `FROM "Contact" t`)
	assert.Contains(t, trgm.sql, "ILIKE ? ESCAPE")
	assert.Equal(t, []any{"anna", "user-1", "anna", query.TrigramThreshold, "%anna%", 20}, trgm.args)

	require.Len(t, items, 2)
	assert.Equal(t, "c1", items[0].ID)
	assert.Equal(t, result.MatchFullText, items[0].Match)
	assert.Equal(t, "c2", items[1].ID)
	assert.Equal(t, result.MatchTrigram, items[1].Match)
}

func TestSearch_NoFallbackWhenEnoughRows(t *testing.T) {
	repo, fs := newTestRepo(t)
	fs.ftsRows = []row{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	s, err := repo.For(entity.Contact)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), testQuery("anna"))
	require.NoError(t, err)
	assert.Len(t, fs.calls, 1)
}

func TestSearch_NoFallbackForFullTextOnlyTypes(t *testing.T) {
	repo, fs := newTestRepo(t)
	s, err := repo.For(entity.JournalEntry)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), testQuery("anna"))
	require.NoError(t, err)
	assert.Len(t, fs.calls, 1)
}

func TestSearch_FallbackCounter(t *testing.T) {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "fallbacks"}, []string{"type"})
	repo, _ := newTestRepo(t, WithFallbackCounter(cv))

	s, err := repo.For(entity.Location)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), testQuery("berlin"))
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(cv.WithLabelValues("location")), 0)
}

func TestSearch_StoreError(t *testing.T) {
	repo, fs := newTestRepo(t)
	fs.err = errors.New("syntax error in tsquery")

	s, err := repo.For(entity.Task)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), testQuery("anna"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task")
	assert.ErrorIs(t, err, fs.err)
}

func TestSearch_RequiresUser(t *testing.T) {
	repo, fs := newTestRepo(t)
	s, err := repo.For(entity.Habit)
	require.NoError(t, err)

	q := testQuery("anna")
	q.UserID = ""
	_, err = s.Search(context.Background(), q)
	require.Error(t, err)
	assert.Empty(t, fs.calls)
}

func TestVector_Weights(t *testing.T) {
	v := vector([]string{"name"}, []string{"company", "email"})
	assert.Equal(t, 3, strings.Count(v, "setweight("))
	assert.Contains(t, v, `coalesce(t."name", '')), 'A')`)
	assert.Contains(t, v, `coalesce(t."email", '')), 'B')`)
}

func TestDefaultTuning(t *testing.T) {
	for _, typ := range entity.All() {
		tu := DefaultTuning(typ)
		assert.True(t, tu.PrefixMatch, typ)
		assert.Equal(t, query.TrigramThreshold, tu.Threshold)
	}
	assert.True(t, DefaultTuning(entity.Contact).Trigram)
	assert.False(t, DefaultTuning(entity.JournalEntry).Trigram)
}

func TestRepoSearch_Dispatches(t *testing.T) {
	repo, fs := newTestRepo(t)
	_, err := repo.Search(context.Background(), entity.Habit, testQuery("anna"))
	require.NoError(t, err)
	require.Len(t, fs.calls, 1)
	assert.Contains(t, fs.calls[0].sql, `FROM "Habit" t`)

	_, err = repo.Search(context.Background(), "media_asset", testQuery("anna"))
	assert.ErrorIs(t, err, domain.ErrUnknownEntityType)
}
