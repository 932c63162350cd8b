package search

import (
	"context"
	"strings"
	"testing"

	"github.com/kailas-cloud/chronik/internal/domain/search/query"
)

type call struct {
	sql  string
	args []any
}

// fakeStore implements the consumer interface for tests. Full-text and
// trigram queries are told apart by the similarity() call.
type fakeStore struct {
	calls      []call
	ftsRows    []row
	trigramRow []row
	err        error
}

func (f *fakeStore) Select(_ context.Context, dest any, q string, args ...any) error {
	f.calls = append(f.calls, call{sql: q, args: args})
	if f.err != nil {
		return f.err
	}
	rows := dest.(*[]row)
	if strings.Contains(q, "similarity(") {
		*rows = append(*rows, f.trigramRow...)
	} else {
		*rows = append(*rows, f.ftsRows...)
	}
	return nil
}

func newTestRepo(t *testing.T, opts ...Option) (*Repo, *fakeStore) {
	t.Helper()
	fs := &fakeStore{}
	return New(fs, opts...), fs
}

func testQuery(text string) query.Scoped {
	return query.Build(text).Scope("user-1", 20)
}
