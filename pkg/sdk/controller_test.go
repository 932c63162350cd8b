package chronik

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

// fakeSearcher records queries and answers through respond.
type fakeSearcher struct {
	mu      sync.Mutex
	queries []Query
	respond func(ctx context.Context, q Query) (*Response, error)
}

func (f *fakeSearcher) Search(ctx context.Context, q Query) (*Response, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return hit(q.Q), nil
	}
	return respond(ctx, q)
}

func (f *fakeSearcher) calls() []Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Query(nil), f.queries...)
}

func hit(q string) *Response {
	return &Response{
		Query:      q,
		TotalCount: 1,
		Results: []Group{{
			Type: Contact, Label: "Contacts", Count: 1,
			Items: []Item{{ID: q, Type: Contact, Title: q}},
		}},
	}
}

func newTestController(s Searcher) (*Controller, clockwork.FakeClock) {
	fc := clockwork.NewFakeClock()
	c := NewController(s, WithClock(fc))
	return c, fc
}

// settle advances past the debounce window once the timer is armed.
func settle(t *testing.T, fc clockwork.FakeClock) {
	t.Helper()
	fc.BlockUntil(1)
	fc.Advance(DefaultDebounce)
}

func TestController_DebouncesKeystrokes(t *testing.T) {
	s := &fakeSearcher{}
	c, fc := newTestController(s)
	defer c.Shutdown()

	for _, q := range []string{"t", "te", "tes", "test"} {
		c.SetQuery(q)
		fc.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, s.calls(), "no request inside the debounce window")

	settle(t, fc)

	require.Eventually(t, func() bool { return !c.State().IsLoading && c.State().TotalCount == 1 },
		waitFor, time.Millisecond)
	calls := s.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "test", calls[0].Q)
	assert.Equal(t, "test", c.State().Results[0].Items[0].ID)
}

func TestController_QueryUpdatesImmediately(t *testing.T) {
	c, _ := newTestController(&fakeSearcher{})
	defer c.Shutdown()

	c.SetQuery("mee")
	assert.Equal(t, "mee", c.State().Query)
	assert.False(t, c.State().IsLoading, "loading starts when the request is sent")
}

func TestController_ShortQueryNeverSearches(t *testing.T) {
	s := &fakeSearcher{}
	c, fc := newTestController(s)
	defer c.Shutdown()

	c.SetQuery("anna")
	settle(t, fc)
	require.Eventually(t, func() bool { return c.State().TotalCount == 1 }, waitFor, time.Millisecond)

	c.SetQuery("a")
	fc.Advance(time.Second)

	st := c.State()
	assert.Len(t, s.calls(), 1)
	assert.Empty(t, st.Results)
	assert.NotNil(t, st.Results)
	assert.Equal(t, 0, st.TotalCount)
	assert.Equal(t, "a", st.Query)
}

func TestController_FailureKeepsResults(t *testing.T) {
	s := &fakeSearcher{}
	c, fc := newTestController(s)
	defer c.Shutdown()

	c.SetQuery("anna")
	settle(t, fc)
	require.Eventually(t, func() bool { return c.State().TotalCount == 1 }, waitFor, time.Millisecond)

	s.mu.Lock()
	s.respond = func(context.Context, Query) (*Response, error) {
		return nil, errors.New("connection refused")
	}
	s.mu.Unlock()

	c.SetQuery("annab")
	settle(t, fc)
	require.Eventually(t, func() bool { return c.State().Error != "" }, waitFor, time.Millisecond)

	st := c.State()
	assert.False(t, st.IsLoading)
	assert.Equal(t, failedMessage, st.Error)
	require.Len(t, st.Results, 1, "previous results stay visible")
	assert.Equal(t, "anna", st.Results[0].Items[0].ID)
}

func TestController_ClientErrorMessage(t *testing.T) {
	s := &fakeSearcher{respond: func(context.Context, Query) (*Response, error) {
		return nil, &APIError{Status: 400, Code: CodeInvalidQuery, Message: "Limit must be between 1 and 100"}
	}}
	c, fc := newTestController(s)
	defer c.Shutdown()

	c.SetQuery("anna")
	settle(t, fc)
	require.Eventually(t, func() bool { return c.State().Error != "" }, waitFor, time.Millisecond)
	assert.Equal(t, "Limit must be between 1 and 100", c.State().Error)
}

func TestController_DiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	s := &fakeSearcher{respond: func(_ context.Context, q Query) (*Response, error) {
		if q.Q == "slow" {
			started <- struct{}{}
			<-release // ignores cancellation, like a server that already answered
		}
		return hit(q.Q), nil
	}}
	c, fc := newTestController(s)
	defer c.Shutdown()

	c.SetQuery("slow")
	settle(t, fc)
	<-started

	c.SetQuery("fast")
	settle(t, fc)
	require.Eventually(t, func() bool {
		st := c.State()
		return len(st.Results) == 1 && st.Results[0].Items[0].ID == "fast"
	}, waitFor, time.Millisecond)

	close(release)
	require.Eventually(t, func() bool { return len(s.calls()) == 2 }, waitFor, time.Millisecond)

	// Give the slow goroutine a chance to (wrongly) apply its result.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "fast", c.State().Results[0].Items[0].ID)
}

func TestController_NewKeystrokeCancelsInFlight(t *testing.T) {
	canceled := make(chan struct{})
	s := &fakeSearcher{respond: func(ctx context.Context, q Query) (*Response, error) {
		if q.Q == "first" {
			<-ctx.Done()
			close(canceled)
			return nil, ctx.Err()
		}
		return hit(q.Q), nil
	}}
	c, fc := newTestController(s)
	defer c.Shutdown()

	c.SetQuery("first")
	settle(t, fc)
	require.Eventually(t, func() bool { return len(s.calls()) == 1 }, waitFor, time.Millisecond)

	c.SetQuery("second")
	select {
	case <-canceled:
	case <-time.After(waitFor):
		t.Fatal("in-flight request was not canceled")
	}
	assert.Empty(t, c.State().Error, "a superseded request is not a failure")
}

func TestController_ToggleFilterResearches(t *testing.T) {
	s := &fakeSearcher{}
	c, fc := newTestController(s)
	defer c.Shutdown()

	c.SetQuery("anna")
	settle(t, fc)
	require.Eventually(t, func() bool { return len(s.calls()) == 1 }, waitFor, time.Millisecond)

	c.ToggleFilter(Task)
	c.ToggleFilter(Contact)
	settle(t, fc)
	require.Eventually(t, func() bool { return len(s.calls()) == 2 }, waitFor, time.Millisecond)

	calls := s.calls()
	assert.Equal(t, "anna", calls[1].Q)
	assert.Equal(t, []EntityType{Contact, Task}, calls[1].Types, "canonical order")
	assert.Equal(t, []EntityType{Contact, Task}, c.State().ActiveFilters)

	c.ToggleFilter(Task)
	assert.Equal(t, []EntityType{Contact}, c.State().ActiveFilters)
}

func TestController_Overlay(t *testing.T) {
	c, _ := newTestController(&fakeSearcher{})
	defer c.Shutdown()

	assert.False(t, c.State().IsOpen)
	c.Open()
	assert.True(t, c.State().IsOpen)
	c.Toggle()
	assert.False(t, c.State().IsOpen)
	c.Toggle()
	c.Close()
	assert.False(t, c.State().IsOpen)
}

func TestController_ClearKeepsOverlayAndFilters(t *testing.T) {
	s := &fakeSearcher{}
	c, fc := newTestController(s)
	defer c.Shutdown()

	c.Open()
	c.ToggleFilter(Habit)
	c.SetQuery("anna")
	settle(t, fc)
	require.Eventually(t, func() bool { return c.State().TotalCount == 1 }, waitFor, time.Millisecond)

	c.Clear()

	st := c.State()
	assert.Equal(t, "", st.Query)
	assert.Empty(t, st.Results)
	assert.Equal(t, 0, st.TotalCount)
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.Error)
	assert.True(t, st.IsOpen)
	assert.Equal(t, []EntityType{Habit}, st.ActiveFilters)
}

func TestController_ClearCancelsPendingSearch(t *testing.T) {
	s := &fakeSearcher{}
	c, fc := newTestController(s)
	defer c.Shutdown()

	c.SetQuery("anna")
	fc.BlockUntil(1)
	c.Clear()
	fc.Advance(time.Second)

	assert.Empty(t, s.calls())
}

func TestController_Subscribe(t *testing.T) {
	c, _ := newTestController(&fakeSearcher{})
	defer c.Shutdown()

	var mu sync.Mutex
	var seen []State
	unsubscribe := c.Subscribe(func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	c.SetQuery("an")
	c.Open()
	unsubscribe()
	c.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.Equal(t, "an", seen[0].Query)
	assert.True(t, seen[1].IsOpen)
}

func TestController_ShutdownStopsEverything(t *testing.T) {
	s := &fakeSearcher{}
	c, fc := newTestController(s)

	c.SetQuery("anna")
	fc.BlockUntil(1)
	c.Shutdown()
	c.Shutdown()
	fc.Advance(time.Second)

	c.SetQuery("other")
	assert.Empty(t, s.calls())
	assert.Equal(t, "anna", c.State().Query, "updates after shutdown are ignored")
}
