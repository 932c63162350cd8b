package chronik

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
)

// Controller defaults.
const (
	DefaultDebounce = 300 * time.Millisecond
	// MinQueryLength is the shortest query sent to the server, in characters.
	MinQueryLength = 2
)

const failedMessage = "Search failed. Please try again."

// Searcher runs one search. *Client implements it.
type Searcher interface {
	Search(ctx context.Context, q Query) (*Response, error)
}

// State is a snapshot of the controller.
type State struct {
	Query      string
	Results    []Group
	TotalCount int
	IsLoading  bool
	// Error is a user-facing message of the last failed search, or empty.
	Error string
	// ActiveFilters restricts the search to these types, in canonical order.
	// Empty means all types.
	ActiveFilters []EntityType
	IsOpen        bool
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithClock replaces the wall clock used for debouncing.
func WithClock(c clockwork.Clock) ControllerOption {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithDebounce sets the quiet period before a search is sent.
func WithDebounce(d time.Duration) ControllerOption {
	return func(ctrl *Controller) { ctrl.debounce = d }
}

// WithLimit sets the result limit sent with every search. Zero uses the server default.
func WithLimit(n int) ControllerOption {
	return func(ctrl *Controller) { ctrl.limit = n }
}

// WithControllerLogger logs discarded responses and failures. Nil disables logging.
func WithControllerLogger(l *slog.Logger) ControllerOption {
	return func(ctrl *Controller) { ctrl.logger = l }
}

// Controller drives a search-as-you-type UI. Keystrokes are debounced and
// only the response to the latest request is ever applied.
type Controller struct {
	searcher Searcher
	clock    clockwork.Clock
	debounce time.Duration
	limit    int
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	filters map[EntityType]struct{}
	// seq identifies the current request; anything tagged with an older value is stale.
	seq    uint64
	timer  clockwork.Timer
	cancel context.CancelFunc
	closed bool

	subs   map[int]func(State)
	nextID int
}

// NewController creates a Controller that searches through s.
func NewController(s Searcher, opts ...ControllerOption) *Controller {
	c := &Controller{
		searcher: s,
		clock:    clockwork.NewRealClock(),
		debounce: DefaultDebounce,
		filters:  make(map[EntityType]struct{}),
		subs:     make(map[int]func(State)),
		state:    State{Results: []Group{}},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to be called after every state change. The returned
// func removes the subscription.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// SetQuery updates the query immediately and schedules a debounced search.
func (c *Controller) SetQuery(text string) {
	c.update(func() {
		c.state.Query = text
		c.scheduleLocked()
	})
}

// ToggleFilter adds or removes t from the active filters and searches again.
func (c *Controller) ToggleFilter(t EntityType) {
	c.update(func() {
		if _, on := c.filters[t]; on {
			delete(c.filters, t)
		} else {
			c.filters[t] = struct{}{}
		}
		c.scheduleLocked()
	})
}

// Open shows the overlay.
func (c *Controller) Open() {
	c.update(func() { c.state.IsOpen = true })
}

// Close hides the overlay. Use Shutdown to release the controller.
func (c *Controller) Close() {
	c.update(func() { c.state.IsOpen = false })
}

// Toggle flips overlay visibility.
func (c *Controller) Toggle() {
	c.update(func() { c.state.IsOpen = !c.state.IsOpen })
}

// Clear resets query, results, loading and error. Overlay visibility and
// filters are kept.
func (c *Controller) Clear() {
	c.update(func() {
		c.abortLocked()
		c.state.Query = ""
		c.resetResultsLocked()
	})
}

// Shutdown stops the pending timer and cancels the in-flight request.
// Later calls are no-ops.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.abortLocked()
	c.closed = true
	c.subs = map[int]func(State){}
}

// update runs fn under the lock and notifies subscribers with the result.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn()
	snap, subs := c.snapshotLocked(), c.subscribersLocked()
	c.mu.Unlock()

	for _, s := range subs {
		s(snap)
	}
}

func (c *Controller) scheduleLocked() {
	c.abortLocked()

	if utf8.RuneCountInString(strings.TrimSpace(c.state.Query)) < MinQueryLength {
		c.resetResultsLocked()
		return
	}

	seq := c.seq
	// Some clocks run f on the goroutine that advances them; keep it unblocked.
	c.timer = c.clock.AfterFunc(c.debounce, func() { go c.fire(seq) })
}

// abortLocked invalidates the pending timer and the in-flight request.
func (c *Controller) abortLocked() {
	c.seq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) resetResultsLocked() {
	c.state.Results = []Group{}
	c.state.TotalCount = 0
	c.state.IsLoading = false
	c.state.Error = ""
}

func (c *Controller) fire(seq uint64) {
	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		cancel()
		return
	}
	c.timer = nil
	c.cancel = cancel
	c.state.IsLoading = true
	q := Query{
		Q:     strings.TrimSpace(c.state.Query),
		Types: c.activeFiltersLocked(),
		Limit: c.limit,
	}
	snap, subs := c.snapshotLocked(), c.subscribersLocked()
	c.mu.Unlock()

	for _, s := range subs {
		s(snap)
	}

	resp, err := c.searcher.Search(ctx, q)
	cancel()

	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		if c.logger != nil {
			c.logger.Debug("discarding stale search response", "query", q.Q)
		}
		return
	}
	c.cancel = nil
	c.state.IsLoading = false
	if err != nil {
		c.state.Error = errorMessage(err)
		if c.logger != nil {
			c.logger.Warn("search failed", "error", err)
		}
	} else {
		c.state.Error = ""
		c.state.Results = resp.Results
		if c.state.Results == nil {
			c.state.Results = []Group{}
		}
		c.state.TotalCount = resp.TotalCount
	}
	snap, subs = c.snapshotLocked(), c.subscribersLocked()
	c.mu.Unlock()

	for _, s := range subs {
		s(snap)
	}
}

func errorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status < 500 && apiErr.Message != "" {
		return apiErr.Message
	}
	return failedMessage
}

func (c *Controller) activeFiltersLocked() []EntityType {
	if len(c.filters) == 0 {
		return nil
	}
	out := make([]EntityType, 0, len(c.filters))
	for _, t := range entity.All() {
		if _, ok := c.filters[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	s.Results = make([]Group, len(c.state.Results))
	copy(s.Results, c.state.Results)
	s.ActiveFilters = c.activeFiltersLocked()
	return s
}

func (c *Controller) subscribersLocked() []func(State) {
	out := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		out = append(out, fn)
	}
	return out
}
