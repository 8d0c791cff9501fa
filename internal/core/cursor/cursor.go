// Package cursor implements the scrolling window over the paginated
// notification collection.
//
// Pages are buffered in server order. At most renderedPages of them are
// rendered at once; scrolling down past the window appends the next page and
// evicts the oldest, scrolling up does the reverse. Page fetches are
// serialized by a busy guard, and Refresh bumps a generation so fetches that
// complete after a refresh are discarded.
package cursor

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/beacon/internal/core/notification"
)

// DefaultRenderedPages is the window size used when none is configured.
const DefaultRenderedPages = 2

// Fetcher retrieves one page of the collection by absolute URL.
type Fetcher interface {
	FetchPage(ctx context.Context, url string) (notification.Page, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (notification.Page, error)

// FetchPage implements Fetcher.
func (f FetcherFunc) FetchPage(ctx context.Context, url string) (notification.Page, error) {
	return f(ctx, url)
}

// State is the cursor's position in its lifecycle.
type State int

const (
	StateNoPageRendered State = iota
	StatePagesRendered
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateNoPageRendered:
		return "no-page-rendered"
	case StatePagesRendered:
		return "pages-rendered"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Kind describes what a scroll operation did.
type Kind int

const (
	// KindNone means there was nothing to do.
	KindNone Kind = iota
	// KindAppended means Page was rendered at the end of the window.
	KindAppended
	// KindPrepended means Page was rendered at the start of the window.
	KindPrepended
	// KindDropped means another transition was in flight.
	KindDropped
	// KindStale means a refresh happened while fetching; the result was discarded.
	KindStale
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAppended:
		return "appended"
	case KindPrepended:
		return "prepended"
	case KindDropped:
		return "dropped"
	case KindStale:
		return "stale"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Transition reports the effect of one scroll operation. Page and Evicted
// are 1-based page numbers; Evicted is 0 when nothing left the window.
type Transition struct {
	Kind          Kind
	Page          int
	Evicted       int
	Notifications []notification.Notification
	Generation    uint64
}

// Changed reports whether the rendered window changed.
func (t Transition) Changed() bool {
	return t.Kind == KindAppended || t.Kind == KindPrepended
}

// Option configures a Cursor.
type Option func(*Cursor)

// WithRenderedPages sets the window size. Values below 1 are ignored.
func WithRenderedPages(n int) Option {
	return func(c *Cursor) {
		if n > 0 {
			c.renderedPages = n
		}
	}
}

// Cursor is safe for concurrent use. The mutex is never held across a fetch.
type Cursor struct {
	fetcher       Fetcher
	renderedPages int

	mu         sync.Mutex
	fetched    [][]notification.Notification
	lastPage   int // 1-based, 0 = nothing rendered
	nextURL    string
	hasNext    bool
	busy       bool
	generation uint64
	total      int
}

// New creates a cursor positioned before the first page of startURL.
func New(fetcher Fetcher, startURL string, opts ...Option) *Cursor {
	c := &Cursor{
		fetcher:       fetcher,
		renderedPages: DefaultRenderedPages,
		nextURL:       startURL,
		hasNext:       startURL != "",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RenderedPages returns the configured window size.
func (c *Cursor) RenderedPages() int { return c.renderedPages }

// Refresh discards every buffered page and restarts from startURL. Any fetch
// still in flight completes as KindStale.
func (c *Cursor) Refresh(startURL string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.fetched = nil
	c.lastPage = 0
	c.nextURL = startURL
	c.hasNext = startURL != ""
	c.busy = false
	c.total = 0

	log.Debug().
		Uint64("generation", c.generation).
		Str("url", startURL).
		Msg("cursor refreshed")

	return c.generation
}

// Generation returns the current refresh generation.
func (c *Cursor) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// ScrollDown renders the page after the window, fetching it when it is not
// buffered yet. Empty pages with a next pointer are skipped, never rendered.
func (c *Cursor) ScrollDown(ctx context.Context) (Transition, error) {
	c.mu.Lock()
	if c.busy {
		gen := c.generation
		c.mu.Unlock()
		return Transition{Kind: KindDropped, Generation: gen}, nil
	}

	if c.lastPage < len(c.fetched) {
		t := c.appendLocked()
		c.mu.Unlock()
		return t, nil
	}

	if !c.hasNext {
		gen := c.generation
		c.mu.Unlock()
		return Transition{Kind: KindNone, Generation: gen}, nil
	}

	c.busy = true
	gen := c.generation
	url := c.nextURL
	c.mu.Unlock()

	results, next, hasNext, err := c.fetchNonEmpty(ctx, url)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		log.Debug().
			Uint64("generation", gen).
			Uint64("current", c.generation).
			Msg("discarding stale page fetch")
		return Transition{Kind: KindStale, Generation: gen}, nil
	}
	c.busy = false

	if err != nil {
		return Transition{Kind: KindNone, Generation: gen}, err
	}

	c.nextURL = next
	c.hasNext = hasNext
	if len(results) == 0 {
		return Transition{Kind: KindNone, Generation: gen}, nil
	}

	c.fetched = append(c.fetched, results)
	c.total += len(results)
	return c.appendLocked(), nil
}

// fetchNonEmpty follows next pointers until a page with results or the end
// of the collection.
func (c *Cursor) fetchNonEmpty(ctx context.Context, url string) ([]notification.Notification, string, bool, error) {
	for {
		page, err := c.fetcher.FetchPage(ctx, url)
		if err != nil {
			return nil, url, true, fmt.Errorf("fetch page %s: %w", url, err)
		}

		results, invalid := notification.Sanitize(page.Results)
		for _, verr := range invalid {
			log.Warn().Err(verr).Str("url", url).Msg("dropping malformed notification")
		}

		if len(results) > 0 || !page.HasNext() {
			next := ""
			if page.HasNext() {
				next = *page.Next
			}
			return results, next, page.HasNext(), nil
		}

		log.Debug().Str("url", url).Str("next", *page.Next).Msg("empty page, following next")
		url = *page.Next

		if err := ctx.Err(); err != nil {
			return nil, url, true, fmt.Errorf("fetch page %s: %w", url, err)
		}
	}
}

func (c *Cursor) appendLocked() Transition {
	t := Transition{Kind: KindAppended, Generation: c.generation}
	if c.lastPage >= c.renderedPages {
		t.Evicted = c.lastPage - c.renderedPages + 1
	}
	c.lastPage++
	t.Page = c.lastPage
	t.Notifications = c.fetched[c.lastPage-1]
	return t
}

// ScrollUp moves the window back by one page when pages before it are
// buffered: the newest rendered page is removed and its predecessor
// prepended.
func (c *Cursor) ScrollUp() Transition {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return Transition{Kind: KindDropped, Generation: c.generation}
	}
	if c.lastPage <= c.renderedPages {
		return Transition{Kind: KindNone, Generation: c.generation}
	}

	evicted := c.lastPage
	c.lastPage--
	page := c.lastPage - c.renderedPages + 1
	return Transition{
		Kind:          KindPrepended,
		Page:          page,
		Evicted:       evicted,
		Notifications: c.fetched[page-1],
		Generation:    c.generation,
	}
}

// State returns the lifecycle state.
func (c *Cursor) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Cursor) stateLocked() State {
	if !c.hasNext && c.lastPage == len(c.fetched) {
		return StateExhausted
	}
	if c.lastPage == 0 {
		return StateNoPageRendered
	}
	return StatePagesRendered
}

// Empty reports whether the collection is exhausted without a single
// notification.
func (c *Cursor) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked() == StateExhausted && c.total == 0
}

// Busy reports whether a fetch is in flight.
func (c *Cursor) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// LastRenderedPage returns the 1-based cursor position, 0 before the first
// render.
func (c *Cursor) LastRenderedPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPage
}

// FetchedPages returns the number of buffered pages.
func (c *Cursor) FetchedPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fetched)
}

// Window is the rendered part of the collection.
type Window struct {
	FirstPage  int
	Pages      [][]notification.Notification
	State      State
	Generation uint64
}

// Notifications flattens the window in render order.
func (w Window) Notifications() []notification.Notification {
	var out []notification.Notification
	for _, p := range w.Pages {
		out = append(out, p...)
	}
	return out
}

// Window returns a copy of the rendered pages.
func (c *Cursor) Window() Window {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := Window{State: c.stateLocked(), Generation: c.generation}
	if c.lastPage == 0 {
		return w
	}

	first := max(c.lastPage-c.renderedPages+1, 1)
	w.FirstPage = first
	for i := first; i <= c.lastPage; i++ {
		page := make([]notification.Notification, len(c.fetched[i-1]))
		copy(page, c.fetched[i-1])
		w.Pages = append(w.Pages, page)
	}
	return w
}
