package catalog

import (
	"context"
	"sync"
	"time"
)

// State is the load state of an Accumulator.
type State int

const (
	StateIdle State = iota
	StateLoadingMore
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingMore:
		return "loading_more"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// DefaultFetchTimeout bounds a single next-page fetch.
const DefaultFetchTimeout = 15 * time.Second

// Snapshot is a copy of the accumulator state safe to hand to a renderer.
type Snapshot struct {
	Items       []Item
	State       State
	HasNextPage bool
	EndCursor   string
	Err         error
}

// CanLoadMore reports whether the load-more affordance should be enabled.
func (s Snapshot) CanLoadMore() bool {
	return s.State == StateIdle && s.HasNextPage
}

// Accumulator holds the products shown in one view and appends each fetched
// page to the end. Items are never reordered or de-duplicated. At most one
// fetch is in flight at a time.
type Accumulator struct {
	fetcher PageFetcher
	timeout time.Duration

	mu        sync.Mutex
	items     []Item
	hasNext   bool
	endCursor string
	state     State
	lastErr   error
}

type AccumulatorOption func(*Accumulator)

// WithFetchTimeout sets how long a fetch may take before the accumulator
// gives up and enters the error state. Zero disables the timeout.
func WithFetchTimeout(d time.Duration) AccumulatorOption {
	return func(a *Accumulator) {
		a.timeout = d
	}
}

func NewAccumulator(fetcher PageFetcher, opts ...AccumulatorOption) *Accumulator {
	a := &Accumulator{
		fetcher: fetcher,
		timeout: DefaultFetchTimeout,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Seed replaces the accumulator contents with the initial page loader
// response. A failed initial load leaves an empty list in the error state, so
// Retry requests the first page again. Seed returns ErrBusy and changes
// nothing while a fetch is in flight.
func (a *Accumulator) Seed(resp Response) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateLoadingMore {
		return ErrBusy
	}

	if err := resp.Err(); err != nil {
		a.items = nil
		a.hasNext = false
		a.endCursor = ""
		a.state = StateError
		a.lastErr = err
		return nil
	}

	page := resp.Page()
	a.items = append([]Item(nil), page.Items...)
	a.hasNext = page.HasNextPage
	a.endCursor = page.EndCursor
	a.state = StateIdle
	a.lastErr = nil
	return nil
}

// LoadMore fetches the page after the current end cursor and appends it.
// It returns ErrBusy without fetching while another load is in flight and
// ErrNoMorePages once the last page has been merged. From the error state it
// behaves like Retry.
func (a *Accumulator) LoadMore(ctx context.Context) error {
	a.mu.Lock()
	switch {
	case a.state == StateLoadingMore:
		a.mu.Unlock()
		return ErrBusy
	case a.state == StateError:
		a.mu.Unlock()
		return a.Retry(ctx)
	case !a.hasNext:
		a.mu.Unlock()
		return ErrNoMorePages
	}
	after := a.endCursor
	a.state = StateLoadingMore
	a.mu.Unlock()

	return a.fetch(ctx, after)
}

// Retry re-issues the request that failed, with the same cursor.
func (a *Accumulator) Retry(ctx context.Context) error {
	a.mu.Lock()
	switch a.state {
	case StateLoadingMore:
		a.mu.Unlock()
		return ErrBusy
	case StateIdle:
		a.mu.Unlock()
		return ErrNothingToRetry
	}
	after := a.endCursor
	a.state = StateLoadingMore
	a.mu.Unlock()

	return a.fetch(ctx, after)
}

type fetchResult struct {
	page *Page
	err  error
}

func (a *Accumulator) fetch(ctx context.Context, after string) error {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	// The fetcher runs in its own goroutine so a fetcher that ignores ctx still
	// cannot hold the accumulator in LoadingMore past the deadline. A late
	// result lands in the buffered channel and is dropped.
	done := make(chan fetchResult, 1)
	go func() {
		page, err := a.fetcher.FetchPage(ctx, after)
		done <- fetchResult{page: page, err: err}
	}()

	var res fetchResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err == nil && res.page == nil {
		res.err = &FetchError{Op: "fetch page", Err: ErrMalformedResponse}
	}
	res.err = AsFetchError("fetch page", res.err)

	a.mu.Lock()
	defer a.mu.Unlock()

	if res.err != nil {
		a.state = StateError
		a.lastErr = res.err
		return res.err
	}

	a.items = append(a.items, res.page.Items...)
	a.hasNext = res.page.HasNextPage
	a.endCursor = res.page.EndCursor
	a.state = StateIdle
	a.lastErr = nil
	return nil
}

// Snapshot returns a copy of the current state.
func (a *Accumulator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	items := make([]Item, len(a.items))
	copy(items, a.items)

	return Snapshot{
		Items:       items,
		State:       a.state,
		HasNextPage: a.hasNext,
		EndCursor:   a.endCursor,
		Err:         a.lastErr,
	}
}

func (a *Accumulator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}
