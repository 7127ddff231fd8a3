// Package listview holds the server-side state of a paginated, searchable
// table: one Controller per browser session and resource.
package listview

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

// Query is the fetch intent derived from controller state.
type Query struct {
	Page    int
	Limit   int
	Search  string
	Filters map[string]string
}

// Fetcher loads one page for q.
type Fetcher[T any] func(ctx context.Context, q Query) (catalogapi.Page[T], error)

// KeyFunc returns the identity of an item, used for dedup and optimistic updates.
type KeyFunc[T any] func(T) string

// State is a snapshot of a controller.
type State[T any] struct {
	Items      []T               `json:"items"`
	Loading    bool              `json:"loading"`
	Error      string            `json:"error,omitempty"`
	Err        error             `json:"-"`
	Search     string            `json:"search"`
	Filters    map[string]string `json:"filters"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	Total      int               `json:"total"`
	TotalPages int               `json:"totalPages"`
	Loaded     bool              `json:"loaded"`
}

// Options configures a Controller.
type Options struct {
	Resource string
	Limit    int
	MaxLimit int
}

// Controller turns search, filter and page intents into exactly one
// authoritative view of remote data. Every fetch is tagged with a sequence
// number; a response is applied only if no newer fetch has started since.
type Controller[T any] struct {
	mu       sync.Mutex
	fetch    Fetcher[T]
	key      KeyFunc[T]
	resource string
	maxLimit int

	seq        uint64
	items      []T
	loading    bool
	err        error
	search     string
	filters    map[string]string
	page       int
	limit      int
	total      int
	totalPages int
	loaded     bool
	lastUsed   time.Time
}

// New creates a controller at page 1 with no search or filters. No fetch is
// issued until one of the intent methods or Refetch is called.
func New[T any](fetch Fetcher[T], key KeyFunc[T], opts Options) *Controller[T] {
	if opts.Limit <= 0 {
		opts.Limit = catalogapi.DefaultLimit
	}
	if opts.MaxLimit < opts.Limit {
		opts.MaxLimit = opts.Limit
	}
	return &Controller[T]{
		fetch:    fetch,
		key:      key,
		resource: opts.Resource,
		maxLimit: opts.MaxLimit,
		items:    []T{},
		filters:  map[string]string{},
		page:     1,
		limit:    opts.Limit,
		lastUsed: time.Now(),
	}
}

// SetSearch replaces the search text, resets to page 1 and refetches.
func (c *Controller[T]) SetSearch(ctx context.Context, search string) State[T] {
	c.mu.Lock()
	c.search = search
	c.page = 1
	c.mu.Unlock()
	return c.Refetch(ctx)
}

// SetFilter sets one filter (an empty value removes it), resets to page 1
// and refetches.
func (c *Controller[T]) SetFilter(ctx context.Context, key, value string) State[T] {
	c.mu.Lock()
	c.setFilterLocked(key, value)
	c.page = 1
	c.mu.Unlock()
	return c.Refetch(ctx)
}

// ClearFilters removes every filter and the search text, resets to page 1
// and refetches.
func (c *Controller[T]) ClearFilters(ctx context.Context) State[T] {
	c.mu.Lock()
	c.filters = map[string]string{}
	c.search = ""
	c.page = 1
	c.mu.Unlock()
	return c.Refetch(ctx)
}

// SetPage moves to page n clamped to 1..TotalPages and refetches.
func (c *Controller[T]) SetPage(ctx context.Context, n int) State[T] {
	c.mu.Lock()
	c.page = c.clampPageLocked(n)
	c.mu.Unlock()
	return c.Refetch(ctx)
}

// SetLimit changes the page size (clamped to 1..MaxLimit), resets to page 1
// and refetches.
func (c *Controller[T]) SetLimit(ctx context.Context, n int) State[T] {
	c.mu.Lock()
	c.limit = c.clampLimitLocked(n)
	c.page = 1
	c.mu.Unlock()
	return c.Refetch(ctx)
}

// Apply folds a whole intent into state and issues a single fetch. When the
// search or filters differ from the current ones the page resets to 1;
// otherwise q.Page (if set) is clamped and used. Search always replaces the
// current search, so an empty Search clears it. A zero Page or Limit keeps
// the current value; a nil Filters map keeps the current filters.
func (c *Controller[T]) Apply(ctx context.Context, q Query) State[T] {
	c.mu.Lock()
	changed := false
	if q.Search != c.search {
		c.search = q.Search
		changed = true
	}
	if q.Filters != nil && !sameFilters(c.filters, q.Filters) {
		c.filters = map[string]string{}
		for k, v := range q.Filters {
			c.setFilterLocked(k, v)
		}
		changed = true
	}
	if q.Limit > 0 {
		if l := c.clampLimitLocked(q.Limit); l != c.limit {
			c.limit = l
			changed = true
		}
	}
	switch {
	case changed:
		c.page = 1
	case q.Page != 0:
		c.page = c.clampPageLocked(q.Page)
	}
	c.mu.Unlock()
	return c.Refetch(ctx)
}

// Refetch loads the current page. Fetch errors are recorded in State and
// leave the current items in place. A response that arrives after a newer
// fetch has started is discarded.
func (c *Controller[T]) Refetch(ctx context.Context) State[T] {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.loading = true
	c.lastUsed = time.Now()
	q := c.queryLocked()
	c.mu.Unlock()

	page, err := c.fetch(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		log.Debug().
			Str("resource", c.resource).
			Uint64("seq", seq).
			Uint64("latest", c.seq).
			Msg("Discarding stale list response")
		return c.snapshotLocked()
	}
	c.loading = false
	if err != nil {
		c.err = err
		log.Warn().Err(err).Str("resource", c.resource).Int("page", q.Page).Msg("List fetch failed")
		return c.snapshotLocked()
	}
	c.err = nil
	c.loaded = true
	c.items = c.dedupe(page.Items)
	c.total = page.Total
	if page.Limit > 0 {
		c.limit = page.Limit
	}
	c.totalPages = catalogapi.TotalPages(c.total, c.limit)
	return c.snapshotLocked()
}

// OptimisticRemove drops items with the given ids after a successful delete
// and lowers Total by the number removed. No fetch is issued.
func (c *Controller[T]) OptimisticRemove(ids []string) int {
	drop := toSet(ids)
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0:0]
	removed := 0
	for _, it := range c.items {
		if drop[c.key(it)] {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	c.items = kept
	c.total -= removed
	if c.total < 0 {
		c.total = 0
	}
	c.totalPages = catalogapi.TotalPages(c.total, c.limit)
	c.lastUsed = time.Now()
	return removed
}

// OptimisticPatch applies patch to every item whose id is in ids. No fetch
// is issued.
func (c *Controller[T]) OptimisticPatch(ids []string, patch func(*T)) int {
	match := toSet(ids)
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]T, len(c.items))
	copy(items, c.items)
	patched := 0
	for i := range items {
		if match[c.key(items[i])] {
			patch(&items[i])
			patched++
		}
	}
	c.items = items
	c.lastUsed = time.Now()
	return patched
}

// State returns the current snapshot.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// LastUsed returns when the controller last saw an intent or fetch.
func (c *Controller[T]) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// Touch marks the controller as used now.
func (c *Controller[T]) Touch() {
	c.mu.Lock()
	c.lastUsed = time.Now()
	c.mu.Unlock()
}

func (c *Controller[T]) queryLocked() Query {
	filters := make(map[string]string, len(c.filters))
	for k, v := range c.filters {
		filters[k] = v
	}
	return Query{Page: c.page, Limit: c.limit, Search: c.search, Filters: filters}
}

func (c *Controller[T]) snapshotLocked() State[T] {
	items := make([]T, len(c.items))
	copy(items, c.items)
	q := c.queryLocked()
	s := State[T]{
		Items:      items,
		Loading:    c.loading,
		Err:        c.err,
		Search:     q.Search,
		Filters:    q.Filters,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      c.total,
		TotalPages: c.totalPages,
		Loaded:     c.loaded,
	}
	if c.err != nil {
		s.Error = catalogapi.UserMessage(c.err)
	}
	return s
}

func (c *Controller[T]) setFilterLocked(key, value string) {
	if key == "" {
		return
	}
	if value == "" {
		delete(c.filters, key)
		return
	}
	c.filters[key] = value
}

func (c *Controller[T]) clampPageLocked(n int) int {
	if n < 1 || c.totalPages == 0 {
		return 1
	}
	if n > c.totalPages {
		return c.totalPages
	}
	return n
}

func (c *Controller[T]) clampLimitLocked(n int) int {
	if n < 1 {
		return 1
	}
	if n > c.maxLimit {
		return c.maxLimit
	}
	return n
}

func (c *Controller[T]) dedupe(items []T) []T {
	out := make([]T, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		k := c.key(it)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}

func sameFilters(cur, next map[string]string) bool {
	n := 0
	for k, v := range next {
		if v == "" {
			continue
		}
		n++
		if cur[k] != v {
			return false
		}
	}
	return n == len(cur)
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
