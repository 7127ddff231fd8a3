package listview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

type row struct {
	ID     string
	Active bool
}

func rowKey(r row) string { return r.ID }

// fakeSource serves total rows and records every query it receives.
type fakeSource struct {
	mu      sync.Mutex
	total   int
	err     error
	queries []Query
}

func (f *fakeSource) fetch(ctx context.Context, q Query) (catalogapi.Page[row], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return catalogapi.Page[row]{}, f.err
	}
	var items []row
	for i := (q.Page - 1) * q.Limit; i < q.Page*q.Limit && i < f.total; i++ {
		items = append(items, row{ID: fmt.Sprintf("r%d", i)})
	}
	return catalogapi.Page[row]{Items: items, Page: q.Page, Limit: q.Limit, Total: f.total, TotalPages: catalogapi.TotalPages(f.total, q.Limit)}, nil
}

func (f *fakeSource) lastQuery() Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func newController(src *fakeSource) *Controller[row] {
	return New[row](src.fetch, rowKey, Options{Resource: "rows", Limit: 10, MaxLimit: 100})
}

func TestController_PaginationClamp(t *testing.T) {
	src := &fakeSource{total: 25}
	c := newController(src)
	ctx := context.Background()

	s := c.Refetch(ctx)
	assert.Equal(t, 3, s.TotalPages)
	assert.Len(t, s.Items, 10)

	s = c.SetPage(ctx, 4)
	assert.Equal(t, 3, s.Page)
	assert.Equal(t, 3, src.lastQuery().Page)
	assert.Len(t, s.Items, 5)

	s = c.SetPage(ctx, 0)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 1, src.lastQuery().Page)
}

func TestController_SetPageBeforeLoadStaysOnFirstPage(t *testing.T) {
	src := &fakeSource{total: 0}
	c := newController(src)

	s := c.SetPage(context.Background(), 5)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 0, s.TotalPages)
	assert.NotNil(t, s.Items)
}

func TestController_FilterChangesResetPage(t *testing.T) {
	src := &fakeSource{total: 100}
	c := newController(src)
	ctx := context.Background()

	c.Refetch(ctx)
	c.SetPage(ctx, 4)
	require.Equal(t, 4, src.lastQuery().Page)

	c.SetSearch(ctx, "steel")
	assert.Equal(t, 1, src.lastQuery().Page)
	assert.Equal(t, "steel", src.lastQuery().Search)

	c.SetPage(ctx, 3)
	c.SetFilter(ctx, "status", "active")
	assert.Equal(t, 1, src.lastQuery().Page)
	assert.Equal(t, map[string]string{"status": "active"}, src.lastQuery().Filters)

	c.SetPage(ctx, 2)
	c.SetLimit(ctx, 25)
	assert.Equal(t, 1, src.lastQuery().Page)
	assert.Equal(t, 25, src.lastQuery().Limit)

	c.SetPage(ctx, 2)
	s := c.ClearFilters(ctx)
	assert.Equal(t, 1, src.lastQuery().Page)
	assert.Empty(t, s.Filters)
	assert.Empty(t, s.Search)

	c.SetFilter(ctx, "status", "active")
	c.SetFilter(ctx, "status", "")
	assert.Empty(t, src.lastQuery().Filters)
}

func TestController_ApplyIssuesOneFetch(t *testing.T) {
	src := &fakeSource{total: 100}
	c := newController(src)
	ctx := context.Background()
	c.Refetch(ctx)
	before := src.calls()

	s := c.Apply(ctx, Query{Search: "bar", Filters: map[string]string{"brandId": "b1", "categoryId": ""}, Page: 5})
	assert.Equal(t, before+1, src.calls())
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, map[string]string{"brandId": "b1"}, s.Filters)

	s = c.Apply(ctx, Query{Search: "bar", Filters: map[string]string{"brandId": "b1"}, Page: 3})
	assert.Equal(t, 3, s.Page)

	s = c.Apply(ctx, Query{Search: "bar", Page: 99})
	assert.Equal(t, 10, s.Page)
	assert.Equal(t, map[string]string{"brandId": "b1"}, s.Filters)

	s = c.Apply(ctx, Query{Search: "bar", Limit: 1000})
	assert.Equal(t, 100, s.Limit)
	assert.Equal(t, 1, s.Page)

	s = c.Apply(ctx, Query{})
	assert.Empty(t, s.Search)
	assert.Equal(t, "", src.lastQuery().Search)
	assert.Equal(t, map[string]string{"brandId": "b1"}, s.Filters)
	assert.Equal(t, 100, s.Limit)
}

func TestController_StaleResponseIsDiscarded(t *testing.T) {
	releaseA := make(chan struct{})
	startedA := make(chan struct{})
	fetch := func(ctx context.Context, q Query) (catalogapi.Page[row], error) {
		if q.Search == "a" {
			close(startedA)
			<-releaseA
			return catalogapi.Page[row]{Items: []row{{ID: "from-a"}}, Total: 1, Limit: 10}, nil
		}
		return catalogapi.Page[row]{Items: []row{{ID: "from-b"}}, Total: 1, Limit: 10}, nil
	}
	c := New[row](fetch, rowKey, Options{Limit: 10})
	ctx := context.Background()

	doneA := make(chan State[row])
	go func() { doneA <- c.SetSearch(ctx, "a") }()
	<-startedA

	sB := c.SetSearch(ctx, "b")
	require.Equal(t, "from-b", sB.Items[0].ID)

	close(releaseA)
	sA := <-doneA

	assert.Equal(t, "from-b", sA.Items[0].ID)
	final := c.State()
	assert.Equal(t, "from-b", final.Items[0].ID)
	assert.Equal(t, "b", final.Search)
	assert.False(t, final.Loading)
}

func TestController_ErrorKeepsItems(t *testing.T) {
	src := &fakeSource{total: 12}
	c := newController(src)
	ctx := context.Background()

	s := c.Refetch(ctx)
	require.Len(t, s.Items, 10)

	src.mu.Lock()
	src.err = &catalogapi.NetworkError{Method: "GET", URL: "http://api/products", Err: errors.New("connection refused")}
	src.mu.Unlock()

	s = c.SetPage(ctx, 2)
	assert.Len(t, s.Items, 10)
	assert.False(t, s.Loading)
	assert.NotEmpty(t, s.Error)
	assert.Equal(t, catalogapi.KindNetwork, catalogapi.KindOf(s.Err))

	src.mu.Lock()
	src.err = nil
	src.mu.Unlock()
	s = c.Refetch(ctx)
	assert.Empty(t, s.Error)
	assert.Len(t, s.Items, 2)
}

func TestController_OptimisticRemove(t *testing.T) {
	src := &fakeSource{total: 25}
	c := newController(src)
	ctx := context.Background()
	c.Refetch(ctx)
	calls := src.calls()

	removed := c.OptimisticRemove([]string{"r1", "r2", "missing"})
	assert.Equal(t, 2, removed)

	s := c.State()
	assert.Len(t, s.Items, 8)
	assert.Equal(t, 23, s.Total)
	assert.Equal(t, 3, s.TotalPages)
	for _, it := range s.Items {
		assert.NotContains(t, []string{"r1", "r2"}, it.ID)
	}
	assert.Equal(t, calls, src.calls())
}

func TestController_OptimisticPatch(t *testing.T) {
	src := &fakeSource{total: 5}
	c := newController(src)
	c.Refetch(context.Background())
	before := c.State()

	n := c.OptimisticPatch([]string{"r0", "r3"}, func(r *row) { r.Active = true })
	assert.Equal(t, 2, n)

	s := c.State()
	assert.True(t, s.Items[0].Active)
	assert.False(t, s.Items[1].Active)
	assert.True(t, s.Items[3].Active)
	assert.False(t, before.Items[0].Active, "earlier snapshots are not mutated")
}

func TestController_DedupesItems(t *testing.T) {
	fetch := func(ctx context.Context, q Query) (catalogapi.Page[row], error) {
		return catalogapi.Page[row]{Items: []row{{ID: "a"}, {ID: "b"}, {ID: "a"}}, Total: 3, Limit: 10}, nil
	}
	s := New[row](fetch, rowKey, Options{}).Refetch(context.Background())
	assert.Len(t, s.Items, 2)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	src := &fakeSource{}
	created := 0
	create := func() *Controller[row] {
		created++
		return newController(src)
	}

	a := Lookup(r, "s1", "products", create)
	b := Lookup(r, "s1", "products", create)
	assert.Same(t, a, b)
	Lookup(r, "s1", "orders", create)
	Lookup(r, "s2", "products", create)
	assert.Equal(t, 3, created)
	assert.Equal(t, 3, r.Len())

	assert.Equal(t, 0, r.Sweep(time.Hour, time.Now()))
	assert.Equal(t, 3, r.Sweep(time.Minute, time.Now().Add(2*time.Minute)))
	assert.Zero(t, r.Len())

	Lookup(r, "s1", "products", create)
	Lookup(r, "s2", "products", create)
	assert.Equal(t, 1, r.DropSession("s1"))
	assert.Equal(t, 1, r.Len())
}
