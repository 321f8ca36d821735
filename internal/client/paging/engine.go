package paging

import (
	"context"
	"fmt"
	"sync"
)

// Fetcher returns the items of one page in backend order.
type Fetcher[T any] func(ctx context.Context, q Query) ([]T, error)

type stream[T any] struct {
	seq  sync.Mutex // serializes loads of this generation
	gen  uint64
	list PagedList[T]
}

type Engine[T any] struct {
	fetch    Fetcher[T]
	pageSize int

	mu      sync.Mutex
	streams map[FilterContext]*stream[T]
	gens    map[FilterContext]uint64
	subs    map[int]func(FilterContext, PagedList[T])
	nextSub int
}

func NewEngine[T any](fetch Fetcher[T], pageSize int) *Engine[T] {
	if pageSize <= 0 {
		pageSize = 1
	}
	return &Engine[T]{
		fetch:    fetch,
		pageSize: pageSize,
		streams:  make(map[FilterContext]*stream[T]),
		gens:     make(map[FilterContext]uint64),
		subs:     make(map[int]func(FilterContext, PagedList[T])),
	}
}

func (e *Engine[T]) PageSize() int { return e.pageSize }

// Load fetches page for fc and merges it into the stream.
//
// Page 0 replaces the stream's items; page NextPage appends. Any other page
// fails with ErrPageOutOfOrder. Loading past an exhausted stream returns the
// snapshot without fetching. On a fetch error the accumulated items are left
// as they were and the error is returned unchanged.
func (e *Engine[T]) Load(ctx context.Context, fc FilterContext, page int) (PagedList[T], error) {
	st := e.stream(fc)

	st.seq.Lock()
	defer st.seq.Unlock()

	e.mu.Lock()
	if e.streams[fc] != st {
		e.mu.Unlock()
		return e.Snapshot(fc), ErrStale
	}
	if page != 0 && page != st.list.NextPage {
		snap := st.list.clone()
		e.mu.Unlock()
		return snap, fmt.Errorf("%w: want 0 or %d, got %d", ErrPageOutOfOrder, snap.NextPage, page)
	}
	if page != 0 && st.list.Exhausted {
		snap := st.list.clone()
		e.mu.Unlock()
		return snap, nil
	}
	st.list.Loading = true
	e.publishLocked(fc, st)
	e.mu.Unlock()

	items, err := e.fetch(ctx, Query{FilterContext: fc, Page: page, PageSize: e.pageSize})

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streams[fc] != st {
		// reset while we were waiting on the backend; a fetch error still
		// says more than ErrStale
		if err != nil {
			return e.snapshotLocked(fc), err
		}
		return e.snapshotLocked(fc), ErrStale
	}
	st.list.Loading = false
	if err != nil {
		st.list.Err = err
		e.publishLocked(fc, st)
		return st.list.clone(), err
	}

	if page == 0 {
		st.list.Items = append([]T(nil), items...)
	} else {
		st.list.Items = append(st.list.Items, items...)
	}
	st.list.NextPage = page + 1
	st.list.Exhausted = len(items) < e.pageSize
	st.list.Err = nil
	e.publishLocked(fc, st)
	return st.list.clone(), nil
}

// Reset discards the accumulated state of fc. The next Load of page 0
// starts fresh; a load in flight for the old state is discarded.
func (e *Engine[T]) Reset(fc FilterContext) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked(fc)
}

// ResetAll resets every known context.
func (e *Engine[T]) ResetAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for fc := range e.streams {
		e.resetLocked(fc)
	}
}

// Reload resets fc and loads its first page.
func (e *Engine[T]) Reload(ctx context.Context, fc FilterContext) (PagedList[T], error) {
	e.Reset(fc)
	return e.Load(ctx, fc, 0)
}

// LoadNext loads the page after the last one merged into fc.
func (e *Engine[T]) LoadNext(ctx context.Context, fc FilterContext) (PagedList[T], error) {
	return e.Load(ctx, fc, e.Snapshot(fc).NextPage)
}

// Snapshot returns a copy of the current state of fc.
func (e *Engine[T]) Snapshot(fc FilterContext) PagedList[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(fc)
}

// Contexts lists the contexts the engine currently holds state for.
func (e *Engine[T]) Contexts() []FilterContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]FilterContext, 0, len(e.streams))
	for fc := range e.streams {
		out = append(out, fc)
	}
	return out
}

// Subscribe registers fn for every state change of every context. fn is
// called with the engine lock held and must not call back into the engine.
func (e *Engine[T]) Subscribe(fn func(FilterContext, PagedList[T])) (cancel func()) {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

func (e *Engine[T]) stream(fc FilterContext) *stream[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.streams[fc]
	if !ok {
		st = &stream[T]{gen: e.gens[fc]}
		st.list.Generation = st.gen
		e.streams[fc] = st
	}
	return st
}

func (e *Engine[T]) resetLocked(fc FilterContext) {
	e.gens[fc]++
	st := &stream[T]{gen: e.gens[fc]}
	st.list.Generation = st.gen
	e.streams[fc] = st
	e.publishLocked(fc, st)
}

func (e *Engine[T]) snapshotLocked(fc FilterContext) PagedList[T] {
	st, ok := e.streams[fc]
	if !ok {
		return PagedList[T]{Generation: e.gens[fc]}
	}
	return st.list.clone()
}

func (e *Engine[T]) publishLocked(fc FilterContext, st *stream[T]) {
	if len(e.subs) == 0 {
		return
	}
	snap := st.list.clone()
	for _, fn := range e.subs {
		fn(fc, snap)
	}
}

func (l PagedList[T]) clone() PagedList[T] {
	l.Items = append([]T(nil), l.Items...)
	return l
}
