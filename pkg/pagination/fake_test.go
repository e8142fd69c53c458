package pagination

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// fakeCollection is an in-memory collaborator recording every query.
type fakeCollection struct {
	mu    sync.Mutex
	items []string
	calls []Query
	gate  chan struct{}
	fail  error
}

func newFakeCollection(n int) *fakeCollection {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("item-%02d", i)
	}
	return &fakeCollection{items: items}
}

func (f *fakeCollection) fetch(ctx context.Context, q Query) (Page[string], error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	gate, fail := f.gate, f.fail
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Page[string]{}, ctx.Err()
		}
	}
	if fail != nil {
		return Page[string]{}, fail
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []string
	for _, it := range f.items {
		if strings.Contains(it, q.Search) {
			matched = append(matched, it)
		}
	}

	page := Page[string]{Data: []string{}, Total: len(matched)}
	if q.Offset < len(matched) {
		end := min(q.Offset+q.Limit, len(matched))
		page.Data = append(page.Data, matched[q.Offset:end]...)
	}
	return page, nil
}

func (f *fakeCollection) setGate(gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = gate
}

func (f *fakeCollection) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func (f *fakeCollection) remove(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = f.items[:len(f.items)-n]
}

func (f *fakeCollection) queries() []Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Query(nil), f.calls...)
}

func (f *fakeCollection) offsets() []int {
	var out []int
	for _, q := range f.queries() {
		out = append(out, q.Offset)
	}
	return out
}
