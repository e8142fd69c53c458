package pagination

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var quiet = zerolog.Nop()

func newAppendController(f *fakeCollection, limit int) *Controller[string] {
	return NewController(f.fetch, Options[string]{
		Name:   "test",
		Limit:  limit,
		Mode:   ModeAppend,
		Logger: &quiet,
	})
}

func newReplaceController(f *fakeCollection, limit int) *Controller[string] {
	return NewController(f.fetch, Options[string]{
		Name:   "test",
		Limit:  limit,
		Mode:   ModeReplace,
		Logger: &quiet,
	})
}

func TestController_InitialState(t *testing.T) {
	c := newAppendController(newFakeCollection(5), 10)
	defer c.Close()

	s := c.Snapshot()
	if s.State != WaitingForVisibility || s.Offset != 0 || s.Total != 0 || len(s.Items) != 0 || s.Loaded {
		t.Errorf("initial snapshot = %+v", s)
	}
}

func TestController_RequestMoreWhileFetchingIsNoop(t *testing.T) {
	f := newFakeCollection(25)
	gate := make(chan struct{})
	f.setGate(gate)

	c := newAppendController(f, 10)
	defer c.Close()

	c.Start()
	require.Equal(t, Fetching, c.Snapshot().State)

	if c.RequestMore() {
		t.Error("RequestMore() started a second fetch while one is in flight")
	}
	if c.Visible() {
		t.Error("Visible() started a second fetch while one is in flight")
	}
	c.RequestMore()

	close(gate)
	c.Wait()

	if n := len(f.queries()); n != 1 {
		t.Errorf("collaborator calls = %d, want 1", n)
	}
	if got := len(c.Snapshot().Items); got != 10 {
		t.Errorf("items = %d, want 10", got)
	}
}

func TestController_Accumulation(t *testing.T) {
	f := newFakeCollection(25)
	c := newAppendController(f, 10)
	defer c.Close()

	c.Start()
	c.Wait()

	var lengths []int
	lengths = append(lengths, len(c.Snapshot().Items))
	for c.Visible() {
		c.Wait()
		lengths = append(lengths, len(c.Snapshot().Items))
	}

	if diff := cmp.Diff([]int{10, 20, 25}, lengths); diff != "" {
		t.Errorf("accumulated lengths mismatch (-want +got):\n%s", diff)
	}

	s := c.Snapshot()
	if s.State != Exhausted {
		t.Errorf("State = %v, want exhausted", s.State)
	}
	if s.Offset != 20 {
		t.Errorf("Offset = %d, want 20", s.Offset)
	}

	// The sentinel stays in view: nothing more may be requested.
	for i := 0; i < 3; i++ {
		if c.Visible() {
			t.Fatal("Visible() fetched from an exhausted list")
		}
	}
	if diff := cmp.Diff([]int{0, 10, 20}, f.offsets()); diff != "" {
		t.Errorf("requested offsets mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(f.items, s.Items); diff != "" {
		t.Errorf("items not in server order (-want +got):\n%s", diff)
	}
}

func TestController_ResetOnSearch(t *testing.T) {
	f := newFakeCollection(30)
	c := newAppendController(f, 10)
	defer c.Close()

	c.Start()
	c.Wait()
	c.Visible()
	c.Wait()

	before := c.Snapshot()
	require.Len(t, before.Items, 20)
	require.Equal(t, 10, before.Offset)

	c.SetSearch("nothing-matches")

	s := c.Snapshot()
	if len(s.Items) != 0 || s.Offset != 0 {
		t.Errorf("after reset: items = %v, offset = %d; want empty list at offset 0", s.Items, s.Offset)
	}
	c.Wait()

	queries := f.queries()
	require.Len(t, queries, 3)
	want := Query{Search: "nothing-matches", Limit: 10, Offset: 0}
	if diff := cmp.Diff(want, queries[2]); diff != "" {
		t.Errorf("reset query mismatch (-want +got):\n%s", diff)
	}

	s = c.Snapshot()
	if s.State != Exhausted || s.Total != 0 {
		t.Errorf("after empty search: state = %v, total = %d", s.State, s.Total)
	}

	// Exhausted -> WaitingForVisibility on the next identity change.
	c.SetSearch("")
	c.Wait()
	if got := c.Snapshot(); got.State != WaitingForVisibility || len(got.Items) != 10 {
		t.Errorf("after clearing search: state = %v, items = %d", got.State, len(got.Items))
	}
}

func TestController_SetSearchUnchangedIsIgnored(t *testing.T) {
	f := newFakeCollection(5)
	c := newAppendController(f, 10)
	defer c.Close()

	c.Start()
	c.Wait()
	c.SetSearch("")
	c.Wait()

	if n := len(f.queries()); n != 1 {
		t.Errorf("collaborator calls = %d, want 1", n)
	}
}

func TestController_SetParentKeepsSearch(t *testing.T) {
	f := newFakeCollection(5)
	c := newReplaceController(f, 10)
	defer c.Close()

	c.SetSearch("item")
	c.Wait()
	c.SetParent("company-7")
	c.Wait()

	queries := f.queries()
	last := queries[len(queries)-1]
	if last.ParentID != "company-7" || last.Search != "item" || last.Offset != 0 {
		t.Errorf("last query = %+v", last)
	}
}

func TestController_ResetDiscardsInFlight(t *testing.T) {
	f := newFakeCollection(30)
	gate := make(chan struct{})
	f.setGate(gate)

	var changes atomic.Int32
	c := NewController(f.fetch, Options[string]{
		Limit:    10,
		Logger:   &quiet,
		OnChange: func(Snapshot[string]) { changes.Add(1) },
	})
	defer c.Close()

	c.Start()
	c.SetSearch("item-2")
	close(gate)
	c.Wait()

	s := c.Snapshot()
	if s.Err != nil {
		t.Errorf("Err = %v, superseded fetch must not surface", s.Err)
	}
	want := []string{"item-20", "item-21", "item-22", "item-23", "item-24", "item-25", "item-26", "item-27", "item-28", "item-29"}
	if diff := cmp.Diff(want, s.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if changes.Load() == 0 {
		t.Error("OnChange was never called")
	}
}

func TestController_BackPageOnEmpty(t *testing.T) {
	f := newFakeCollection(20)
	c := newReplaceController(f, 10)
	defer c.Close()

	c.Start()
	c.Wait()
	require.True(t, c.NextPage())
	c.Wait()
	require.Equal(t, 10, c.Snapshot().Offset)

	// Detaching elsewhere shrank the collection to 10 items.
	f.remove(10)
	c.Refresh()
	c.Wait()

	s := c.Snapshot()
	if s.Offset != 0 {
		t.Errorf("Offset = %d, want 0", s.Offset)
	}
	if diff := cmp.Diff(f.items, s.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 10, 10, 0}, f.offsets()); diff != "" {
		t.Errorf("requested offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestController_RemovedStepsBackFromTotal(t *testing.T) {
	f := newFakeCollection(11)
	c := newReplaceController(f, 10)
	defer c.Close()

	c.Start()
	c.Wait()
	c.NextPage()
	c.Wait()
	require.Len(t, c.Snapshot().Items, 1)

	f.remove(1)
	c.Removed(1)
	c.Wait()

	s := c.Snapshot()
	if s.Offset != 0 || len(s.Items) != 10 || s.Total != 10 {
		t.Errorf("after removal: offset = %d, items = %d, total = %d", s.Offset, len(s.Items), s.Total)
	}
	// No wasted round trip for the now empty page.
	if diff := cmp.Diff([]int{0, 10, 0}, f.offsets()); diff != "" {
		t.Errorf("requested offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestController_RemovedWithStaleTotalFallsBack(t *testing.T) {
	f := newFakeCollection(12)
	c := newReplaceController(f, 10)
	defer c.Close()

	c.Start()
	c.Wait()
	c.NextPage()
	c.Wait()

	// Two items went away but only one removal is known locally.
	f.remove(2)
	c.Removed(1)
	c.Wait()

	s := c.Snapshot()
	if s.Offset != 0 || len(s.Items) != 10 {
		t.Errorf("offset = %d, items = %d; want first page", s.Offset, len(s.Items))
	}
	if diff := cmp.Diff([]int{0, 10, 10, 0}, f.offsets()); diff != "" {
		t.Errorf("requested offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestController_RemovedKeepsPageWhenItemsRemain(t *testing.T) {
	f := newFakeCollection(25)
	c := newReplaceController(f, 10)
	defer c.Close()

	c.Start()
	c.Wait()
	c.NextPage()
	c.Wait()

	f.remove(1)
	c.Removed(1)
	c.Wait()

	if s := c.Snapshot(); s.Offset != 10 || len(s.Items) != 10 || s.Total != 24 {
		t.Errorf("offset = %d, items = %d, total = %d", s.Offset, len(s.Items), s.Total)
	}
}

func TestController_FailureKeepsList(t *testing.T) {
	f := newFakeCollection(25)
	c := newAppendController(f, 10)
	defer c.Close()

	c.Start()
	c.Wait()

	boom := errors.New("connection reset")
	f.setFail(boom)
	require.True(t, c.Visible())
	c.Wait()

	s := c.Snapshot()
	if len(s.Items) != 10 {
		t.Errorf("items = %d, want 10 (unchanged)", len(s.Items))
	}
	if !errors.Is(s.Err, boom) {
		t.Errorf("Err = %v, want %v", s.Err, boom)
	}
	if s.State != WaitingForVisibility {
		t.Errorf("State = %v, want waiting", s.State)
	}

	f.setFail(nil)
	require.True(t, c.Visible())
	c.Wait()

	s = c.Snapshot()
	if len(s.Items) != 20 || s.Err != nil {
		t.Errorf("after recovery: items = %d, err = %v", len(s.Items), s.Err)
	}
	if diff := cmp.Diff([]int{0, 10, 10}, f.offsets()); diff != "" {
		t.Errorf("requested offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestController_FirstPageFailureIsNotExhausted(t *testing.T) {
	f := newFakeCollection(5)
	f.setFail(errors.New("timeout"))

	c := newAppendController(f, 10)
	defer c.Close()

	c.Start()
	c.Wait()

	s := c.Snapshot()
	if s.State != WaitingForVisibility || s.Loaded {
		t.Errorf("state = %v, loaded = %v", s.State, s.Loaded)
	}

	f.setFail(nil)
	require.True(t, c.Visible())
	c.Wait()

	if got := c.Snapshot(); len(got.Items) != 5 || got.State != Exhausted {
		t.Errorf("items = %d, state = %v", len(got.Items), got.State)
	}
}

func TestController_CloseDiscardsResult(t *testing.T) {
	f := newFakeCollection(5)
	gate := make(chan struct{})
	f.setGate(gate)

	var afterClose atomic.Bool
	var closed atomic.Bool
	c := NewController(f.fetch, Options[string]{
		Logger: &quiet,
		OnChange: func(Snapshot[string]) {
			if closed.Load() {
				afterClose.Store(true)
			}
		},
	})

	c.Start()
	closed.Store(true)
	c.Close()
	close(gate)
	c.Wait()
	time.Sleep(20 * time.Millisecond)

	if afterClose.Load() {
		t.Error("OnChange called after Close")
	}
	if n := len(c.Snapshot().Items); n != 0 {
		t.Errorf("items = %d, result applied after Close", n)
	}

	c.Start()
	if n := len(f.queries()); n != 1 {
		t.Errorf("collaborator calls = %d, closed controller must not fetch", n)
	}
}

func TestController_PageNavigation(t *testing.T) {
	f := newFakeCollection(25)
	c := newReplaceController(f, 10)
	defer c.Close()

	if c.PrevPage() {
		t.Error("PrevPage() on first page")
	}

	c.Start()
	c.Wait()
	if c.Visible() {
		t.Error("Visible() should not drive page tables")
	}

	require.True(t, c.NextPage())
	c.Wait()
	require.True(t, c.NextPage())
	c.Wait()

	s := c.Snapshot()
	if s.PageNumber() != 3 || s.PageCount() != 3 || len(s.Items) != 5 {
		t.Errorf("page %d/%d with %d items", s.PageNumber(), s.PageCount(), len(s.Items))
	}
	if s.State != Exhausted || s.HasMore() {
		t.Errorf("last page: state = %v, HasMore = %v", s.State, s.HasMore())
	}
	if c.NextPage() {
		t.Error("NextPage() past the last page")
	}

	require.True(t, c.PrevPage())
	c.Wait()
	if s := c.Snapshot(); s.Offset != 10 || s.Items[0] != "item-10" {
		t.Errorf("after PrevPage: offset = %d, first = %q", s.Offset, s.Items[0])
	}
}

func TestController_InsertSorted(t *testing.T) {
	f := &fakeCollection{items: []string{"alpha", "delta", "kilo"}}
	c := newAppendController(f, 10)
	defer c.Close()

	c.Start()
	c.Wait()

	c.Insert("echo", func(a, b string) bool { return a < b })
	c.Insert("zulu", nil)

	s := c.Snapshot()
	if diff := cmp.Diff([]string{"alpha", "delta", "echo", "kilo", "zulu"}, s.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if s.Total != 5 {
		t.Errorf("Total = %d, want 5", s.Total)
	}
}

func TestController_InsertBeforeFirstPageReloads(t *testing.T) {
	f := newFakeCollection(3)
	gate := make(chan struct{})
	f.setGate(gate)

	c := newAppendController(f, 10)
	defer c.Close()

	c.Start()
	require.Equal(t, Fetching, c.Snapshot().State)

	// Created upstream while the first page is still loading.
	f.mu.Lock()
	f.items = append([]string{"item-00a"}, f.items...)
	f.mu.Unlock()
	c.Insert("item-00a", func(a, b string) bool { return a < b })

	f.setGate(nil)
	close(gate)
	c.Wait()

	s := c.Snapshot()
	if diff := cmp.Diff([]string{"item-00a", "item-00", "item-01", "item-02"}, s.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if s.Total != 4 || len(s.Items) != s.Total {
		t.Errorf("Total = %d with %d items, want 4", s.Total, len(s.Items))
	}
	require.Eventually(t, func() bool { return len(f.queries()) == 2 },
		time.Second, 5*time.Millisecond, "want the initial fetch plus one reload")
}

func TestController_RemoveWhere(t *testing.T) {
	f := newFakeCollection(3)
	c := newAppendController(f, 10)
	defer c.Close()

	c.Start()
	c.Wait()

	n := c.RemoveWhere(func(s string) bool { return s == "item-01" })
	if n != 1 {
		t.Fatalf("RemoveWhere() = %d, want 1", n)
	}

	s := c.Snapshot()
	if diff := cmp.Diff([]string{"item-00", "item-02"}, s.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if s.Total != 2 || s.State != Exhausted {
		t.Errorf("total = %d, state = %v", s.Total, s.State)
	}

	if c.RemoveWhere(func(string) bool { return false }) != 0 {
		t.Error("RemoveWhere() with no match should report 0")
	}
}

func TestSnapshot_Helpers(t *testing.T) {
	tests := []struct {
		name      string
		snap      Snapshot[int]
		wantMore  bool
		wantPage  int
		wantPages int
	}{
		{name: "not loaded", snap: Snapshot[int]{Limit: 10}, wantMore: true, wantPage: 1, wantPages: 1},
		{name: "first of three", snap: Snapshot[int]{Limit: 10, Total: 25, Loaded: true}, wantMore: true, wantPage: 1, wantPages: 3},
		{name: "last page", snap: Snapshot[int]{Limit: 10, Offset: 20, Total: 25, Loaded: true}, wantMore: false, wantPage: 3, wantPages: 3},
		{name: "exact fit", snap: Snapshot[int]{Limit: 10, Offset: 10, Total: 20, Loaded: true}, wantMore: false, wantPage: 2, wantPages: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.HasMore(); got != tt.wantMore {
				t.Errorf("HasMore() = %v, want %v", got, tt.wantMore)
			}
			if got := tt.snap.PageNumber(); got != tt.wantPage {
				t.Errorf("PageNumber() = %d, want %d", got, tt.wantPage)
			}
			if got := tt.snap.PageCount(); got != tt.wantPages {
				t.Errorf("PageCount() = %d, want %d", got, tt.wantPages)
			}
		})
	}
}

func TestQuery_Validate(t *testing.T) {
	if err := (Query{Limit: 10}).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if err := (Query{Limit: 0}).Validate(); err == nil {
		t.Error("zero limit should be rejected")
	}
	if err := (Query{Limit: 10, Offset: -10}).Validate(); err == nil {
		t.Error("negative offset should be rejected")
	}
}

func TestState_String(t *testing.T) {
	if Fetching.String() != "fetching" || State(9).String() != "State(9)" {
		t.Errorf("unexpected names: %s, %s", Fetching, State(9))
	}
}
