package pagination

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/admin-dashboard/pkg/logging"
)

// DefaultLimit is the page size used when Options.Limit is unset.
const DefaultLimit = 10

// Options configure a Controller.
type Options[T any] struct {
	// Name labels logs and metrics, e.g. "sidebar" or "employees".
	Name string

	// Limit is the page size.
	Limit int

	Mode Mode

	// Identity is the initial query identity.
	Identity Identity

	// OnChange receives a snapshot after every state change. It is called
	// without internal locks held, possibly from a fetch goroutine.
	OnChange func(Snapshot[T])

	// Logger defaults to the global logger with a component field.
	Logger *zerolog.Logger
}

// Controller fetches pages of one collection for one view.
// All methods are safe for concurrent use.
type Controller[T any] struct {
	fetch    FetchFunc[T]
	name     string
	limit    int
	mode     Mode
	onChange func(Snapshot[T])
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	idle        *sync.Cond
	items       []T
	total       int
	offset      int
	identity    Identity
	state       State
	loaded      bool
	err         error
	inFlight    bool
	generation  uint64
	fetchCancel context.CancelFunc
	closed      bool
}

// NewController creates a controller in WaitingForVisibility with an empty
// list. Nothing is fetched until Start, Reset or Visible.
func NewController[T any](fetch FetchFunc[T], opts Options[T]) *Controller[T] {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Name == "" {
		opts.Name = "list"
	}

	var logger zerolog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("list", opts.Name).Logger()
	} else {
		logger = logging.NewLogger("pagination").With().Str("list", opts.Name).Logger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller[T]{
		fetch:    fetch,
		name:     opts.Name,
		limit:    opts.Limit,
		mode:     opts.Mode,
		onChange: opts.OnChange,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		identity: opts.Identity,
		state:    WaitingForVisibility,
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// Start issues the first fetch for the current identity (view mounted).
func (c *Controller[T]) Start() {
	c.Reset(c.Identity())
}

// Identity returns the current query identity.
func (c *Controller[T]) Identity() Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Reset clears the list, moves the cursor to 0, discards any in-flight
// result and issues exactly one fetch for offset 0 with id.
func (c *Controller[T]) Reset(id Identity) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.resetLocked(id)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller[T]) resetLocked(id Identity) {
	c.items = nil
	c.total = 0
	c.offset = 0
	c.loaded = false
	c.err = nil
	c.identity = id
	c.state = WaitingForVisibility
	resetsTotal.WithLabelValues(c.name).Inc()

	c.logger.Debug().
		Str("parent_id", id.ParentID).
		Str("search", id.Search).
		Msg("List reset")

	c.startFetchLocked(0)
}

// SetSearch resets the list for a new search term. Unchanged terms are ignored.
func (c *Controller[T]) SetSearch(search string) {
	id := c.Identity()
	if id.Search == search {
		return
	}
	id.Search = search
	c.Reset(id)
}

// SetParent resets the list for a new parent (e.g. another company).
// The search term is kept.
func (c *Controller[T]) SetParent(parentID string) {
	id := c.Identity()
	if id.ParentID == parentID {
		return
	}
	id.ParentID = parentID
	c.Reset(id)
}

// Visible signals that the end of the list entered the viewport. It fetches
// the next page only while waiting and the list is not exhausted.
func (c *Controller[T]) Visible() bool {
	c.mu.Lock()
	if c.closed || c.mode != ModeAppend || c.state != WaitingForVisibility || !c.hasMoreLocked() {
		c.mu.Unlock()
		return false
	}
	c.startFetchLocked(c.nextOffsetLocked())
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return true
}

// RequestMore fetches the next page unless a fetch is already in flight.
// Unlike Visible it does not consult the advancement state.
func (c *Controller[T]) RequestMore() bool {
	c.mu.Lock()
	if c.closed || c.inFlight {
		c.mu.Unlock()
		return false
	}
	c.startFetchLocked(c.nextOffsetLocked())
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return true
}

// NextPage moves a page table forward.
func (c *Controller[T]) NextPage() bool {
	c.mu.Lock()
	if c.closed || c.inFlight || !c.loaded || c.offset+c.limit >= c.total {
		c.mu.Unlock()
		return false
	}
	c.startFetchLocked(c.offset + c.limit)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return true
}

// PrevPage moves a page table back.
func (c *Controller[T]) PrevPage() bool {
	c.mu.Lock()
	if c.closed || c.inFlight || c.offset == 0 {
		c.mu.Unlock()
		return false
	}
	c.startFetchLocked(max(0, c.offset-c.limit))
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return true
}

// Refresh re-fetches after a server-side change: the current page for page
// tables, the whole list for appended lists.
func (c *Controller[T]) Refresh() {
	if c.mode == ModeAppend {
		c.Reset(c.Identity())
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.startFetchLocked(c.offset)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Removed re-fetches after n items of the current identity were deleted or
// detached upstream. When the cursor would point past the shrunken
// collection it steps back one page first.
func (c *Controller[T]) Removed(n int) {
	if c.mode == ModeAppend {
		c.Reset(c.Identity())
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	offset := c.offset
	predicted := c.total - n
	if offset >= predicted && offset > 0 {
		offset = max(0, offset-c.limit)
		stepBacksTotal.WithLabelValues(c.name).Inc()
		c.logger.Debug().
			Int("from", c.offset).
			Int("to", offset).
			Int("predicted_total", predicted).
			Msg("Stepping back one page")
	}
	c.startFetchLocked(offset)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Insert adds an item created locally. With less it is placed in order,
// otherwise appended. Total grows by one.
//
// Before the first page has landed, or while a fetch is in flight, the
// pending page may already contain item; the list is reloaded instead.
func (c *Controller[T]) Insert(item T, less func(a, b T) bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if !c.loaded || c.inFlight {
		c.resetLocked(c.identity)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return
	}

	if less == nil {
		c.items = append(c.items, item)
	} else {
		i := sort.Search(len(c.items), func(i int) bool { return less(item, c.items[i]) })
		c.items = append(c.items, item)
		copy(c.items[i+1:], c.items[i:])
		c.items[i] = item
	}
	c.total++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// RemoveWhere drops locally every item matching pred and returns how many
// were removed. Total shrinks accordingly.
func (c *Controller[T]) RemoveWhere(pred func(T) bool) int {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}

	kept := c.items[:0]
	removed := 0
	for _, it := range c.items {
		if pred(it) {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	clear(c.items[len(kept):])
	c.items = kept

	if removed == 0 {
		c.mu.Unlock()
		return 0
	}

	c.total = max(0, c.total-removed)
	if c.state != Fetching && c.mode == ModeAppend {
		c.state = c.settledStateLocked()
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return removed
}

// Snapshot returns the current state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until no fetch is in flight.
func (c *Controller[T]) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.inFlight {
		c.idle.Wait()
	}
}

// Close cancels any in-flight fetch; its result is never applied and later
// calls are ignored.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.generation++
	c.inFlight = false
	c.cancel()
	c.idle.Broadcast()
}

func (c *Controller[T]) hasMoreLocked() bool {
	return !c.loaded || len(c.items) < c.total
}

func (c *Controller[T]) nextOffsetLocked() int {
	if !c.loaded {
		return 0
	}
	return c.offset + c.limit
}

// settledStateLocked is the state after a fetch completed.
func (c *Controller[T]) settledStateLocked() State {
	if c.mode == ModeReplace {
		if !c.loaded || c.offset+len(c.items) < c.total {
			return WaitingForVisibility
		}
		return Exhausted
	}
	if c.hasMoreLocked() {
		return WaitingForVisibility
	}
	return Exhausted
}

// startFetchLocked supersedes any in-flight fetch with one for offset.
func (c *Controller[T]) startFetchLocked(offset int) {
	if c.fetchCancel != nil {
		c.fetchCancel()
		c.fetchCancel = nil
	}

	c.generation++
	gen := c.generation

	ctx, cancel := context.WithCancel(c.ctx)
	c.fetchCancel = cancel
	c.inFlight = true
	c.state = Fetching

	q := Query{
		ParentID: c.identity.ParentID,
		Search:   c.identity.Search,
		Limit:    c.limit,
		Offset:   offset,
	}

	go c.run(ctx, cancel, gen, q)
}

func (c *Controller[T]) run(ctx context.Context, cancel context.CancelFunc, gen uint64, q Query) {
	defer cancel()

	start := time.Now()
	page, err := c.fetch(ctx, q)
	fetchDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())

	c.mu.Lock()
	if gen != c.generation || c.closed {
		c.mu.Unlock()
		fetchesTotal.WithLabelValues(c.name, "discarded").Inc()
		c.logger.Debug().Int("offset", q.Offset).Msg("Discarding superseded page")
		return
	}
	c.fetchCancel = nil

	if err != nil {
		c.applyFailureLocked(q, err)
	} else {
		c.applyPageLocked(q, page)
	}

	if !c.inFlight {
		c.idle.Broadcast()
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller[T]) applyFailureLocked(q Query, err error) {
	fetchesTotal.WithLabelValues(c.name, "error").Inc()

	if !errors.Is(err, context.Canceled) {
		c.logger.Warn().
			Err(err).
			Int("offset", q.Offset).
			Str("search", q.Search).
			Msg("Page fetch failed")
	}

	c.err = err
	c.inFlight = false
	c.state = c.settledStateLocked()
}

func (c *Controller[T]) applyPageLocked(q Query, page Page[T]) {
	fetchesTotal.WithLabelValues(c.name, "success").Inc()
	c.err = nil
	c.total = page.Total

	if c.mode == ModeReplace {
		if len(page.Data) == 0 && q.Offset > 0 {
			// Stale cursor: the page emptied under us.
			back := max(0, q.Offset-c.limit)
			stepBacksTotal.WithLabelValues(c.name).Inc()
			c.logger.Debug().
				Int("from", q.Offset).
				Int("to", back).
				Msg("Empty page, stepping back")
			c.startFetchLocked(back)
			return
		}
		c.items = append([]T(nil), page.Data...)
		c.offset = q.Offset
		c.loaded = true
		c.inFlight = false
		c.state = c.settledStateLocked()
		return
	}

	c.items = append(c.items, page.Data...)
	c.offset = q.Offset
	c.loaded = true
	c.inFlight = false
	if len(page.Data) == 0 {
		// Nothing more will come at higher offsets.
		c.state = Exhausted
		return
	}
	c.state = c.settledStateLocked()
}

func (c *Controller[T]) snapshotLocked() Snapshot[T] {
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Snapshot[T]{
		Items:    items,
		Total:    c.total,
		Offset:   c.offset,
		Limit:    c.limit,
		State:    c.state,
		Identity: c.identity,
		Loaded:   c.loaded,
		Err:      c.err,
	}
}

func (c *Controller[T]) notify(s Snapshot[T]) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
