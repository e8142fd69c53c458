package pagination

import (
	"context"
	"fmt"
)

// Page is one page of a collection as returned by the API.
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// Identity determines which accumulated list an offset belongs to.
type Identity struct {
	ParentID string
	Search   string
}

// Query addresses one page of a collection.
type Query struct {
	ParentID string
	Search   string
	Limit    int
	Offset   int
}

// Identity returns the query's identity.
func (q Query) Identity() Identity {
	return Identity{ParentID: q.ParentID, Search: q.Search}
}

// Validate checks the paging preconditions.
func (q Query) Validate() error {
	if q.Limit <= 0 {
		return fmt.Errorf("limit must be > 0 (got %d)", q.Limit)
	}
	if q.Offset < 0 {
		return fmt.Errorf("offset must be >= 0 (got %d)", q.Offset)
	}
	return nil
}

// FetchFunc loads one page. It must honour ctx cancellation.
type FetchFunc[T any] func(ctx context.Context, q Query) (Page[T], error)

// Mode selects how fetched pages are applied.
type Mode int

const (
	// ModeAppend accumulates pages (infinite scroll).
	ModeAppend Mode = iota

	// ModeReplace shows one page at a time (page tables).
	ModeReplace
)

// State is the advancement state of a Controller.
type State int

const (
	WaitingForVisibility State = iota
	Fetching
	Exhausted
)

func (s State) String() string {
	switch s {
	case WaitingForVisibility:
		return "waiting"
	case Fetching:
		return "fetching"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is an immutable view of a Controller.
type Snapshot[T any] struct {
	Items    []T
	Total    int
	Offset   int
	Limit    int
	State    State
	Identity Identity

	// Loaded is false until the first page of the current identity arrived.
	Loaded bool

	// Err is the last fetch error, cleared by the next successful fetch.
	Err error
}

// HasMore reports whether the server holds items beyond the loaded ones.
func (s Snapshot[T]) HasMore() bool {
	return !s.Loaded || s.Offset+s.Limit < s.Total
}

// PageNumber is the 1-based page of the cursor.
func (s Snapshot[T]) PageNumber() int {
	if s.Limit <= 0 {
		return 1
	}
	return s.Offset/s.Limit + 1
}

// PageCount is the number of pages for Total (at least 1).
func (s Snapshot[T]) PageCount() int {
	if s.Limit <= 0 || s.Total <= 0 {
		return 1
	}
	return (s.Total + s.Limit - 1) / s.Limit
}
