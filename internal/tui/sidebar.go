package tui

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/admin-dashboard/pkg/api"
	"github.com/Sternrassler/admin-dashboard/pkg/pagination"
)

// sidebar lists the admin's companies with infinite scroll.
type sidebar struct {
	ctrl     *pagination.Controller[api.Company]
	cursor   int
	top      int
	rows     int
	activeID string
}

func newSidebar(a *api.API, limit int, n *notifier, logger *zerolog.Logger) *sidebar {
	return &sidebar{
		ctrl: pagination.NewController(a.Companies(api.ScopeIncluded), pagination.Options[api.Company]{
			Name:     "sidebar",
			Limit:    limit,
			Mode:     pagination.ModeAppend,
			OnChange: func(pagination.Snapshot[api.Company]) { n.signal() },
			Logger:   logger,
		}),
		rows: 10,
	}
}

func (s *sidebar) snapshot() pagination.Snapshot[api.Company] {
	return s.ctrl.Snapshot()
}

func (s *sidebar) setRows(rows int) {
	s.rows = max(rows, 3)
}

// sync clamps the cursor after list changes and fires the sentinel when
// the end of the list is on screen. A failed page is not retried here, or
// an unreachable server would be polled in a loop.
func (s *sidebar) sync() {
	snap := s.snapshot()
	s.cursor = min(s.cursor, max(len(snap.Items)-1, 0))
	s.scroll()
	if snap.Loaded && snap.Err == nil && endVisible(snap, s.top, s.rows) {
		s.ctrl.Visible()
	}
}

// move scrolls the cursor. Scrolling is a fresh visibility event, so it
// also retries after a failed page.
func (s *sidebar) move(delta int) {
	s.cursor += delta
	s.sync()
	if snap := s.snapshot(); snap.Err != nil && endVisible(snap, s.top, s.rows) {
		s.ctrl.Visible()
	}
}

// endVisible reports whether the sentinel row below the last item is on
// screen.
func endVisible[T any](snap pagination.Snapshot[T], top, rows int) bool {
	return len(snap.Items)-top <= rows
}

func (s *sidebar) scroll() {
	if s.cursor < s.top {
		s.top = s.cursor
	}
	if s.cursor >= s.top+s.rows {
		s.top = s.cursor - s.rows + 1
	}
	s.top = max(s.top, 0)
}

func (s *sidebar) selected() (api.Company, bool) {
	items := s.snapshot().Items
	if s.cursor < 0 || s.cursor >= len(items) {
		return api.Company{}, false
	}
	return items[s.cursor], true
}

// active returns the company whose employees are shown.
func (s *sidebar) active() (api.Company, bool) {
	if s.activeID == "" {
		return api.Company{}, false
	}
	for _, c := range s.snapshot().Items {
		if c.ID == s.activeID {
			return c, true
		}
	}
	return api.Company{}, false
}

// autoSelect activates the first company when none is active. It reports
// whether the active company changed.
func (s *sidebar) autoSelect() bool {
	if _, ok := s.active(); ok {
		return false
	}
	items := s.snapshot().Items
	if len(items) == 0 {
		changed := s.activeID != ""
		s.activeID = ""
		return changed
	}
	s.activeID = items[0].ID
	s.cursor = 0
	s.top = 0
	return true
}

func (s *sidebar) insertCreated(c api.Company) {
	s.ctrl.Insert(c, func(a, b api.Company) bool {
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

func (s *sidebar) appendAttached(c api.Company) {
	s.ctrl.Insert(c, nil)
}

func (s *sidebar) removeCompany(id string) {
	s.ctrl.RemoveWhere(func(c api.Company) bool { return c.ID == id })
	if s.activeID == id {
		s.activeID = ""
	}
}

func (s *sidebar) View(focused bool, width int) string {
	snap := s.snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Companies"))
	b.WriteString("\n")

	end := min(s.top+s.rows, len(snap.Items))
	for i := s.top; i < end; i++ {
		c := snap.Items[i]
		line := c.Name
		if c.Status == api.StatusDefault {
			line += mutedStyle.Render(" (attached)")
		}
		switch {
		case i == s.cursor && focused:
			line = selectedStyle.Render("> " + line)
		case c.ID == s.activeID:
			line = activeStyle.Render("* " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	switch {
	case snap.State == pagination.Fetching:
		b.WriteString(mutedStyle.Render("  loading..."))
	case snap.Err != nil:
		b.WriteString(errorStyle.Render("  failed to load, r to retry"))
	case snap.Loaded && len(snap.Items) == 0:
		b.WriteString(mutedStyle.Render("  no companies yet"))
	default:
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d of %d", len(snap.Items), snap.Total)))
	}

	style := paneStyle
	if focused {
		style = focusedPaneStyle
	}
	return style.Width(width).Render(b.String())
}
