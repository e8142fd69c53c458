package tui

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/admin-dashboard/pkg/pagination"
)

// picker is a popup list with infinite scroll. A picker is created when
// the popup opens and closed with it, so every opening starts fresh.
type picker[T any] struct {
	title  string
	ctrl   *pagination.Controller[T]
	label  func(T) string
	cursor int
	top    int
	rows   int
}

func newPicker[T any](title string, ctrl *pagination.Controller[T], label func(T) string) *picker[T] {
	p := &picker[T]{title: title, ctrl: ctrl, label: label, rows: 8}
	ctrl.Start()
	return p
}

func (p *picker[T]) sync() {
	snap := p.ctrl.Snapshot()
	p.cursor = min(p.cursor, max(len(snap.Items)-1, 0))
	if p.cursor < p.top {
		p.top = p.cursor
	}
	if p.cursor >= p.top+p.rows {
		p.top = p.cursor - p.rows + 1
	}
	if snap.Loaded && snap.Err == nil && endVisible(snap, p.top, p.rows) {
		p.ctrl.Visible()
	}
}

func (p *picker[T]) move(delta int) {
	p.cursor = max(p.cursor+delta, 0)
	p.sync()
	if snap := p.ctrl.Snapshot(); snap.Err != nil && endVisible(snap, p.top, p.rows) {
		p.ctrl.Visible()
	}
}

func (p *picker[T]) selected() (T, bool) {
	var zero T
	items := p.ctrl.Snapshot().Items
	if p.cursor < 0 || p.cursor >= len(items) {
		return zero, false
	}
	return items[p.cursor], true
}

func (p *picker[T]) close() {
	p.ctrl.Close()
}

func (p *picker[T]) View() string {
	snap := p.ctrl.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render(p.title))
	b.WriteString("\n\n")

	end := min(p.top+p.rows, len(snap.Items))
	for i := p.top; i < end; i++ {
		line := "  " + p.label(snap.Items[i])
		if i == p.cursor {
			line = selectedStyle.Render("> " + p.label(snap.Items[i]))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	switch {
	case snap.State == pagination.Fetching:
		b.WriteString(mutedStyle.Render("loading..."))
	case snap.Err != nil:
		b.WriteString(errorStyle.Render("failed to load"))
	case snap.Loaded && len(snap.Items) == 0:
		b.WriteString(mutedStyle.Render("nothing to add"))
	default:
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d of %d", len(snap.Items), snap.Total)))
	}
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("↵ add • esc close"))
	return b.String()
}
