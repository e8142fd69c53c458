package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/admin-dashboard/pkg/api"
	"github.com/Sternrassler/admin-dashboard/pkg/pagination"
)

// employeeTable shows one page of the active company's employees.
type employeeTable struct {
	ctrl      *pagination.Controller[api.Employee]
	debounce  *pagination.Debouncer
	company   api.Company
	cursor    int
	search    textinput.Model
	searching bool
}

func newEmployeeTable(a *api.API, limit int, debounce time.Duration, n *notifier, logger *zerolog.Logger) *employeeTable {
	search := textinput.New()
	search.Placeholder = "Search employees"
	search.Prompt = "/ "
	search.CharLimit = 64

	return &employeeTable{
		ctrl: pagination.NewController(a.Employees(), pagination.Options[api.Employee]{
			Name:     "employees",
			Limit:    limit,
			Mode:     pagination.ModeReplace,
			OnChange: func(pagination.Snapshot[api.Employee]) { n.signal() },
			Logger:   logger,
		}),
		debounce: pagination.NewDebouncer(debounce),
		search:   search,
	}
}

// show switches the table to company c, dropping any search.
func (t *employeeTable) show(c api.Company) {
	t.debounce.Stop()
	t.company = c
	t.cursor = 0
	t.search.SetValue("")
	t.search.Blur()
	t.searching = false
	if c.ID == "" {
		return
	}
	t.ctrl.Reset(pagination.Identity{ParentID: c.ID})
}

func (t *employeeTable) snapshot() pagination.Snapshot[api.Employee] {
	return t.ctrl.Snapshot()
}

func (t *employeeTable) sync() {
	t.cursor = min(t.cursor, max(len(t.snapshot().Items)-1, 0))
}

func (t *employeeTable) move(delta int) {
	t.cursor = max(t.cursor+delta, 0)
	t.sync()
}

func (t *employeeTable) selected() (api.Employee, bool) {
	items := t.snapshot().Items
	if t.cursor < 0 || t.cursor >= len(items) {
		return api.Employee{}, false
	}
	return items[t.cursor], true
}

func (t *employeeTable) startSearch() tea.Cmd {
	t.searching = true
	return t.search.Focus()
}

func (t *employeeTable) stopSearch() {
	t.searching = false
	t.search.Blur()
}

// updateSearch feeds a key to the search box and schedules the debounced
// reset.
func (t *employeeTable) updateSearch(msg tea.Msg) tea.Cmd {
	before := t.search.Value()

	var cmd tea.Cmd
	t.search, cmd = t.search.Update(msg)

	if value := t.search.Value(); value != before {
		ctrl := t.ctrl
		t.debounce.Do(func() {
			ctrl.SetSearch(strings.TrimSpace(value))
		})
		t.cursor = 0
	}
	return cmd
}

func (t *employeeTable) close() {
	t.debounce.Stop()
	t.ctrl.Close()
}

func (t *employeeTable) View(focused bool, width int) string {
	var b strings.Builder

	if t.company.ID == "" {
		b.WriteString(mutedStyle.Render("Select a company"))
		return paneStyle.Width(width).Render(b.String())
	}

	title := t.company.Name
	if !t.company.Manageable() {
		title += mutedStyle.Render(" (attached, delete only)")
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(t.search.View())
	b.WriteString("\n\n")

	snap := t.snapshot()
	nameW := max(width/3, 12)
	header := fmt.Sprintf("%-*s %-*s %s", nameW, "Name", nameW, "Email", "Position")
	b.WriteString(mutedStyle.Render(header))
	b.WriteString("\n")

	for i, e := range snap.Items {
		row := fmt.Sprintf("%-*s %-*s %s", nameW, truncate(e.FullName(), nameW), nameW, truncate(e.Email, nameW), e.Position)
		if i == t.cursor && focused {
			row = selectedStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	if snap.Loaded && len(snap.Items) == 0 {
		b.WriteString(mutedStyle.Render("No employees found"))
		b.WriteString("\n")
	}

	status := fmt.Sprintf("Page %d of %d", snap.PageNumber(), max(snap.PageCount(), 1))
	if snap.State == pagination.Fetching {
		status += " • loading..."
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(status))
	if snap.Err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Failed to load employees, r to retry"))
	}

	style := paneStyle
	if focused {
		style = focusedPaneStyle
	}
	return style.Width(width).Render(b.String())
}

func truncate(s string, w int) string {
	if lipgloss.Width(s) <= w {
		return s
	}
	r := []rune(s)
	if w <= 1 || len(r) <= w {
		return s
	}
	return string(r[:w-1]) + "…"
}
