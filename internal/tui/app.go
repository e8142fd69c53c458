// Package tui implements the interactive dashboard: the login / register
// screen and the companies and employees view.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sternrassler/admin-dashboard/internal/state"
	"github.com/Sternrassler/admin-dashboard/pkg/api"
	"github.com/Sternrassler/admin-dashboard/pkg/session"
)

type phase int

const (
	phaseRestoring phase = iota
	phaseAuth
	phaseDashboard
)

// sessionRestoredMsg carries the result of Session.Init.
type sessionRestoredMsg struct{ err error }

// App switches between the auth screen and the dashboard depending on the
// session.
type App struct {
	session *session.Session
	api     *api.API
	opts    DashboardOptions

	phase phase
	auth  AuthModel
	dash  *Dashboard

	width  int
	height int
}

// NewApp creates the root model.
func NewApp(s *session.Session, a *api.API, opts DashboardOptions) *App {
	return &App{
		session: s,
		api:     a,
		opts:    opts,
		auth:    NewAuthModel(s, ModeLogin),
	}
}

func (m *App) Init() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return sessionRestoredMsg{err: sess.Init(ctx)}
	}
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.dash != nil {
			var cmd tea.Cmd
			m.dash, cmd = m.dash.Update(msg)
			return m, cmd
		}
		return m, nil

	case sessionRestoredMsg:
		if msg.err != nil {
			m.phase = phaseAuth
			m.auth.form.Fail(msg.err)
			return m, nil
		}
		if m.session.Authenticated() {
			return m, m.startDashboard()
		}
		m.phase = phaseAuth
		return m, nil

	case authenticatedMsg:
		return m, m.startDashboard()

	case logoutMsg:
		m.session.Logout()
		m.stopDashboard()
		m.auth = NewAuthModel(m.session, ModeLogin)
		m.phase = phaseAuth
		return m, nil
	}

	switch m.phase {
	case phaseRestoring:
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case phaseAuth:
		var updated tea.Model
		var cmd tea.Cmd
		updated, cmd = m.auth.Update(msg)
		m.auth = updated.(AuthModel)
		return m, cmd
	case phaseDashboard:
		var cmd tea.Cmd
		m.dash, cmd = m.dash.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *App) startDashboard() tea.Cmd {
	m.stopDashboard()

	admin, _ := m.session.CurrentUser()
	m.dash = NewDashboard(m.api, admin, m.opts)
	if m.width > 0 {
		m.dash, _ = m.dash.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	}
	m.phase = phaseDashboard
	return m.dash.Init()
}

func (m *App) stopDashboard() {
	if m.dash != nil {
		m.dash.Close()
		m.dash = nil
	}
}

// Close stops background fetches.
func (m *App) Close() {
	m.stopDashboard()
}

func (m *App) View() string {
	switch m.phase {
	case phaseAuth:
		return m.auth.View()
	case phaseDashboard:
		return m.dash.View()
	default:
		return appStyle.Render(mutedStyle.Render("Restoring session..."))
	}
}

// Run starts the full-screen dashboard.
func Run(s *state.State) error {
	app := NewApp(s.Session, s.API, DashboardOptions{
		PageSize:       s.Config.PageSize,
		SearchDebounce: s.Config.SearchDebounce,
		Logger:         &s.Logger,
	})
	defer app.Close()

	_, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}
