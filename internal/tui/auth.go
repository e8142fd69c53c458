package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sternrassler/admin-dashboard/pkg/session"
)

// AuthMode selects the form shown by AuthModel.
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
)

// authDoneMsg carries the result of a login or register attempt.
type authDoneMsg struct{ err error }

// authenticatedMsg is emitted once the session holds a profile.
type authenticatedMsg struct{}

// AuthModel is the login / register screen.
type AuthModel struct {
	session *session.Session
	mode    AuthMode
	form    form
	// standalone quits the program after success (CLI "auth login").
	standalone bool
	done       bool
}

// NewAuthModel creates the auth screen in mode.
func NewAuthModel(s *session.Session, mode AuthMode) AuthModel {
	m := AuthModel{session: s}
	m.setMode(mode)
	return m
}

func (m *AuthModel) setMode(mode AuthMode) {
	m.mode = mode
	if mode == ModeRegister {
		m.form = newForm("Register",
			fieldDef{key: "username", placeholder: "Username"},
			fieldDef{key: "email", placeholder: "Email"},
			fieldDef{key: "password", placeholder: "Password", secret: true},
		)
		return
	}
	m.form = newForm("Login",
		fieldDef{key: "email", placeholder: "Email"},
		fieldDef{key: "password", placeholder: "Password", secret: true},
	)
}

// Succeeded reports whether authentication completed.
func (m AuthModel) Succeeded() bool {
	return m.done
}

func (m AuthModel) Init() tea.Cmd {
	return nil
}

func (m AuthModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+r":
			if m.form.pending {
				return m, nil
			}
			if m.mode == ModeLogin {
				m.setMode(ModeRegister)
			} else {
				m.setMode(ModeLogin)
			}
			return m, nil
		}

	case authDoneMsg:
		if msg.err != nil {
			m.form.Fail(msg.err)
			return m, nil
		}
		m.done = true
		if m.standalone {
			return m, tea.Quit
		}
		return m, func() tea.Msg { return authenticatedMsg{} }
	}

	var (
		cmd    tea.Cmd
		submit bool
	)
	m.form, cmd, submit = m.form.Update(msg)
	if submit {
		return m, m.submit()
	}
	return m, cmd
}

func (m *AuthModel) submit() tea.Cmd {
	m.form.Submitting()

	sess := m.session
	mode := m.mode
	username := m.form.Value("username")
	email := m.form.Value("email")
	password := m.form.Value("password")

	return func() tea.Msg {
		ctx := context.Background()
		if mode == ModeRegister {
			return authDoneMsg{err: sess.Register(ctx, username, email, password)}
		}
		return authDoneMsg{err: sess.Login(ctx, email, password)}
	}
}

func (m AuthModel) View() string {
	var b strings.Builder
	b.WriteString(m.form.View())

	hint := "ctrl+r: register instead"
	if m.mode == ModeRegister {
		hint = "ctrl+r: login instead"
	}
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render(hint + " • esc: quit"))
	return appStyle.Render(b.String())
}

// RunAuth shows the auth form until the admin is logged in or quits.
// It reports whether authentication succeeded.
func RunAuth(s *session.Session, mode AuthMode) (bool, error) {
	m := NewAuthModel(s, mode)
	m.standalone = true

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return false, err
	}
	return final.(AuthModel).Succeeded(), nil
}
