package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sternrassler/admin-dashboard/pkg/api"
)

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestForm_EnterMovesThenSubmits(t *testing.T) {
	f := newForm("Login",
		fieldDef{key: "email", placeholder: "Email"},
		fieldDef{key: "password", placeholder: "Password", secret: true},
	)

	f, _, _ = f.Update(typeText("ada@example.com"))
	f, _, submit := f.Update(keyPress("enter"))
	if submit {
		t.Fatal("enter on the first field submitted the form")
	}
	if f.focus != 1 {
		t.Fatalf("focus = %d, want 1", f.focus)
	}

	f, _, _ = f.Update(typeText("secret"))
	_, _, submit = f.Update(keyPress("enter"))
	if !submit {
		t.Fatal("enter on the last field did not submit")
	}

	if got := f.Value("email"); got != "ada@example.com" {
		t.Errorf("email = %q", got)
	}
	if got := f.Value("password"); got != "secret" {
		t.Errorf("password = %q", got)
	}
}

func TestForm_FocusWraps(t *testing.T) {
	f := newForm("Create company", fieldDef{key: "name", placeholder: "Name"})

	f, _, _ = f.Update(keyPress("tab"))
	if f.focus != 1 {
		t.Fatalf("focus = %d, want button (1)", f.focus)
	}
	f, _, _ = f.Update(keyPress("tab"))
	if f.focus != 0 {
		t.Fatalf("focus = %d, want wrap to 0", f.focus)
	}
	f, _, _ = f.Update(keyPress("up"))
	if f.focus != 1 {
		t.Fatalf("focus = %d, want wrap back to button", f.focus)
	}
}

func TestForm_PendingIgnoresInput(t *testing.T) {
	f := newForm("Create company", fieldDef{key: "name", placeholder: "Name"})
	f.Submitting()

	f, _, submit := f.Update(keyPress("enter"))
	if submit {
		t.Fatal("pending form submitted twice")
	}
	f, _, _ = f.Update(typeText("x"))
	if f.Value("name") != "" {
		t.Errorf("pending form accepted input: %q", f.Value("name"))
	}
}

func TestForm_Fail(t *testing.T) {
	t.Run("validation errors go next to their fields", func(t *testing.T) {
		f := newForm("Create employee",
			fieldDef{key: "firstName", placeholder: "First name"},
			fieldDef{key: "email", placeholder: "Email"},
		)
		f.Submitting()
		f.Fail(&api.ValidationError{Fields: map[string]string{
			"email":     "must be a valid email",
			"companyId": "is required",
		}})

		if f.pending {
			t.Error("form still pending after failure")
		}
		if f.errs["email"] != "must be a valid email" {
			t.Errorf("email error = %q", f.errs["email"])
		}
		if f.err != "companyId is required" {
			t.Errorf("form error = %q", f.err)
		}
	})

	t.Run("other errors become one message", func(t *testing.T) {
		f := newForm("Login", fieldDef{key: "email", placeholder: "Email"})
		f.Fail(errors.New("boom"))

		if f.err == "" {
			t.Error("no form error shown")
		}
		if len(f.errs) != 0 {
			t.Errorf("field errors = %v", f.errs)
		}
	})
}
