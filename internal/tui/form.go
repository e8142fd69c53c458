package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sternrassler/admin-dashboard/pkg/api"
	"github.com/Sternrassler/admin-dashboard/pkg/session"
)

type fieldDef struct {
	key         string
	placeholder string
	secret      bool
	value       string
}

type formField struct {
	key   string
	input textinput.Model
}

// form is a column of text inputs followed by a submit button. The focus
// index len(fields) is the button.
type form struct {
	title   string
	fields  []formField
	focus   int
	errs    map[string]string
	err     string
	pending bool
}

func newForm(title string, defs ...fieldDef) form {
	f := form{title: title, errs: map[string]string{}}
	for i, def := range defs {
		t := textinput.New()
		t.Placeholder = def.placeholder
		t.CharLimit = 128
		t.SetValue(def.value)
		if def.secret {
			t.EchoMode = textinput.EchoPassword
			t.EchoCharacter = '•'
		}
		if i == 0 {
			t.Focus()
			t.PromptStyle = focusedStyle
			t.TextStyle = focusedStyle
		}
		f.fields = append(f.fields, formField{key: def.key, input: t})
	}
	return f
}

// Update handles navigation and typing. submit is true when the button was
// activated (enter on the button or on the last field).
func (f form) Update(msg tea.Msg) (form, tea.Cmd, bool) {
	if f.pending {
		return f, nil, false
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			if f.focus >= len(f.fields)-1 {
				return f, nil, true
			}
			return f, f.moveFocus(1), false
		case "tab", "down":
			return f, f.moveFocus(1), false
		case "shift+tab", "up":
			return f, f.moveFocus(-1), false
		}
	}

	cmds := make([]tea.Cmd, len(f.fields))
	for i := range f.fields {
		f.fields[i].input, cmds[i] = f.fields[i].input.Update(msg)
	}
	return f, tea.Batch(cmds...), false
}

func (f *form) moveFocus(delta int) tea.Cmd {
	f.focus += delta
	if f.focus > len(f.fields) {
		f.focus = 0
	} else if f.focus < 0 {
		f.focus = len(f.fields)
	}

	cmds := make([]tea.Cmd, len(f.fields))
	for i := range f.fields {
		if i == f.focus {
			cmds[i] = f.fields[i].input.Focus()
			f.fields[i].input.PromptStyle = focusedStyle
			f.fields[i].input.TextStyle = focusedStyle
			continue
		}
		f.fields[i].input.Blur()
		f.fields[i].input.PromptStyle = noStyle
		f.fields[i].input.TextStyle = noStyle
	}
	return tea.Batch(cmds...)
}

// Value returns the text of the field with key.
func (f form) Value(key string) string {
	for _, fld := range f.fields {
		if fld.key == key {
			return fld.input.Value()
		}
	}
	return ""
}

// SetValue replaces the text of the field with key.
func (f *form) SetValue(key, value string) {
	for i := range f.fields {
		if f.fields[i].key == key {
			f.fields[i].input.SetValue(value)
		}
	}
}

// Submitting marks the form as waiting for the server and clears errors.
func (f *form) Submitting() {
	f.pending = true
	f.err = ""
	f.errs = map[string]string{}
}

// Fail shows err next to the form: per field for validation errors, as a
// single line otherwise.
func (f *form) Fail(err error) {
	f.pending = false
	f.errs = map[string]string{}
	f.err = ""

	var ve *api.ValidationError
	if errors.As(err, &ve) {
		unmatched := []string{}
		for k, m := range ve.Fields {
			if f.has(k) {
				f.errs[k] = m
			} else {
				unmatched = append(unmatched, k+" "+m)
			}
		}
		f.err = strings.Join(unmatched, "; ")
		return
	}
	f.err = session.Message(err)
}

func (f form) has(key string) bool {
	for _, fld := range f.fields {
		if fld.key == key {
			return true
		}
	}
	return false
}

func (f form) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(f.title))
	b.WriteString("\n\n")

	for i, fld := range f.fields {
		b.WriteString(fld.input.View())
		if msg := f.errs[fld.key]; msg != "" {
			fmt.Fprintf(&b, "  %s", errorStyle.Render(fld.input.Placeholder+" "+msg))
		}
		if i < len(f.fields)-1 {
			b.WriteRune('\n')
		}
	}

	button := blurredButton
	if f.focus == len(f.fields) {
		button = focusedButton
	}
	if f.pending {
		button = mutedStyle.Render("Submitting...")
	}
	fmt.Fprintf(&b, "\n\n%s", button)

	if f.err != "" {
		fmt.Fprintf(&b, "\n\n%s", errorStyle.Render(f.err))
	}
	return b.String()
}
