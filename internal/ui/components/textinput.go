package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/remediz/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with the app's styling and an inline
// validation error.
type TextInput struct {
	Model textinput.Model
	Err   string
}

// NewTextInput creates a focused text input.
func NewTextInput(placeholder, value string, limit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.SetValue(value)
	if limit > 0 {
		ti.CharLimit = limit
	}
	ti.Focus()
	return TextInput{Model: ti}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update forwards the message and clears a stale error on edits.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		t.Err = ""
	}
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the input and any error below it.
func (t TextInput) View() string {
	view := t.Model.View()
	if t.Err != "" {
		view += "\n" + theme.Incorrect.Render(t.Err)
	}
	return view
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}
