package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/remediz/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector. It only tracks the cursor;
// grading belongs to the caller.
type MultiChoice struct {
	Prompt   string
	Options  []string
	Selected int

	// Reveal, when set, highlights Correct and Chosen instead of the cursor.
	Reveal  bool
	Correct string
	Chosen  string
}

// NewMultiChoice creates a multiple-choice selector on the first option.
func NewMultiChoice(prompt string, options []string) MultiChoice {
	return MultiChoice{Prompt: prompt, Options: options}
}

// Update moves the cursor. It returns the chosen option when the learner
// confirms with Enter or a number key, and "" otherwise.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, string) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || m.Reveal || len(m.Options) == 0 {
		return m, ""
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		return m, m.Options[m.Selected]
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			i := int(key[0] - '1')
			if i < len(m.Options) {
				m.Selected = i
				return m, m.Options[i]
			}
		}
	}
	return m, ""
}

// View renders the prompt and options.
func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(theme.Body.Bold(true).Render(m.Prompt))
	b.WriteString("\n\n")

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.Reveal {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d)  %s", prefix, i+1, opt)

		style := theme.Unselected
		switch {
		case m.Reveal && opt == m.Correct:
			style = theme.Correct
		case m.Reveal && opt == m.Chosen:
			style = theme.Incorrect
		case m.Reveal:
			style = theme.Hint
		case i == m.Selected:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
