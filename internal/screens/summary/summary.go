package summary

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/remediz/internal/router"
	"github.com/abhisek/remediz/internal/screen"
	"github.com/abhisek/remediz/internal/ui/layout"
	"github.com/abhisek/remediz/internal/ui/theme"
)

// Summary describes a finished subject.
type Summary struct {
	Level   string
	Subject string

	Total     int
	Completed []string // titles, in completion order

	// Evaluations lists the notions whose evaluation was passed.
	Evaluations []string

	Duration time.Duration
}

// SummaryScreen displays the end-of-subject summary.
type SummaryScreen struct {
	summary Summary
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(summary Summary) *SummaryScreen {
	return &SummaryScreen{summary: summary}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Back to player"},
		{Key: "H", Description: "New selection"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "h", "H":
			return s, func() tea.Msg { return router.PopToRootMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	var b strings.Builder

	b.WriteString(layout.Centered(width, theme.Title, "Subject complete!"))
	b.WriteString("\n\n")

	b.WriteString(layout.Centered(width, theme.Subtitle,
		fmt.Sprintf("%s · %s · %s", sum.Level, sum.Subject, formatDuration(sum.Duration))))
	b.WriteString("\n\n")

	b.WriteString(layout.Centered(width, theme.Body,
		fmt.Sprintf("Videos passed: %d/%d        Evaluations passed: %d",
			len(sum.Completed), sum.Total, len(sum.Evaluations))))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(
		strings.Repeat("─", min(width-8, 60)))

	section := func(title string, lines []string, style lipgloss.Style) {
		if len(lines) == 0 {
			return
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render(title)))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n")
		for _, l := range lines {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render("  "+l)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	section("Notions", sum.Evaluations, theme.Done)
	section("Videos", sum.Completed, theme.Body)

	return b.String()
}

func formatDuration(d time.Duration) string {
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}
