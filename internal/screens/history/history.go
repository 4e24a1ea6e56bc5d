package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/remediz/internal/notify"
	"github.com/abhisek/remediz/internal/router"
	"github.com/abhisek/remediz/internal/screen"
	"github.com/abhisek/remediz/internal/store"
	"github.com/abhisek/remediz/internal/ui/layout"
	"github.com/abhisek/remediz/internal/ui/theme"
)

const queryLimit = 200

type historyLoadedMsg struct {
	Runs []Run
	Err  error
}

// Run is the recorded activity of one player session, newest event first.
type Run struct {
	ID       string
	Level    string
	Events   []store.Notification
	Viewed   int
	Finished int
}

// GroupRuns groups notifications by run, keeping the order in which runs
// first appear.
func GroupRuns(rows []store.Notification) []Run {
	var runs []Run
	pos := make(map[string]int)
	for _, n := range rows {
		i, ok := pos[n.RunID]
		if !ok {
			i = len(runs)
			pos[n.RunID] = i
			runs = append(runs, Run{ID: n.RunID, Level: n.Level})
		}
		r := &runs[i]
		r.Events = append(r.Events, n)
		switch n.Kind {
		case notify.KindViewing:
			r.Viewed++
		case notify.KindFinished:
			r.Finished++
		}
		if r.Level == "" {
			r.Level = n.Level
		}
	}
	return runs
}

// HistoryScreen lists past player sessions from recorded telemetry.
type HistoryScreen struct {
	repo     store.TelemetryRepo
	runs     []Run
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(repo store.TelemetryRepo) *HistoryScreen {
	return &HistoryScreen{
		repo:     repo,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		rows, err := s.repo.QueryNotifications(context.Background(), store.QueryOpts{Limit: queryLimit})
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		return historyLoadedMsg{Runs: GroupRuns(rows)}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.runs = msg.Runs
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.runs)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.runs) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  Nothing watched yet.")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, run := range s.runs {
		latest := run.Events[0].Timestamp
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%s  %-10s  %d started  %d finished",
			prefix, latest.Format("Jan 02, 2006 15:04"), run.Level, run.Viewed, run.Finished)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			for _, ev := range run.Events {
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, renderEvent(ev)))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

func renderEvent(n store.Notification) string {
	at := n.Timestamp.Format("15:04")
	if n.Kind == notify.KindFinished {
		return theme.Done.Render(fmt.Sprintf("    %s  ✓ %s", at, n.Title))
	}
	line := fmt.Sprintf("    %s  ▸ %s", at, n.Title)
	if n.NextTitle != "" {
		line += "  (next: " + n.NextTitle + ")"
	}
	return theme.Hint.Render(line)
}
