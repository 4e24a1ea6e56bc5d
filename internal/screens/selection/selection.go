// Package selection asks for the learner's level and subject, then opens
// the player for that selection.
package selection

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/level"
	"github.com/abhisek/remediz/internal/logger"
	"github.com/abhisek/remediz/internal/router"
	"github.com/abhisek/remediz/internal/screen"
	"github.com/abhisek/remediz/internal/ui/components"
	"github.com/abhisek/remediz/internal/ui/layout"
	"github.com/abhisek/remediz/internal/ui/theme"
)

// Loader fetches the raw catalog for a learner level.
type Loader func(ctx context.Context, learner level.Level) ([]catalog.Video, error)

// PlayerFactory builds the player screen for a selection.
type PlayerFactory func(learner level.Level, subject string, videos []catalog.Video) screen.Screen

type step int

const (
	stepLevel step = iota
	stepLoading
	stepSubject
	stepFailed
)

type catalogLoadedMsg struct {
	learner level.Level
	videos  []catalog.Video
	err     error
}

// Deps wires the screen.
type Deps struct {
	Load    Loader
	Player  PlayerFactory
	History func() screen.Screen
	// Level prefills the level input.
	Level string
	Log   *logger.Logger
}

// SelectionScreen walks the learner through level then subject.
type SelectionScreen struct {
	deps    Deps
	step    step
	input   components.TextInput
	spinner spinner.Model
	learner level.Level
	videos  []catalog.Video
	menu    components.Menu
	errMsg  string
}

var _ screen.Screen = (*SelectionScreen)(nil)
var _ screen.KeyHintProvider = (*SelectionScreen)(nil)

// New creates the selection screen.
func New(d Deps) *SelectionScreen {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &SelectionScreen{
		deps:    d,
		input:   components.NewTextInput("5e, 2nde C, Terminale D…", d.Level, 24),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (s *SelectionScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *SelectionScreen) Title() string {
	return "New selection"
}

func (s *SelectionScreen) KeyHints() []layout.KeyHint {
	switch s.step {
	case stepSubject:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "Enter", Description: "Start"},
			{Key: "Esc", Description: "Change level"},
		}
	case stepFailed:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Retry"},
			{Key: "Esc", Description: "Change level"},
		}
	case stepLoading:
		return nil
	}
	hints := []layout.KeyHint{{Key: "Enter", Description: "Continue"}}
	if s.deps.History != nil {
		hints = append(hints, layout.KeyHint{Key: "Tab", Description: "History"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

func (s *SelectionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case catalogLoadedMsg:
		return s, s.loaded(msg)
	case spinner.TickMsg:
		if s.step != stepLoading {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	case tea.KeyMsg:
		return s, s.handleKey(msg)
	}

	if s.step == stepLevel {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *SelectionScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch s.step {
	case stepLevel:
		switch key {
		case "enter":
			return s.submitLevel()
		case "tab":
			if s.deps.History != nil {
				h := s.deps.History()
				return func() tea.Msg { return router.PushScreenMsg{Screen: h} }
			}
			return nil
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return cmd

	case stepSubject:
		if key == "esc" {
			s.step = stepLevel
			return nil
		}
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return cmd

	case stepFailed:
		switch key {
		case "enter":
			return s.load(s.learner)
		case "esc":
			s.step = stepLevel
		}
	}
	return nil
}

func (s *SelectionScreen) submitLevel() tea.Cmd {
	learner, err := ParseLevel(s.input.Value())
	if err != nil {
		s.input.Err = err.Error()
		return nil
	}
	return s.load(learner)
}

func (s *SelectionScreen) load(learner level.Level) tea.Cmd {
	s.learner = learner
	s.step = stepLoading
	s.errMsg = ""
	load := s.deps.Load
	fetch := func() tea.Msg {
		videos, err := load(context.Background(), learner)
		return catalogLoadedMsg{learner: learner, videos: videos, err: err}
	}
	return tea.Batch(fetch, s.spinner.Tick)
}

func (s *SelectionScreen) loaded(msg catalogLoadedMsg) tea.Cmd {
	if s.step != stepLoading || msg.learner != s.learner {
		return nil
	}
	if msg.err != nil {
		s.deps.Log.Error("catalog load failed", "level", msg.learner.String(), "error", msg.err)
		s.errMsg = msg.err.Error()
		s.step = stepFailed
		return nil
	}

	s.videos = msg.videos
	var items []components.MenuItem
	for _, subject := range catalog.Subjects(msg.videos) {
		selected := catalog.Select(msg.videos, catalog.Selection{Level: msg.learner, Subject: subject})
		items = append(items, components.MenuItem{
			Label:    subject,
			Detail:   fmt.Sprintf("%d videos", len(selected)),
			Action:   s.start(subject, selected),
			Disabled: len(selected) == 0,
		})
	}
	s.menu = components.NewMenu(items)
	s.step = stepSubject
	s.deps.Log.Info("catalog ready", "level", msg.learner.String(), "videos", len(msg.videos), "subjects", len(items))
	return nil
}

func (s *SelectionScreen) start(subject string, videos []catalog.Video) func() tea.Cmd {
	return func() tea.Cmd {
		p := s.deps.Player(s.learner, subject, videos)
		return func() tea.Msg { return router.PushScreenMsg{Screen: p} }
	}
}

// ParseLevel validates a level label typed by the learner. The stage must
// be known; a lycée track, when given, must be one of the stage's tracks.
func ParseLevel(label string) (level.Level, error) {
	l := level.Parse(label)
	if l.IsZero() {
		return level.Level{}, fmt.Errorf("enter a level such as 5e or 2nde C")
	}
	if !slices.Contains(level.AllStages(), l.Stage) {
		return level.Level{}, fmt.Errorf("unknown level %q", strings.TrimSpace(label))
	}
	if !l.Stage.IsLycee() {
		l.Track = ""
	} else if l.Track != "" && !slices.Contains(level.Tracks(l.Stage), l.Track) {
		return level.Level{}, fmt.Errorf("unknown series %q for %s", l.Track, l.Stage)
	}
	return l, nil
}

func (s *SelectionScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(layout.Centered(width, theme.Title, "Remediation videos"))
	b.WriteString("\n\n")

	switch s.step {
	case stepLevel:
		b.WriteString(layout.Centered(width, theme.Body, "What level is the learner in?"))
		b.WriteString("\n\n")
		b.WriteString(layout.Centered(width, theme.Body, s.input.View()))
	case stepLoading:
		b.WriteString(layout.Centered(width, theme.Body,
			s.spinner.View()+" Loading the "+s.learner.String()+" catalog"))
	case stepFailed:
		b.WriteString(layout.Centered(width, theme.Incorrect, "Could not load the catalog"))
		b.WriteString("\n\n")
		b.WriteString(layout.Centered(width, theme.Hint, s.errMsg))
	case stepSubject:
		b.WriteString(layout.Centered(width, theme.Subtitle, "Level "+s.learner.String()))
		b.WriteString("\n\n")
		if len(s.menu.Items) == 0 {
			b.WriteString(layout.Centered(width, theme.Hint, "No subjects in the catalog for this level."))
			break
		}
		b.WriteString(theme.Card.MarginLeft(max((width-40)/2, 0)).Render(s.menu.View()))
	}
	return b.String()
}
