// Package welcome shows a short splash before the first real screen.
package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/remediz/internal/router"
	"github.com/abhisek/remediz/internal/screen"
	"github.com/abhisek/remediz/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	taglineAt    = 600 * time.Millisecond
	hintAt       = 1200 * time.Millisecond
	// autoContinue moves on without a key press.
	autoContinue = 3 * time.Second
)

// playFrames animate the play glyph under the banner.
var playFrames = []string{"▷", "▶"}

type tickMsg time.Time

// WelcomeScreen shows the banner, then replaces itself with the screen
// built by next.
type WelcomeScreen struct {
	next         func() screen.Screen
	elapsed      time.Duration
	tickCount    int
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen that continues to the screen produced by next.
func New(next func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{next: next}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if w.transitioned {
			return w, nil
		}
		w.elapsed += tickInterval
		w.tickCount++
		if w.elapsed >= autoContinue {
			return w, w.transition()
		}
		return w, tick()

	case tea.KeyPressMsg:
		// Keys are ignored until the hint is on screen.
		if w.elapsed >= hintAt {
			return w, w.transition()
		}
	}
	return w, nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	next := w.next()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: next}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	sections := []string{RenderBanner(width)}

	if w.elapsed >= taglineAt {
		glyph := lipgloss.NewStyle().
			Foreground(theme.Accent).
			Render(playFrames[w.tickCount/3%len(playFrames)])
		tagline := lipgloss.NewStyle().
			Foreground(theme.Text).
			Bold(true).
			Render("Catch up, one video at a time")
		sections = append(sections, "", glyph+"  "+tagline)
	}

	if w.elapsed >= hintAt {
		hint := lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Italic(true).
			Render("press any key to continue")
		sections = append(sections, "", hint)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}
