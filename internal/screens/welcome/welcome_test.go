package welcome

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/remediz/internal/router"
	"github.com/abhisek/remediz/internal/screen"
)

type stubScreen struct{}

func (s *stubScreen) Init() tea.Cmd                          { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                   { return "next" }
func (s *stubScreen) Title() string                          { return "Next" }

func newTestWelcome() (*WelcomeScreen, *int) {
	calls := 0
	return New(func() screen.Screen {
		calls++
		return &stubScreen{}
	}), &calls
}

func sendTicks(w *WelcomeScreen, n int) tea.Cmd {
	var cmd tea.Cmd
	for i := 0; i < n; i++ {
		_, cmd = w.Update(tickMsg(time.Now()))
	}
	return cmd
}

func TestWelcome_RevealsInStages(t *testing.T) {
	w, _ := newTestWelcome()
	if strings.Contains(w.View(100, 30), "one video at a time") {
		t.Error("tagline should not show at start")
	}

	sendTicks(w, 6)
	view := w.View(100, 30)
	if !strings.Contains(view, "one video at a time") {
		t.Error("tagline should show after 600ms")
	}
	if strings.Contains(view, "press any key") {
		t.Error("hint should wait until 1200ms")
	}

	sendTicks(w, 6)
	if !strings.Contains(w.View(100, 30), "press any key") {
		t.Error("hint should show after 1200ms")
	}
}

func TestWelcome_EarlyKeyIgnored(t *testing.T) {
	w, calls := newTestWelcome()
	sendTicks(w, 3)
	if _, cmd := w.Update(tea.KeyPressMsg{Code: ' '}); cmd != nil {
		t.Error("key before the hint should be ignored")
	}
	if *calls != 0 {
		t.Errorf("factory called %d times", *calls)
	}
}

func TestWelcome_KeyReplacesScreen(t *testing.T) {
	w, calls := newTestWelcome()
	sendTicks(w, 12)

	_, cmd := w.Update(tea.KeyPressMsg{Code: ' '})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok || msg.Screen == nil {
		t.Fatalf("expected ReplaceScreenMsg, got %T", cmd())
	}
	if _, cmd := w.Update(tea.KeyPressMsg{Code: 'b'}); cmd != nil {
		t.Error("second key should not transition again")
	}
	if *calls != 1 {
		t.Errorf("factory called %d times, want 1", *calls)
	}
}

func TestWelcome_AutoContinues(t *testing.T) {
	w, calls := newTestWelcome()
	cmd := sendTicks(w, int(autoContinue/tickInterval))
	if cmd == nil {
		t.Fatal("expected the replace command")
	}
	if _, ok := cmd().(router.ReplaceScreenMsg); !ok {
		t.Error("expected ReplaceScreenMsg")
	}
	if *calls != 1 {
		t.Errorf("factory called %d times, want 1", *calls)
	}
	if cmd := sendTicks(w, 1); cmd != nil {
		t.Error("ticks after the transition should stop")
	}
}

func TestWelcome_CompactBanner(t *testing.T) {
	if !strings.Contains(RenderBanner(40), "R E M E D I Z") {
		t.Error("narrow terminals should get the compact banner")
	}
}
