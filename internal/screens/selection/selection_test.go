package selection

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/level"
	"github.com/abhisek/remediz/internal/router"
	"github.com/abhisek/remediz/internal/screen"
	"github.com/abhisek/remediz/internal/screens/summary"
)

func enter() tea.KeyPressMsg { return tea.KeyPressMsg{Code: tea.KeyEnter} }

func videos() []catalog.Video {
	return []catalog.Video{
		{ID: "m1", Level: "5e", Subject: "Maths", Skills: []string{"fractions"}},
		{ID: "m2", Level: "5e", Subject: "Maths", Skills: []string{"aires"}},
		{ID: "f1", Level: "5e", Subject: "Français", Skills: []string{"accords"}},
	}
}

type picked struct {
	learner level.Level
	subject string
	videos  []catalog.Video
}

func newScreen(t *testing.T, prefill string, load Loader) (*SelectionScreen, *picked) {
	t.Helper()
	got := &picked{}
	s := New(Deps{
		Load: load,
		Player: func(l level.Level, subject string, v []catalog.Video) screen.Screen {
			got.learner, got.subject, got.videos = l, subject, v
			return summary.New(summary.Summary{})
		},
		Level: prefill,
	})
	return s, got
}

// run executes a batch and feeds every non-tick result back to the screen.
func run(s *SelectionScreen, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if m, ok := c().(catalogLoadedMsg); ok {
				s.Update(m)
			}
		}
	case catalogLoadedMsg:
		s.Update(msg)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		label   string
		want    string
		wantErr bool
	}{
		{"5e", "5e", false},
		{" cinquième ", "5e", false},
		{"2nde c", "2nde C", false},
		{"Terminale", "Terminale", false},
		{"4e B", "4e", false},
		{"2nde Z", "", true},
		{"CM2", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.label)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v", tt.label, err)
			continue
		}
		if err == nil && got.String() != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.label, got.String(), tt.want)
		}
	}
}

func TestSelection_LevelThenSubject(t *testing.T) {
	var asked level.Level
	s, got := newScreen(t, "5e", func(_ context.Context, l level.Level) ([]catalog.Video, error) {
		asked = l
		return videos(), nil
	})

	_, cmd := s.Update(enter())
	if s.step != stepLoading {
		t.Fatalf("step = %d, want loading", s.step)
	}
	run(s, cmd)
	if asked.String() != "5e" {
		t.Errorf("loader asked for %q", asked.String())
	}
	if s.step != stepSubject || len(s.menu.Items) != 2 {
		t.Fatalf("step = %d, items = %d", s.step, len(s.menu.Items))
	}
	if !strings.Contains(s.View(100, 30), "Français") {
		t.Error("subject menu should list every subject")
	}

	_, cmd = s.Update(enter())
	if cmd == nil {
		t.Fatal("enter on a subject should open the player")
	}
	if _, ok := cmd().(router.PushScreenMsg); !ok {
		t.Fatal("expected a push")
	}
	if got.subject != "Maths" || len(got.videos) != 2 {
		t.Errorf("player got subject %q with %d videos", got.subject, len(got.videos))
	}
}

func TestSelection_InvalidLevel(t *testing.T) {
	s, _ := newScreen(t, "CM2", func(context.Context, level.Level) ([]catalog.Video, error) {
		t.Fatal("loader should not be called")
		return nil, nil
	})
	s.Update(enter())
	if s.step != stepLevel || s.input.Err == "" {
		t.Errorf("step = %d, err = %q", s.step, s.input.Err)
	}
}

func TestSelection_LoadFailureRetries(t *testing.T) {
	calls := 0
	s, _ := newScreen(t, "4e", func(context.Context, level.Level) ([]catalog.Video, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("offline")
		}
		return videos(), nil
	})
	_, cmd := s.Update(enter())
	run(s, cmd)
	if s.step != stepFailed || !strings.Contains(s.View(100, 30), "offline") {
		t.Fatalf("step = %d, want failed", s.step)
	}

	_, cmd = s.Update(enter())
	run(s, cmd)
	if s.step != stepSubject {
		t.Errorf("step = %d after retry", s.step)
	}
}

func TestSelection_EscReturnsToLevel(t *testing.T) {
	s, _ := newScreen(t, "5e", func(context.Context, level.Level) ([]catalog.Video, error) {
		return videos(), nil
	})
	_, cmd := s.Update(enter())
	run(s, cmd)
	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if s.step != stepLevel {
		t.Errorf("step = %d, want level", s.step)
	}
}

func TestSelection_StaleLoadIgnored(t *testing.T) {
	s, _ := newScreen(t, "5e", nil)
	s.Update(catalogLoadedMsg{learner: level.New("4e", ""), videos: videos()})
	if s.step != stepLevel {
		t.Errorf("unexpected load changed step to %d", s.step)
	}
}

func TestSelection_HistoryShortcut(t *testing.T) {
	s, _ := newScreen(t, "", nil)
	s.deps.History = func() screen.Screen { return summary.New(summary.Summary{}) }
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyTab})
	if cmd == nil {
		t.Fatal("tab should open history")
	}
	if _, ok := cmd().(router.PushScreenMsg); !ok {
		t.Error("expected a push")
	}
}
