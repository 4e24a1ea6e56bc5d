package player

import (
	"fmt"
	"math/rand"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/evaluation"
	"github.com/abhisek/remediz/internal/gate"
	"github.com/abhisek/remediz/internal/level"
	"github.com/abhisek/remediz/internal/logger"
	"github.com/abhisek/remediz/internal/progression"
	"github.com/abhisek/remediz/internal/queue"
	"github.com/abhisek/remediz/internal/router"
	"github.com/abhisek/remediz/internal/screen"
	"github.com/abhisek/remediz/internal/screens/summary"
	"github.com/abhisek/remediz/internal/ui/components"
	"github.com/abhisek/remediz/internal/ui/layout"
)

// Deps are the player's inputs.
type Deps struct {
	Videos  []catalog.Video
	Learner level.Level
	Subject string

	Telemetry progression.Telemetry
	Config    progression.Config
	Log       *logger.Logger
	Now       func() time.Time
	Rand      *rand.Rand
}

// PlayerScreen plays a subject's learning queue.
type PlayerScreen struct {
	deps    Deps
	queue   *queue.Queue
	gate    *gate.Gate
	evals   *evaluation.Scheduler
	machine *progression.Machine
	sched   *teaScheduler
	spinner spinner.Model

	// choice is rebuilt for every asked question.
	choice    components.MultiChoice
	choiceFor string
	chosen    string

	started  time.Time
	finished bool
	errMsg   string
}

var _ screen.Screen = (*PlayerScreen)(nil)
var _ screen.KeyHintProvider = (*PlayerScreen)(nil)
var _ screen.StatusProvider = (*PlayerScreen)(nil)
var _ router.Closer = (*PlayerScreen)(nil)

// New builds the queue for the selection. A build failure, such as a
// prerequisite cycle, is shown as an error state.
func New(d Deps) *PlayerScreen {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	p := &PlayerScreen{
		deps:    d,
		sched:   newTeaScheduler(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}

	q, err := queue.Build(d.Videos, d.Learner)
	if err != nil {
		d.Log.Error("queue build failed", "level", d.Learner.String(), "subject", d.Subject, "error", err)
		p.errMsg = err.Error()
		return p
	}
	p.queue = q
	p.gate = gate.New(d.Learner)
	p.evals = evaluation.NewScheduler(d.Rand)
	p.machine = progression.New(progression.Deps{
		Queue:        q,
		Gate:         p.gate,
		Evaluator:    p.evals,
		Scheduler:    p.sched,
		Telemetry:    d.Telemetry,
		Navigator:    p,
		Rand:         d.Rand,
		Now:          d.Now,
		Log:          d.Log,
		Config:       d.Config,
		OnTransition: p.onTransition,
	})
	return p
}

func (p *PlayerScreen) Init() tea.Cmd {
	if p.machine == nil {
		return nil
	}
	p.started = p.deps.Now()
	p.machine.Start()
	p.syncChoice()
	return tea.Batch(p.sched.drain(), p.spinner.Tick)
}

func (p *PlayerScreen) Title() string {
	if p.deps.Subject == "" {
		return p.deps.Learner.String()
	}
	return p.deps.Subject + " · " + p.deps.Learner.String()
}

func (p *PlayerScreen) Status() string {
	if p.machine == nil {
		return ""
	}
	s := p.machine.Snapshot()
	return fmt.Sprintf("✓ %d/%d", s.Completed, s.Total)
}

func (p *PlayerScreen) KeyHints() []layout.KeyHint {
	if p.machine == nil {
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	}
	nav := []layout.KeyHint{{Key: "N/P", Description: "Next/prev video"}}
	switch p.machine.Phase() {
	case progression.PhaseIdle:
		return append([]layout.KeyHint{{Key: "Enter", Description: "Play"}}, nav...)
	case progression.PhasePlaying:
		return append([]layout.KeyHint{{Key: "Enter", Description: "Video finished"}}, nav...)
	case progression.PhaseLocked:
		return append([]layout.KeyHint{{Key: "R", Description: "Refresh"}}, nav...)
	case progression.PhaseQuiz, progression.PhaseEvaluation:
		return []layout.KeyHint{
			{Key: "1-9", Description: "Answer"},
			{Key: "↑↓", Description: "Choose"},
			{Key: "Enter", Description: "Submit"},
		}
	case progression.PhaseCompleted:
		return append([]layout.KeyHint{{Key: "Enter", Description: "Summary"}}, nav...)
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
}

func (p *PlayerScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if p.machine == nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return p, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return p, nil
	}

	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case timerFiredMsg:
		p.sched.fire(msg.id)
	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		cmds = append(cmds, p.handleKey(msg))
	}

	p.syncChoice()
	cmds = append(cmds, p.sched.drain())
	if p.finished {
		p.finished = false
		cmds = append(cmds, p.showSummary())
	}
	return p, tea.Batch(cmds...)
}

// Close stops the machine and drops its timers.
func (p *PlayerScreen) Close() {
	if p.machine != nil {
		p.machine.Close()
	}
	p.sched.cancelAll()
}

// SubjectComplete is called by the machine when the queue is exhausted.
func (p *PlayerScreen) SubjectComplete() {
	p.finished = true
}

func (p *PlayerScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	m := p.machine
	key := msg.String()

	phase := m.Phase()
	if !phase.Asking() {
		switch key {
		case "n", "tab":
			p.focusRelative(1)
			return nil
		case "p", "shift+tab":
			p.focusRelative(-1)
			return nil
		}
	}

	switch phase {
	case progression.PhaseIdle:
		if key == "enter" || key == "space" {
			_ = m.Play()
		}
	case progression.PhasePlaying:
		if key == "enter" {
			_ = m.VideoEnded()
		}
	case progression.PhaseLocked:
		if key == "r" {
			m.Refresh()
		}
	case progression.PhaseQuiz, progression.PhaseEvaluation:
		var chosen string
		p.choice, chosen = p.choice.Update(msg)
		if chosen != "" {
			p.chosen = chosen
			_ = m.Submit(chosen)
		}
	case progression.PhaseCompleted:
		if key == "enter" {
			return p.showSummary()
		}
	}
	return nil
}

func (p *PlayerScreen) focusRelative(delta int) {
	v := p.queue.At(p.machine.Cursor() + delta)
	if v == nil {
		return
	}
	if err := p.machine.Focus(v.ID); err != nil {
		p.deps.Log.Debug("focus refused", "id", v.ID, "error", err)
	}
}

// syncChoice keeps the selector in step with the question on screen.
func (p *PlayerScreen) syncChoice() {
	s := p.machine.Snapshot()
	if s.Question == nil {
		return
	}
	switch {
	case s.Phase.Asking():
		if p.choice.Reveal || p.choiceFor != s.Question.ID {
			p.choice = components.NewMultiChoice(s.Question.Prompt, s.Question.Choices)
			p.choiceFor = s.Question.ID
			p.chosen = ""
		}
	case s.Phase == progression.PhaseAnswerCorrect, s.Phase == progression.PhaseAnswerWrong:
		p.choice.Reveal = true
		p.choice.Correct = s.Question.Correct
		p.choice.Chosen = p.chosen
	}
}

func (p *PlayerScreen) onTransition(t progression.Transition) {
	id := ""
	if t.Video != nil {
		id = t.Video.ID
	}
	p.deps.Log.Debug("phase changed", "from", t.From.String(), "to", t.To.String(), "index", t.Index, "video", id)
}

func (p *PlayerScreen) showSummary() tea.Cmd {
	var titles []string
	for _, id := range p.machine.Completed().IDs() {
		v := p.queue.At(p.queue.Index(id))
		if v == nil {
			continue
		}
		title := v.Title
		if title == "" {
			title = v.ID
		}
		titles = append(titles, title)
	}
	sum := summary.Summary{
		Level:       p.deps.Learner.String(),
		Subject:     p.deps.Subject,
		Total:       p.queue.Len(),
		Completed:   titles,
		Evaluations: p.evals.PassedSkills(),
		Duration:    p.deps.Now().Sub(p.started),
	}
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: summary.New(sum)}
	}
}
