// Package progression drives playback, quizzes and notion evaluations over
// a learning queue.
package progression

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/evaluation"
	"github.com/abhisek/remediz/internal/gate"
	"github.com/abhisek/remediz/internal/logger"
	"github.com/abhisek/remediz/internal/notify"
	"github.com/abhisek/remediz/internal/queue"
)

// ErrInvalidTransition is returned when a command is not allowed in the
// current phase.
var ErrInvalidTransition = errors.New("invalid transition")

// Scheduler runs f once after d on the machine's event loop. The returned
// cancel prevents f from running if it has not run yet.
type Scheduler interface {
	Schedule(d time.Duration, f func()) (cancel func())
}

// Navigator is told when the learner has finished the queue.
type Navigator interface {
	SubjectComplete()
}

// Telemetry receives fire-and-forget viewing events. Implementations must
// not block.
type Telemetry interface {
	Viewing(ev notify.ViewingEvent)
	Finished(ev notify.FinishedEvent)
}

// Config holds quiz timings.
type Config struct {
	// QuestionTicks is the default countdown length per question.
	QuestionTicks int

	// Tick is the countdown interval.
	Tick time.Duration

	// CorrectDelay and WrongDelay are the feedback windows.
	CorrectDelay time.Duration
	WrongDelay   time.Duration

	// AdvanceDelay separates a completed video from the next one.
	AdvanceDelay time.Duration
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		QuestionTicks: 600,
		Tick:          time.Second,
		CorrectDelay:  1200 * time.Millisecond,
		WrongDelay:    1800 * time.Millisecond,
		AdvanceDelay:  time.Second,
	}
}

// Deps are the Machine's collaborators.
type Deps struct {
	Queue     *queue.Queue
	Gate      *gate.Gate
	Evaluator *evaluation.Scheduler
	Scheduler Scheduler
	Telemetry Telemetry
	Navigator Navigator // optional
	Rand      *rand.Rand
	Now       func() time.Time
	Log       *logger.Logger
	Config    Config

	// OnTransition, if set, is called after every phase change.
	OnTransition func(Transition)
}

// Transition describes one phase change.
type Transition struct {
	From, To Phase
	Index    int
	Video    *catalog.Video
	At       time.Time
}

// Machine owns the progression state for one learning session. It is not
// safe for concurrent use: every method and every scheduled callback must
// run on the same event loop.
type Machine struct {
	deps Deps
	cfg  Config
	rng  *rand.Rand
	now  func() time.Time
	log  *logger.Logger

	phase  Phase
	cursor int

	completed *CompletedSet
	seen      map[string]bool

	// questions is the shuffled quiz of the focused video.
	questions []catalog.Question
	qIndex    int

	// evals holds pending evaluations; evals[0] runs when in evaluation.
	evals []*evaluation.Session

	// returnTo is the asking phase a feedback window resolves back into.
	returnTo Phase

	remaining int
	duration  int
	lastWrong *catalog.Question

	timers  map[int]func()
	timerID int
}

// New creates a Machine. Call Start to focus the first video.
func New(deps Deps) *Machine {
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Evaluator == nil {
		deps.Evaluator = evaluation.NewScheduler(deps.Rand)
	}
	if deps.Config == (Config{}) {
		deps.Config = DefaultConfig()
	}
	return &Machine{
		deps:      deps,
		cfg:       deps.Config,
		rng:       deps.Rand,
		now:       deps.Now,
		log:       deps.Log,
		phase:     PhaseIdle,
		completed: NewCompletedSet(),
		seen:      make(map[string]bool),
		timers:    make(map[int]func()),
	}
}

// Start focuses the first queue entry, or enters PhaseNoContent when the
// queue is empty.
func (m *Machine) Start() {
	if m.deps.Queue == nil || m.deps.Queue.Len() == 0 {
		m.enter(PhaseNoContent)
		return
	}
	m.focus(0)
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase { return m.phase }

// Cursor returns the index of the focused queue entry.
func (m *Machine) Cursor() int { return m.cursor }

// Completed returns the completed-video set.
func (m *Machine) Completed() *CompletedSet { return m.completed }

// Current returns the focused video, or nil.
func (m *Machine) Current() *catalog.Video {
	if m.deps.Queue == nil {
		return nil
	}
	return m.deps.Queue.At(m.cursor)
}

// Play starts the focused video.
func (m *Machine) Play() error {
	if m.phase != PhaseIdle {
		return m.invalid("play")
	}
	m.resetQuiz()
	m.enter(PhasePlaying)
	return nil
}

// VideoEnded is signalled by the playback surface when the focused video
// finished. The quiz starts, or the video completes if it has none.
func (m *Machine) VideoEnded() error {
	if m.phase != PhasePlaying {
		return m.invalid("video ended")
	}
	m.emitTelemetry()
	if len(m.questions) == 0 {
		m.complete()
		return nil
	}
	m.qIndex = 0
	m.ask(PhaseQuiz)
	return nil
}

// Submit answers the question on screen.
func (m *Machine) Submit(choice string) error {
	if !m.phase.Asking() {
		return m.invalid("submit")
	}
	q := m.question()
	if q == nil {
		return m.invalid("submit")
	}
	m.answer(choice == q.Correct)
	return nil
}

// Focus jumps to the queue entry with the given ID.
func (m *Machine) Focus(id string) error {
	switch m.phase {
	case PhaseIdle, PhaseLocked, PhasePlaying, PhaseCompleted:
	default:
		return m.invalid("focus")
	}
	i := m.deps.Queue.Index(id)
	if i < 0 {
		return fmt.Errorf("focus %q: not in queue", id)
	}
	m.focus(i)
	return nil
}

// Refresh re-applies the calendar gate to the focused video.
func (m *Machine) Refresh() {
	if m.phase == PhaseIdle || m.phase == PhaseLocked {
		m.enter(m.gatePhase(m.Current()))
	}
}

// Close cancels every pending timer. Later commands fail and scheduled
// callbacks that were already queued are ignored.
func (m *Machine) Close() {
	if m.phase == PhaseClosed {
		return
	}
	m.enter(PhaseClosed)
	m.evals = nil
}

// Remaining returns the countdown ticks left on the current question.
func (m *Machine) Remaining() int { return m.remaining }

// Warning reports whether the countdown is in its last quarter.
func (m *Machine) Warning() bool {
	return m.phase.Asking() && m.remaining <= m.duration/4
}

// focus moves the cursor to i and resets per-video state.
func (m *Machine) focus(i int) {
	m.cursor = i
	m.evals = nil
	m.returnTo = PhaseQuiz
	m.resetQuiz()
	m.enter(m.gatePhase(m.Current()))
	m.emitTelemetry()
}

func (m *Machine) gatePhase(v *catalog.Video) Phase {
	if m.deps.Gate == nil || m.deps.Gate.IsUnlocked(v, m.completed, gate.MonthName(m.now())) {
		return PhaseIdle
	}
	return PhaseLocked
}

// resetQuiz reshuffles the focused video's questions and rewinds.
func (m *Machine) resetQuiz() {
	m.qIndex = 0
	m.questions = nil
	if v := m.Current(); v != nil {
		m.questions = catalog.ShuffleQuestions(m.rng, v.Questions)
	}
}

// ask enters an asking phase and starts the countdown.
func (m *Machine) ask(p Phase) {
	m.returnTo = p
	m.enter(p)
	m.duration = m.cfg.QuestionTicks
	if q := m.question(); q != nil && q.Duration > 0 {
		m.duration = q.Duration
	}
	m.remaining = m.duration
	m.after(m.cfg.Tick, m.tick)
}

func (m *Machine) tick() {
	if !m.phase.Asking() {
		return
	}
	m.remaining--
	if m.remaining <= 0 {
		m.log.Debug("question timed out", "phase", m.phase.String())
		m.answer(false)
		return
	}
	m.after(m.cfg.Tick, m.tick)
}

// question returns the question on screen in quiz or evaluation.
func (m *Machine) question() *catalog.Question {
	if m.returnTo == PhaseEvaluation {
		if len(m.evals) == 0 {
			return nil
		}
		return m.evals[0].Current()
	}
	if m.qIndex < 0 || m.qIndex >= len(m.questions) {
		return nil
	}
	return &m.questions[m.qIndex]
}

func (m *Machine) answer(correct bool) {
	if correct {
		m.lastWrong = nil
		m.enter(PhaseAnswerCorrect)
		m.after(m.cfg.CorrectDelay, m.afterCorrect)
		return
	}
	m.lastWrong = m.question()
	m.enter(PhaseAnswerWrong)
	m.after(m.cfg.WrongDelay, m.afterWrong)
}

func (m *Machine) afterCorrect() {
	if m.returnTo == PhaseEvaluation {
		sess := m.evals[0]
		if sess.Advance() {
			m.ask(PhaseEvaluation)
			return
		}
		m.deps.Evaluator.MarkPassed(sess.Skill)
		m.log.Info("evaluation passed", "skill", sess.Skill)
		m.evals = m.evals[1:]
		if len(m.evals) > 0 {
			m.startEvaluation()
			return
		}
		m.advance()
		return
	}

	if m.qIndex+1 < len(m.questions) {
		m.qIndex++
		m.ask(PhaseQuiz)
		return
	}
	m.complete()
}

func (m *Machine) afterWrong() {
	if m.returnTo == PhaseEvaluation {
		sess := m.evals[0]
		var src *catalog.Video
		if m.lastWrong != nil {
			src = sess.SourceOf(m.lastWrong.ID)
		}
		m.log.Info("evaluation failed", "skill", sess.Skill)
		if src == nil {
			m.evals = nil
			m.advance()
			return
		}
		m.focus(m.deps.Queue.Index(src.ID))
		return
	}

	// Forced rewatch of the same video.
	m.resetQuiz()
	m.enter(PhaseIdle)
}

// complete records the focused video as passed and either starts the
// evaluations it unlocked or schedules the cursor advance.
func (m *Machine) complete() {
	v := m.Current()
	m.completed.Add(v.ID)
	if m.deps.Queue.AtLevel(v) {
		m.seen[v.ID] = true
	}
	m.log.Debug("video completed", "id", v.ID, "completed", m.completed.Len())

	if sessions := m.deps.Evaluator.OnCompleted(v, m.deps.Queue, m.completed); len(sessions) > 0 {
		m.evals = sessions
		m.startEvaluation()
		return
	}

	if m.phase == PhasePlaying {
		// Nothing was asked, so there is no feedback to hold on screen.
		m.advance()
		return
	}
	m.after(m.cfg.AdvanceDelay, m.advance)
}

func (m *Machine) startEvaluation() {
	m.log.Info("evaluation started", "skill", m.evals[0].Skill, "questions", len(m.evals[0].Questions))
	m.ask(PhaseEvaluation)
}

// advance moves the cursor past entries already consumed at this level.
// Exhausting the queue completes the subject.
func (m *Machine) advance() {
	q := m.deps.Queue
	if v := m.Current(); v != nil && q.AtLevel(v) {
		m.seen[v.ID] = true
	}

	next := m.cursor + 1
	for next < q.Len() {
		v := q.At(next)
		if !q.AtLevel(v) || !m.seen[v.ID] {
			break
		}
		next++
	}

	if next >= q.Len() {
		m.enter(PhaseCompleted)
		if m.deps.Navigator != nil {
			m.deps.Navigator.SubjectComplete()
		}
		return
	}
	m.focus(next)
}

// enter switches phase, cancelling every timer owned by the old one.
func (m *Machine) enter(p Phase) {
	m.cancelTimers()
	from := m.phase
	m.phase = p
	if m.deps.OnTransition != nil {
		m.deps.OnTransition(Transition{From: from, To: p, Index: m.cursor, Video: m.Current(), At: m.now()})
	}
}

// after schedules f for the current phase.
func (m *Machine) after(d time.Duration, f func()) {
	m.timerID++
	id := m.timerID
	m.timers[id] = m.deps.Scheduler.Schedule(d, func() {
		if _, live := m.timers[id]; !live {
			return
		}
		delete(m.timers, id)
		f()
	})
}

func (m *Machine) cancelTimers() {
	for id, cancel := range m.timers {
		cancel()
		delete(m.timers, id)
	}
}

func (m *Machine) emitTelemetry() {
	if m.deps.Telemetry == nil {
		return
	}
	v := m.Current()
	if v == nil {
		return
	}
	var nextTitle string
	if next := m.deps.Queue.At(m.cursor + 1); next != nil {
		nextTitle = next.Title
	}
	m.deps.Telemetry.Viewing(notify.ViewingEvent{
		Level:      m.deps.Queue.Target().String(),
		Title:      v.Title,
		NextTitle:  nextTitle,
		StartMonth: v.FirstReleaseMonth(),
	})
	m.deps.Telemetry.Finished(notify.FinishedEvent{Title: v.Title, NextTitle: nextTitle})
}

func (m *Machine) invalid(cmd string) error {
	return fmt.Errorf("%s in phase %s: %w", cmd, m.phase, ErrInvalidTransition)
}
