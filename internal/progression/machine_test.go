package progression

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/gate"
	"github.com/abhisek/remediz/internal/level"
	"github.com/abhisek/remediz/internal/notify"
	"github.com/abhisek/remediz/internal/queue"
)

// manualScheduler runs scheduled tasks when the test advances its clock.
type manualScheduler struct {
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	at        time.Duration
	seq       int
	f         func()
	cancelled bool
}

func (s *manualScheduler) Schedule(d time.Duration, f func()) func() {
	s.seq++
	t := &manualTask{at: s.now + d, seq: s.seq, f: f}
	s.tasks = append(s.tasks, t)
	return func() { t.cancelled = true }
}

// Advance runs every task due within d, in deadline order.
func (s *manualScheduler) Advance(d time.Duration) {
	end := s.now + d
	for {
		sort.Slice(s.tasks, func(i, j int) bool {
			if s.tasks[i].at != s.tasks[j].at {
				return s.tasks[i].at < s.tasks[j].at
			}
			return s.tasks[i].seq < s.tasks[j].seq
		})
		var next *manualTask
		for len(s.tasks) > 0 {
			t := s.tasks[0]
			if t.cancelled {
				s.tasks = s.tasks[1:]
				continue
			}
			if t.at <= end {
				next = t
				s.tasks = s.tasks[1:]
			}
			break
		}
		if next == nil {
			break
		}
		s.now = next.at
		next.f()
	}
	s.now = end
}

// Pending counts live tasks.
func (s *manualScheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

type recordingTelemetry struct {
	viewing  []notify.ViewingEvent
	finished []notify.FinishedEvent
}

func (r *recordingTelemetry) Viewing(ev notify.ViewingEvent)   { r.viewing = append(r.viewing, ev) }
func (r *recordingTelemetry) Finished(ev notify.FinishedEvent) { r.finished = append(r.finished, ev) }

type recordingNavigator struct{ calls int }

func (n *recordingNavigator) SubjectComplete() { n.calls++ }

type harness struct {
	m     *Machine
	sched *manualScheduler
	tel   *recordingTelemetry
	nav   *recordingNavigator
	now   time.Time
}

func newHarness(t *testing.T, videos []catalog.Video, learner level.Level) *harness {
	t.Helper()
	q, err := queue.Build(videos, learner)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h := &harness{
		sched: &manualScheduler{},
		tel:   &recordingTelemetry{},
		nav:   &recordingNavigator{},
		now:   time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
	h.m = New(Deps{
		Queue:     q,
		Gate:      gate.New(learner),
		Scheduler: h.sched,
		Telemetry: h.tel,
		Navigator: h.nav,
		Rand:      rand.New(rand.NewSource(42)),
		Now:       func() time.Time { return h.now },
		Config: Config{
			QuestionTicks: 8,
			Tick:          time.Second,
			CorrectDelay:  1200 * time.Millisecond,
			WrongDelay:    1800 * time.Millisecond,
			AdvanceDelay:  time.Second,
		},
	})
	h.m.Start()
	return h
}

func (h *harness) mustPhase(t *testing.T, want Phase) {
	t.Helper()
	if got := h.m.Phase(); got != want {
		t.Fatalf("phase = %s, want %s", got, want)
	}
}

func (h *harness) answerCorrect(t *testing.T) {
	t.Helper()
	q := h.m.Snapshot().Question
	if q == nil {
		t.Fatal("no question on screen")
	}
	if err := h.m.Submit(q.Correct); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

// watchAndPass plays the focused video and answers its quiz correctly.
func (h *harness) watchAndPass(t *testing.T) {
	t.Helper()
	if err := h.m.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := h.m.VideoEnded(); err != nil {
		t.Fatalf("VideoEnded: %v", err)
	}
	for h.m.Phase() == PhaseQuiz {
		h.answerCorrect(t)
		h.sched.Advance(1200 * time.Millisecond)
	}
}

func quiz(prefix string, n int) []catalog.Question {
	out := make([]catalog.Question, n)
	for i := range out {
		id := prefix + "-" + string(rune('a'+i))
		out[i] = catalog.Question{ID: id, Prompt: id + "?", Choices: []string{"yes", "no", "maybe"}, Correct: "yes"}
	}
	return out
}

// questionOrder fingerprints question and choice order.
func questionOrder(qs []catalog.Question) string {
	var b strings.Builder
	for _, q := range qs {
		b.WriteString(q.ID + ":" + strings.Join(q.Choices, "/") + " ")
	}
	return b.String()
}

func TestMachine_HappyPath(t *testing.T) {
	videos := []catalog.Video{
		{ID: "v1", Title: "Intro", Level: "6e", Questions: quiz("v1", 2)},
		{ID: "v2", Title: "Suite", Level: "6e"},
	}
	h := newHarness(t, videos, level.New("6e", ""))
	h.mustPhase(t, PhaseIdle)

	if err := h.m.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	h.mustPhase(t, PhasePlaying)
	if err := h.m.VideoEnded(); err != nil {
		t.Fatalf("VideoEnded: %v", err)
	}
	h.mustPhase(t, PhaseQuiz)

	h.answerCorrect(t)
	h.mustPhase(t, PhaseAnswerCorrect)
	h.sched.Advance(1199 * time.Millisecond)
	h.mustPhase(t, PhaseAnswerCorrect)
	h.sched.Advance(time.Millisecond)
	h.mustPhase(t, PhaseQuiz)
	if s := h.m.Snapshot(); s.QuestionNumber != 2 || s.QuestionCount != 2 {
		t.Errorf("question %d/%d, want 2/2", s.QuestionNumber, s.QuestionCount)
	}

	h.answerCorrect(t)
	h.sched.Advance(1200 * time.Millisecond)
	if !h.m.Completed().Has("v1") {
		t.Fatal("v1 should be completed")
	}
	if h.m.Cursor() != 0 {
		t.Error("cursor should wait for the advance delay")
	}
	h.sched.Advance(time.Second)
	h.mustPhase(t, PhaseIdle)
	if h.m.Current().ID != "v2" {
		t.Fatalf("current = %s, want v2", h.m.Current().ID)
	}

	// v2 has no questions: ending it completes it and moves on at once.
	h.watchAndPass(t)
	h.mustPhase(t, PhaseCompleted)
	if !h.m.Completed().Has("v2") {
		t.Error("v2 should be completed")
	}
	if h.nav.calls != 1 {
		t.Errorf("SubjectComplete called %d times, want 1", h.nav.calls)
	}
}

func TestMachine_WrongAnswerReset(t *testing.T) {
	videos := []catalog.Video{{ID: "v1", Level: "6e", Questions: quiz("v1", 6)}}
	h := newHarness(t, videos, level.New("6e", ""))

	_ = h.m.Play()
	_ = h.m.VideoEnded()
	before := h.m.questions
	beforeOrder := questionOrder(before)
	h.answerCorrect(t)
	h.sched.Advance(1200 * time.Millisecond)
	h.mustPhase(t, PhaseQuiz)

	if err := h.m.Submit("definitely wrong"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	h.mustPhase(t, PhaseAnswerWrong)
	if s := h.m.Snapshot(); s.Missed == nil {
		t.Error("snapshot should report the missed question")
	}
	h.sched.Advance(1800 * time.Millisecond)

	h.mustPhase(t, PhaseIdle)
	s := h.m.Snapshot()
	if s.Video.ID != "v1" {
		t.Errorf("video = %s, want v1", s.Video.ID)
	}
	if h.m.Completed().Has("v1") {
		t.Error("a wrong answer must not complete the video")
	}
	if h.m.qIndex != 0 || len(h.m.questions) != 6 {
		t.Fatalf("quiz not reset: index %d, %d questions", h.m.qIndex, len(h.m.questions))
	}
	if &h.m.questions[0] == &before[0] {
		t.Error("reset should rebuild the question set")
	}
	if questionOrder(h.m.questions) == beforeOrder {
		t.Errorf("questions not reshuffled: %s", beforeOrder)
	}
	if questionOrder(before) != beforeOrder {
		t.Error("reset must not reorder the previous set in place")
	}
	if h.sched.Pending() != 0 {
		t.Errorf("%d timers left after reset", h.sched.Pending())
	}
	if err := h.m.Submit("yes"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Submit in idle: got %v, want ErrInvalidTransition", err)
	}
}

func TestMachine_TimeoutIsWrongAnswer(t *testing.T) {
	videos := []catalog.Video{{ID: "v1", Level: "6e", Questions: quiz("v1", 1)}}
	h := newHarness(t, videos, level.New("6e", ""))
	_ = h.m.Play()
	_ = h.m.VideoEnded()

	h.sched.Advance(5 * time.Second)
	if h.m.Remaining() != 3 {
		t.Errorf("Remaining = %d, want 3", h.m.Remaining())
	}
	if h.m.Warning() {
		t.Error("no warning above a quarter of the countdown")
	}
	h.sched.Advance(time.Second)
	if !h.m.Warning() {
		t.Error("warning expected at a quarter of the countdown")
	}
	h.sched.Advance(2 * time.Second)
	h.mustPhase(t, PhaseAnswerWrong)
	h.sched.Advance(1800 * time.Millisecond)
	h.mustPhase(t, PhaseIdle)
}

func TestMachine_QuestionDurationOverride(t *testing.T) {
	qs := quiz("v1", 1)
	qs[0].Duration = 2
	videos := []catalog.Video{{ID: "v1", Level: "6e", Questions: qs}}
	h := newHarness(t, videos, level.New("6e", ""))
	_ = h.m.Play()
	_ = h.m.VideoEnded()
	if s := h.m.Snapshot(); s.Duration != 2 {
		t.Fatalf("Duration = %d, want 2", s.Duration)
	}
	h.sched.Advance(2 * time.Second)
	h.mustPhase(t, PhaseAnswerWrong)
}

func TestMachine_LockedUntilReleaseMonth(t *testing.T) {
	videos := []catalog.Video{{ID: "v1", Level: "6e", ReleaseMonths: []string{"Avril"}}}
	h := newHarness(t, videos, level.New("6e", ""))
	h.mustPhase(t, PhaseLocked)

	if s := h.m.Snapshot(); s.UnlockHint != "Avril" {
		t.Errorf("UnlockHint = %q, want Avril", s.UnlockHint)
	}
	if err := h.m.Play(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Play while locked: got %v", err)
	}

	h.now = time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	h.m.Refresh()
	h.mustPhase(t, PhaseIdle)
}

func TestMachine_EvaluationPassAdvances(t *testing.T) {
	videos := []catalog.Video{
		{ID: "f1", Title: "F1", Level: "6e", Skills: []string{"fractions"}, Questions: quiz("f1", 2)},
		{ID: "f2", Title: "F2", Level: "6e", Skills: []string{"fractions"}, Questions: quiz("f2", 2)},
		{ID: "g1", Title: "G1", Level: "6e", Skills: []string{"geometrie"}},
	}
	h := newHarness(t, videos, level.New("6e", ""))

	h.watchAndPass(t)
	h.sched.Advance(time.Second)
	if h.m.Current().ID != "f2" {
		t.Fatalf("current = %s, want f2", h.m.Current().ID)
	}

	h.watchAndPass(t)
	h.mustPhase(t, PhaseEvaluation)
	s := h.m.Snapshot()
	if s.EvaluationSkill != "fractions" || s.QuestionCount != 1 {
		t.Fatalf("evaluation %q with %d questions, want fractions with 1", s.EvaluationSkill, s.QuestionCount)
	}

	h.answerCorrect(t)
	h.sched.Advance(1200 * time.Millisecond)
	h.mustPhase(t, PhaseIdle)
	if h.m.Current().ID != "g1" {
		t.Errorf("current = %s, want g1", h.m.Current().ID)
	}
	if !h.m.deps.Evaluator.Passed("fractions") {
		t.Error("fractions should be marked passed")
	}
}

func TestMachine_EvaluationFailureReroutesToSource(t *testing.T) {
	videos := []catalog.Video{
		{ID: "f1", Level: "6e", Skills: []string{"fractions"}, Questions: quiz("f1", 1)},
		{ID: "f2", Level: "6e", Skills: []string{"fractions"}, Questions: quiz("f2", 1)},
		{ID: "g1", Level: "6e", Skills: []string{"geometrie"}},
	}
	h := newHarness(t, videos, level.New("6e", ""))

	h.watchAndPass(t)
	h.sched.Advance(time.Second)
	h.watchAndPass(t)
	h.mustPhase(t, PhaseEvaluation)

	missed := h.m.Snapshot().Question
	wantSource := "f1"
	if missed.ID == "f2-a" {
		wantSource = "f2"
	}
	if err := h.m.Submit("no"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	h.sched.Advance(1800 * time.Millisecond)
	h.mustPhase(t, PhaseIdle)
	if h.m.Current().ID != wantSource {
		t.Fatalf("rerouted to %s, want %s", h.m.Current().ID, wantSource)
	}
	if h.m.Completed().Len() != 2 {
		t.Error("completed set must never shrink")
	}

	// Rewatch, pass, and the evaluation fires again.
	h.watchAndPass(t)
	h.mustPhase(t, PhaseEvaluation)
	h.answerCorrect(t)
	h.sched.Advance(1200 * time.Millisecond)

	// Both fraction videos are seen, so the cursor lands on g1.
	h.mustPhase(t, PhaseIdle)
	if h.m.Current().ID != "g1" {
		t.Errorf("current = %s, want g1", h.m.Current().ID)
	}
}

func TestMachine_TelemetryOnFocusAndVideoEnd(t *testing.T) {
	videos := []catalog.Video{
		{ID: "v1", Title: "Un", Level: "6e", ReleaseMonths: []string{"mars"}},
		{ID: "v2", Title: "Deux", Level: "6e"},
	}
	h := newHarness(t, videos, level.New("6e", ""))

	if len(h.tel.viewing) != 1 || len(h.tel.finished) != 1 {
		t.Fatalf("start: %d viewing, %d finished events", len(h.tel.viewing), len(h.tel.finished))
	}
	want := notify.ViewingEvent{Level: "6e", Title: "Un", NextTitle: "Deux", StartMonth: "mars"}
	if h.tel.viewing[0] != want {
		t.Errorf("viewing = %+v, want %+v", h.tel.viewing[0], want)
	}

	_ = h.m.Play()
	_ = h.m.VideoEnded()
	// v1 has no quiz: its end event is followed by the focus on v2.
	if len(h.tel.viewing) != 3 || len(h.tel.finished) != 3 {
		t.Fatalf("video end: %d viewing, %d finished events", len(h.tel.viewing), len(h.tel.finished))
	}
	if h.tel.finished[1].Title != "Un" || h.tel.finished[1].NextTitle != "Deux" {
		t.Errorf("finished at video end = %+v", h.tel.finished[1])
	}

	last := h.tel.finished[len(h.tel.finished)-1]
	if last.Title != "Deux" || last.NextTitle != "" {
		t.Errorf("finished after focus change = %+v", last)
	}
}

func TestMachine_FocusJump(t *testing.T) {
	videos := []catalog.Video{
		{ID: "a", Level: "6e", Questions: quiz("a", 1)},
		{ID: "b", Level: "6e"},
	}
	h := newHarness(t, videos, level.New("6e", ""))

	if err := h.m.Focus("b"); err != nil {
		t.Fatalf("Focus: %v", err)
	}
	if h.m.Current().ID != "b" {
		t.Errorf("current = %s, want b", h.m.Current().ID)
	}
	if err := h.m.Focus("missing"); err == nil {
		t.Error("Focus on unknown ID should fail")
	}

	_ = h.m.Focus("a")
	_ = h.m.Play()
	_ = h.m.VideoEnded()
	if err := h.m.Focus("b"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Focus during quiz: got %v, want ErrInvalidTransition", err)
	}
}

func TestMachine_CloseCancelsTimers(t *testing.T) {
	videos := []catalog.Video{{ID: "v1", Level: "6e", Questions: quiz("v1", 1)}}
	h := newHarness(t, videos, level.New("6e", ""))
	_ = h.m.Play()
	_ = h.m.VideoEnded()
	h.answerCorrect(t)

	h.m.Close()
	if h.sched.Pending() != 0 {
		t.Errorf("%d timers pending after Close", h.sched.Pending())
	}
	h.sched.Advance(time.Minute)
	h.mustPhase(t, PhaseClosed)
	if h.m.Completed().Has("v1") {
		t.Error("cancelled feedback must not complete the video")
	}
	if err := h.m.Play(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Play after Close: got %v", err)
	}
}

func TestMachine_StaleCallbackIgnored(t *testing.T) {
	videos := []catalog.Video{{ID: "v1", Level: "6e", Questions: quiz("v1", 1)}}
	h := newHarness(t, videos, level.New("6e", ""))
	_ = h.m.Play()
	_ = h.m.VideoEnded()

	// Capture the tick callback, then leave the phase. A scheduler that
	// fires it anyway must not affect the machine.
	tick := h.sched.tasks[len(h.sched.tasks)-1].f
	h.m.Close()
	tick()
	h.mustPhase(t, PhaseClosed)
}

func TestMachine_NoContent(t *testing.T) {
	h := newHarness(t, nil, level.New("6e", ""))
	h.mustPhase(t, PhaseNoContent)
	if !h.m.Phase().Terminal() {
		t.Error("no-content should be terminal")
	}
	if err := h.m.Play(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Play with no content: got %v", err)
	}
}

func TestMachine_SkipsSeenEntriesOnAdvance(t *testing.T) {
	// Lower-level prerequisite is never skipped; same-level entries
	// already completed are.
	videos := []catalog.Video{
		{ID: "low", Level: "6e", Skills: []string{"base"}},
		{ID: "a", Level: "5e", Skills: []string{"x"}, Prerequisites: []string{"base"}},
		{ID: "b", Level: "5e", Skills: []string{"y"}},
	}
	h := newHarness(t, videos, level.New("5e", ""))
	if h.m.Current().ID != "low" {
		t.Fatalf("first = %s, want low", h.m.Current().ID)
	}

	_ = h.m.Focus("b")
	h.watchAndPass(t)
	h.sched.Advance(time.Second)
	h.mustPhase(t, PhaseCompleted)

	_ = h.m.Focus("a")
	h.watchAndPass(t)
	h.sched.Advance(time.Second)
	// b is seen, so the queue is exhausted again.
	h.mustPhase(t, PhaseCompleted)
	if h.nav.calls != 2 {
		t.Errorf("SubjectComplete calls = %d, want 2", h.nav.calls)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseAnswerWrong.String() != "answer-wrong" {
		t.Errorf("got %q", PhaseAnswerWrong.String())
	}
	if Phase(99).String() != "unknown" {
		t.Errorf("got %q", Phase(99).String())
	}
}
