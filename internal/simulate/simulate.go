// Package simulate runs a progression headlessly on a virtual clock with a
// scripted learner.
package simulate

import (
	"math/rand"
	"time"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/eventloop"
	"github.com/abhisek/remediz/internal/gate"
	"github.com/abhisek/remediz/internal/logger"
	"github.com/abhisek/remediz/internal/progression"
	"github.com/abhisek/remediz/internal/queue"
)

// Options configures the scripted learner.
type Options struct {
	// Accuracy is the probability of answering a question correctly.
	Accuracy float64

	// WatchTime is how long each video plays. ThinkTime is the delay
	// before each answer.
	WatchTime time.Duration
	ThinkTime time.Duration

	// Start is the virtual clock's origin; its month drives the gate.
	Start time.Time

	// Limit caps virtual time so a learner who never passes still stops.
	Limit time.Duration

	Seed int64
}

// DefaultOptions returns a diligent learner starting now.
func DefaultOptions() Options {
	return Options{
		Accuracy:  0.8,
		WatchTime: 4 * time.Minute,
		ThinkTime: 8 * time.Second,
		Start:     time.Now(),
		Limit:     12 * time.Hour,
		Seed:      1,
	}
}

// Step is one recorded phase change.
type Step struct {
	At      time.Duration
	From    progression.Phase
	To      progression.Phase
	Index   int
	VideoID string
	Title   string
}

// Result summarises a run.
type Result struct {
	Steps     []Step
	Final     progression.Phase
	Completed []string
	Answers   int
	Correct   int
	Elapsed   time.Duration
}

// Run plays q to the end, or until the learner gives up on a locked tail
// or the virtual limit is reached.
func Run(q *queue.Queue, g *gate.Gate, tel progression.Telemetry, cfg progression.Config, opts Options, log *logger.Logger) Result {
	if log == nil {
		log = logger.Nop()
	}
	loop := eventloop.NewVirtual(opts.Start)
	rng := rand.New(rand.NewSource(opts.Seed))

	var (
		res Result
		m   *progression.Machine
	)
	learner := &learner{loop: loop, rng: rng, opts: opts, res: &res}

	m = progression.New(progression.Deps{
		Queue:     q,
		Gate:      g,
		Scheduler: loop,
		Telemetry: tel,
		Rand:      rng,
		Now:       loop.Now,
		Log:       log,
		Config:    cfg,
		OnTransition: func(t progression.Transition) {
			step := Step{At: t.At.Sub(opts.Start), From: t.From, To: t.To, Index: t.Index}
			if t.Video != nil {
				step.VideoID = t.Video.ID
				step.Title = t.Video.Title
			}
			res.Steps = append(res.Steps, step)
			learner.react(t)
		},
	})
	learner.m = m

	m.Start()
	loop.RunVirtual(opts.Limit)
	res.Final = m.Phase()
	m.Close()

	res.Completed = m.Completed().IDs()
	res.Elapsed = loop.Now().Sub(opts.Start)
	log.Info("simulation finished", "final", res.Final.String(), "completed", len(res.Completed), "elapsed", res.Elapsed.String())
	return res
}

type learner struct {
	m    *progression.Machine
	loop *eventloop.Loop
	rng  *rand.Rand
	opts Options
	res  *Result
}

// react runs inside a machine transition, so every action is posted or
// scheduled instead of called directly.
func (l *learner) react(t progression.Transition) {
	m := l.m
	switch t.To {
	case progression.PhaseIdle:
		l.loop.Post(func() { _ = m.Play() })
	case progression.PhasePlaying:
		l.loop.Schedule(l.opts.WatchTime, func() { _ = m.VideoEnded() })
	case progression.PhaseQuiz, progression.PhaseEvaluation:
		q := m.Snapshot().Question
		if q == nil {
			return
		}
		l.loop.Schedule(l.opts.ThinkTime, func() { l.answer(q) })
	case progression.PhaseLocked:
		l.loop.Post(l.skipLocked)
	case progression.PhaseCompleted, progression.PhaseNoContent:
		l.loop.Stop()
	}
}

func (l *learner) answer(q *catalog.Question) {
	s := l.m.Snapshot()
	if !s.Phase.Asking() || s.Question == nil || s.Question.ID != q.ID {
		// Timed out, or the machine moved on.
		return
	}
	choice := q.Correct
	if l.rng.Float64() >= l.opts.Accuracy {
		choice = wrongChoice(q)
	}
	l.res.Answers++
	if choice == q.Correct {
		l.res.Correct++
	}
	_ = l.m.Submit(choice)
}

// skipLocked moves past a calendar-locked video. A locked last entry
// ends the run.
func (l *learner) skipLocked() {
	if l.m.Phase() != progression.PhaseLocked {
		return
	}
	next := l.m.Snapshot().Next
	if next == nil {
		l.loop.Stop()
		return
	}
	_ = l.m.Focus(next.ID)
}

func wrongChoice(q *catalog.Question) string {
	for _, c := range q.Choices {
		if c != q.Correct {
			return c
		}
	}
	return ""
}
