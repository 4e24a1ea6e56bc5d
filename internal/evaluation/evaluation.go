// Package evaluation synthesizes cross-video notion assessments once every
// video teaching a skill has been completed.
package evaluation

import (
	"math/rand"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/queue"
)

// Completed is the read side of the learner's completed-video set.
type Completed interface {
	Has(id string) bool
}

// Session is one pending or running notion evaluation.
type Session struct {
	Skill     string
	Questions []catalog.Question

	// Sources are the videos the questions were drawn from, in queue order.
	Sources []*catalog.Video

	// Index is the position of the current question.
	Index int
}

// Current returns the question being asked, or nil once all are answered.
func (s *Session) Current() *catalog.Question {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.Index]
}

// Advance moves to the next question. Reports whether one remains.
func (s *Session) Advance() bool {
	s.Index++
	return s.Index < len(s.Questions)
}

// SourceOf returns the first source video carrying the question, or nil.
func (s *Session) SourceOf(questionID string) *catalog.Video {
	for _, v := range s.Sources {
		if v.HasQuestion(questionID) {
			return v
		}
	}
	return nil
}

// SampleSize returns how many of n pooled questions an evaluation asks.
func SampleSize(n int) int {
	if n <= 0 {
		return 0
	}
	return max(1, n/4)
}

// Scheduler decides when a notion evaluation is due and builds it.
type Scheduler struct {
	rng    *rand.Rand
	passed map[string]bool
	order  []string
}

// NewScheduler creates a Scheduler drawing samples from rng.
func NewScheduler(rng *rand.Rand) *Scheduler {
	return &Scheduler{rng: rng, passed: make(map[string]bool)}
}

// OnCompleted is called after video completes. For each skill it teaches,
// if every target-level queue video teaching that skill is in completed
// and the skill has not passed an evaluation yet, a Session is built.
// Videos outside the learner's stage never trigger evaluations.
func (s *Scheduler) OnCompleted(video *catalog.Video, q *queue.Queue, completed Completed) []*Session {
	if !q.AtLevel(video) {
		return nil
	}

	var sessions []*Session
	for _, skill := range video.Skills {
		if s.passed[skill] || s.pending(sessions, skill) {
			continue
		}
		sources := q.VideosForNotion(skill)
		if !allCompleted(sources, completed) {
			continue
		}
		if sess := s.build(skill, sources); sess != nil {
			sessions = append(sessions, sess)
		}
	}
	return sessions
}

// MarkPassed records that the learner passed the evaluation for skill.
func (s *Scheduler) MarkPassed(skill string) {
	if s.passed[skill] {
		return
	}
	s.passed[skill] = true
	s.order = append(s.order, skill)
}

// PassedSkills returns the passed skills in the order they were passed.
func (s *Scheduler) PassedSkills() []string {
	return append([]string(nil), s.order...)
}

// Passed reports whether skill's evaluation has been passed.
func (s *Scheduler) Passed(skill string) bool {
	return s.passed[skill]
}

func (s *Scheduler) build(skill string, sources []*catalog.Video) *Session {
	var pool []catalog.Question
	for _, v := range sources {
		pool = append(pool, v.Questions...)
	}
	n := SampleSize(len(pool))
	if n == 0 {
		return nil
	}
	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return &Session{
		Skill:     skill,
		Questions: catalog.ShuffleQuestions(s.rng, pool[:n]),
		Sources:   sources,
	}
}

func (s *Scheduler) pending(sessions []*Session, skill string) bool {
	for _, sess := range sessions {
		if sess.Skill == skill {
			return true
		}
	}
	return false
}

func allCompleted(videos []*catalog.Video, completed Completed) bool {
	if len(videos) == 0 {
		return false
	}
	for _, v := range videos {
		if !completed.Has(v.ID) {
			return false
		}
	}
	return true
}
