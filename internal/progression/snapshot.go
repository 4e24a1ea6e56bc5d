package progression

import "github.com/abhisek/remediz/internal/catalog"

// Snapshot is a read-only view of the machine for renderers.
type Snapshot struct {
	Phase Phase
	Index int
	Total int

	Video *catalog.Video
	Next  *catalog.Video

	// UnlockHint is the release month shown on a locked video.
	UnlockHint string

	// Question is the question on screen, set in asking and feedback phases.
	Question       *catalog.Question
	QuestionNumber int // 1-based
	QuestionCount  int

	Remaining int
	Duration  int
	Warning   bool

	// EvaluationSkill is set while a notion evaluation is running.
	EvaluationSkill string

	// Missed is the question answered wrong, during PhaseAnswerWrong.
	Missed *catalog.Question

	Completed int
}

// Snapshot returns the current view.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		Phase:     m.phase,
		Index:     m.cursor,
		Completed: m.completed.Len(),
	}
	if m.deps.Queue == nil {
		return s
	}
	s.Total = m.deps.Queue.Len()
	s.Video = m.Current()
	s.Next = m.deps.Queue.At(m.cursor + 1)

	if m.phase == PhaseLocked && m.deps.Gate != nil && s.Video != nil {
		s.UnlockHint = m.deps.Gate.UnlockHint(s.Video)
	}

	switch m.phase {
	case PhaseQuiz, PhaseEvaluation, PhaseAnswerCorrect, PhaseAnswerWrong:
	default:
		return s
	}

	s.Question = m.question()
	s.Remaining = m.remaining
	s.Duration = m.duration
	s.Warning = m.Warning()
	if m.phase == PhaseAnswerWrong {
		s.Missed = m.lastWrong
	}
	if m.returnTo == PhaseEvaluation && len(m.evals) > 0 {
		sess := m.evals[0]
		s.EvaluationSkill = sess.Skill
		s.QuestionNumber = sess.Index + 1
		s.QuestionCount = len(sess.Questions)
	} else {
		s.QuestionNumber = m.qIndex + 1
		s.QuestionCount = len(m.questions)
	}
	return s
}
