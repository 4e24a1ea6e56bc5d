package progression

// Phase is the single state variable of the Machine.
type Phase int

const (
	PhaseLocked        Phase = iota // Focused video is calendar-gated
	PhaseIdle                       // Focused video ready to play
	PhasePlaying                    // Waiting for the playback surface to report the end
	PhaseQuiz                       // Asking the focused video's questions
	PhaseAnswerCorrect              // Showing correct-answer feedback
	PhaseAnswerWrong                // Showing wrong-answer feedback
	PhaseEvaluation                 // Asking a notion evaluation question
	PhaseCompleted                  // Queue exhausted
	PhaseNoContent                  // Queue empty
	PhaseClosed                     // Torn down; events are ignored
)

var phaseNames = [...]string{
	PhaseLocked:        "locked",
	PhaseIdle:          "idle",
	PhasePlaying:       "playing",
	PhaseQuiz:          "quiz",
	PhaseAnswerCorrect: "answer-correct",
	PhaseAnswerWrong:   "answer-wrong",
	PhaseEvaluation:    "evaluation",
	PhaseCompleted:     "completed",
	PhaseNoContent:     "no-content",
	PhaseClosed:        "closed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Terminal reports whether no further learner action is expected.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseNoContent || p == PhaseClosed
}

// Asking reports whether a question is on screen and accepts answers.
func (p Phase) Asking() bool {
	return p == PhaseQuiz || p == PhaseEvaluation
}
