package level

import (
	"strings"

	"github.com/abhisek/remediz/internal/fold"
)

// Level is a parsed level label such as "6e" or "2nde C".
type Level struct {
	Stage Stage
	Track string
}

// Parse splits a level label into stage and optional track.
// "2nde C" parses to {2nde, C}; "6e" parses to {6e, ""}.
func Parse(label string) Level {
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return Level{}
	}
	l := Level{Stage: ParseStage(fields[0])}
	if len(fields) > 1 {
		l.Track = strings.ToUpper(strings.Join(fields[1:], " "))
	}
	return l
}

// New builds a learner level from a stage label and optional track.
// Collège stages never carry a track.
func New(stage, track string) Level {
	l := Level{Stage: ParseStage(stage)}
	if l.Stage.IsLycee() {
		l.Track = strings.ToUpper(strings.TrimSpace(track))
	}
	return l
}

// String renders the level label.
func (l Level) String() string {
	if l.Track == "" {
		return string(l.Stage)
	}
	return string(l.Stage) + " " + l.Track
}

// IsZero reports whether the level is unset.
func (l Level) IsZero() bool {
	return l.Stage == ""
}

// SameStage reports whether label designates the same stage as l,
// ignoring any track suffix.
func (l Level) SameStage(label string) bool {
	other := Parse(label)
	return fold.Equal(string(other.Stage), string(l.Stage))
}

// Admits reports whether a video labelled videoLabel belongs to the
// learner's level and track. Collège stages ignore tracks. At lycée a video
// without a track, a video on the learner's own track, or a video on the
// parent series of the learner's sub-series is admitted.
func (l Level) Admits(videoLabel string) bool {
	if !l.SameStage(videoLabel) {
		return false
	}
	if !l.Stage.IsLycee() || l.Track == "" {
		return true
	}
	v := Parse(videoLabel)
	if v.Track == "" || strings.EqualFold(v.Track, l.Track) {
		return true
	}
	for _, sub := range subSeries[v.Track] {
		if strings.EqualFold(sub, l.Track) {
			return true
		}
	}
	return false
}

// Rank returns the curriculum rank of a level label.
func Rank(label string) int {
	return Parse(label).Stage.Rank()
}

// Less orders level labels by curriculum rank, breaking ties (unknown
// stages, tracks within a stage) by folded label.
func Less(a, b string) bool {
	ra, rb := Rank(a), Rank(b)
	if ra != rb {
		return ra < rb
	}
	return fold.String(a) < fold.String(b)
}
