package level

import (
	"strings"

	"github.com/abhisek/remediz/internal/fold"
)

// Stage is an education stage (grade) in curriculum order.
type Stage string

const (
	Stage6e        Stage = "6e"
	Stage5e        Stage = "5e"
	Stage4e        Stage = "4e"
	Stage3e        Stage = "3e"
	StageSeconde   Stage = "2nde"
	StagePremiere  Stage = "1ère"
	StageTerminale Stage = "Terminale"
)

// AllStages returns all known stages in curriculum order.
func AllStages() []Stage {
	return []Stage{
		Stage6e,
		Stage5e,
		Stage4e,
		Stage3e,
		StageSeconde,
		StagePremiere,
		StageTerminale,
	}
}

// IsLycee reports whether the stage takes a series (track).
func (s Stage) IsLycee() bool {
	switch s {
	case StageSeconde, StagePremiere, StageTerminale:
		return true
	default:
		return false
	}
}

// Rank returns the stage's position in curriculum order, starting at 1.
// Unknown stages rank after every known stage.
func (s Stage) Rank() int {
	for i, known := range AllStages() {
		if known == s {
			return i + 1
		}
	}
	return len(AllStages()) + 1
}

// aliases maps folded spellings onto canonical stages.
var aliases = map[string]Stage{
	"6e":        Stage6e,
	"6eme":      Stage6e,
	"sixieme":   Stage6e,
	"5e":        Stage5e,
	"5eme":      Stage5e,
	"cinquieme": Stage5e,
	"4e":        Stage4e,
	"4eme":      Stage4e,
	"quatrieme": Stage4e,
	"3e":        Stage3e,
	"3eme":      Stage3e,
	"troisieme": Stage3e,
	"2nde":      StageSeconde,
	"2de":       StageSeconde,
	"seconde":   StageSeconde,
	"1ere":      StagePremiere,
	"1re":       StagePremiere,
	"premiere":  StagePremiere,
	"terminale": StageTerminale,
	"tle":       StageTerminale,
}

// ParseStage resolves a stage label to its canonical form. Unknown labels
// are returned unchanged (trimmed).
func ParseStage(label string) Stage {
	if s, ok := aliases[fold.String(label)]; ok {
		return s
	}
	return Stage(strings.TrimSpace(label))
}

// series and sub-series offered at lycée stages.
var (
	allSeries = []string{"A", "B", "C", "D", "E", "F", "G"}
	subSeries = map[string][]string{
		"A": {"A1", "A2"},
		"F": {"F1", "F2", "F3", "F4"},
		"G": {"G1", "G2", "G3"},
	}
)

// Series returns the lycée series in display order.
func Series() []string {
	return append([]string(nil), allSeries...)
}

// SubSeries returns the sub-series of a series, or nil if it has none.
func SubSeries(series string) []string {
	return append([]string(nil), subSeries[strings.ToUpper(strings.TrimSpace(series))]...)
}

// Tracks returns every selectable track for a stage: each series followed
// by its sub-series. Collège stages have no tracks.
func Tracks(s Stage) []string {
	if !s.IsLycee() {
		return nil
	}
	var tracks []string
	for _, series := range allSeries {
		tracks = append(tracks, series)
		tracks = append(tracks, subSeries[series]...)
	}
	return tracks
}
