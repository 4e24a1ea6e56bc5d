// Package gate decides whether a queue entry can be played yet.
package gate

import (
	"time"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/fold"
	"github.com/abhisek/remediz/internal/level"
)

// monthNames are the French month names used in catalog release months.
var monthNames = [12]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// MonthName returns the French name of t's month, in lower case.
func MonthName(t time.Time) string {
	return monthNames[t.Month()-1]
}

// Completed is the read side of the learner's completed-video set.
type Completed interface {
	Has(id string) bool
}

// Gate applies the calendar release policy for one learner level.
type Gate struct {
	Learner level.Level
}

// New creates a Gate for the learner's level.
func New(learner level.Level) *Gate {
	return &Gate{Learner: learner}
}

// IsUnlocked reports whether v may be played in month. A video is unlocked
// when it is already completed, belongs to another stage (imported
// prerequisite content is never gated), has no release months, or lists
// month among them. Month comparison ignores case and diacritics.
func (g *Gate) IsUnlocked(v *catalog.Video, completed Completed, month string) bool {
	if completed != nil && completed.Has(v.ID) {
		return true
	}
	if !g.Learner.SameStage(v.Level) {
		return true
	}
	if len(v.ReleaseMonths) == 0 {
		return true
	}
	return fold.Contains(v.ReleaseMonths, month)
}

// UnlockHint returns the month to show on a locked video: its first
// configured release month.
func (g *Gate) UnlockHint(v *catalog.Video) string {
	return v.FirstReleaseMonth()
}
