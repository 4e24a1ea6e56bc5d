package catalog

import (
	"github.com/abhisek/remediz/internal/fold"
	"github.com/abhisek/remediz/internal/level"
)

// Selection is the learner's choice of level, track and subject.
type Selection struct {
	Level   level.Level
	Subject string
}

// Select narrows a fetched catalog to a selection. It keeps videos of the
// chosen subject at the learner's stage whose track matches, plus every
// video reachable from those through first-match prerequisite lookups.
// Catalog order is preserved.
func Select(videos []Video, sel Selection) []Video {
	var pool []*Video
	for i := range videos {
		v := &videos[i]
		if sel.Subject != "" && !fold.Equal(v.Subject, sel.Subject) {
			continue
		}
		if sel.Level.SameStage(v.Level) && !sel.Level.Admits(v.Level) {
			continue
		}
		pool = append(pool, v)
	}

	keep := make(map[string]bool, len(pool))
	var stack []*Video
	for _, v := range pool {
		if sel.Level.SameStage(v.Level) && !keep[v.ID] {
			keep[v.ID] = true
			stack = append(stack, v)
		}
	}

	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, skill := range v.Prerequisites {
			src := FirstTeaching(pool, skill)
			if src == nil || keep[src.ID] {
				continue
			}
			keep[src.ID] = true
			stack = append(stack, src)
		}
	}

	out := make([]Video, 0, len(keep))
	for _, v := range pool {
		if keep[v.ID] {
			out = append(out, *v)
		}
	}
	return out
}

// FirstTeaching returns the first video in catalog order teaching skill,
// or nil if none does.
func FirstTeaching(videos []*Video, skill string) *Video {
	for _, v := range videos {
		if v.Teaches(skill) {
			return v
		}
	}
	return nil
}

// Subjects returns the distinct subjects of a catalog in first-seen order.
func Subjects(videos []Video) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range videos {
		key := fold.String(v.Subject)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v.Subject)
	}
	return out
}
