package queue

import (
	"fmt"
	"strings"

	"github.com/abhisek/remediz/internal/catalog"
)

// Report is the outcome of a whole-catalog check.
type Report struct {
	// Errors make the catalog unusable for queue building or quizzes.
	Errors []string

	// Warnings are tolerated at runtime (missing prerequisite sources,
	// unplayable URLs) but usually indicate bad data.
	Warnings []string
}

// Err combines the report's errors, or returns nil if there are none.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("catalog validation failed:\n  %s", strings.Join(r.Errors, "\n  "))
}

// Validate performs structural checks on a catalog. Prerequisite edges are
// resolved with the same first-match policy the resolver uses.
func Validate(videos []catalog.Video) *Report {
	r := &Report{}

	all := make([]*catalog.Video, len(videos))
	idSet := make(map[string]bool, len(videos))
	for i := range videos {
		v := &videos[i]
		all[i] = v
		if idSet[v.ID] {
			r.Errors = append(r.Errors, fmt.Sprintf("duplicate video ID: %q", v.ID))
		}
		idSet[v.ID] = true
	}

	for _, v := range all {
		if !v.Playable() {
			r.Warnings = append(r.Warnings, fmt.Sprintf("video %q has no playable URL", v.ID))
		}
		for _, q := range v.Questions {
			if !containsChoice(q.Choices, q.Correct) {
				r.Errors = append(r.Errors, fmt.Sprintf("video %q question %q: correct answer %q is not a choice", v.ID, q.ID, q.Correct))
			}
		}
	}

	// Build video edges: source -> dependent.
	inDegree := make(map[string]int, len(all))
	adjList := make(map[string][]string)
	for _, v := range all {
		if _, ok := inDegree[v.ID]; !ok {
			inDegree[v.ID] = 0
		}
		for _, skill := range v.Prerequisites {
			src := catalog.FirstTeaching(all, skill)
			if src == nil {
				r.Warnings = append(r.Warnings, fmt.Sprintf("video %q: no video teaches prerequisite %q", v.ID, skill))
				continue
			}
			if src.ID == v.ID {
				continue
			}
			inDegree[v.ID]++
			adjList[src.ID] = append(adjList[src.ID], v.ID)
		}
	}

	// Kahn's algorithm.
	var ready []string
	for _, v := range all {
		if inDegree[v.ID] == 0 {
			ready = append(ready, v.ID)
			inDegree[v.ID] = -1
		}
	}
	visited := 0
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		visited++
		for _, depID := range adjList[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				ready = append(ready, depID)
				inDegree[depID] = -1
			}
		}
	}

	if visited < len(inDegree) {
		var cycleNodes []string
		for _, v := range all {
			if inDegree[v.ID] > 0 {
				cycleNodes = append(cycleNodes, v.ID)
				inDegree[v.ID] = -1
			}
		}
		r.Errors = append(r.Errors, fmt.Sprintf("cycle detected involving videos: %s", strings.Join(cycleNodes, ", ")))
	}

	return r
}

func containsChoice(choices []string, answer string) bool {
	for _, c := range choices {
		if c == answer {
			return true
		}
	}
	return false
}
