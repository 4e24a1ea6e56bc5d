package queue

import (
	"fmt"
	"strings"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/level"
)

// CycleError reports a prerequisite chain that leads back to a video
// already being expanded.
type CycleError struct {
	// Path lists video IDs from the first repeated video back to itself.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("prerequisite cycle: %s", strings.Join(e.Path, " -> "))
}

// Resolver expands a video's prerequisite skills into the videos that
// teach them, bounded to a target level.
type Resolver struct {
	catalog []*catalog.Video
	target  level.Level
}

// NewResolver creates a Resolver over the catalog in its original order.
// Catalog order decides which video is the source of a skill when several
// teach it.
func NewResolver(videos []*catalog.Video, target level.Level) *Resolver {
	return &Resolver{catalog: videos, target: target}
}

// Source returns the first catalog video teaching skill, or nil.
func (r *Resolver) Source(skill string) *catalog.Video {
	return catalog.FirstTeaching(r.catalog, skill)
}

// Expand returns the dependency videos of v in the order they must be
// watched. Every source is expanded recursively so its own chain precedes
// it; target-level sources are emitted once across calls sharing
// seenAtLevel. Skills no catalog video teaches are skipped.
func (r *Resolver) Expand(v *catalog.Video, seenAtLevel map[string]bool) ([]*catalog.Video, error) {
	path := []string{v.ID}
	onPath := map[string]bool{v.ID: true}
	return r.expand(v, seenAtLevel, path, onPath)
}

func (r *Resolver) expand(v *catalog.Video, seen map[string]bool, path []string, onPath map[string]bool) ([]*catalog.Video, error) {
	var result []*catalog.Video
	inResult := make(map[string]bool)
	emit := func(d *catalog.Video) {
		if !inResult[d.ID] {
			inResult[d.ID] = true
			result = append(result, d)
		}
	}

	for _, skill := range v.Prerequisites {
		src := r.Source(skill)
		if src == nil || src.ID == v.ID {
			continue
		}
		if onPath[src.ID] {
			return nil, &CycleError{Path: cyclePath(path, src.ID)}
		}

		if r.target.SameStage(src.Level) {
			if seen[src.ID] {
				continue
			}
			seen[src.ID] = true
		}

		onPath[src.ID] = true
		sub, err := r.expand(src, seen, append(path, src.ID), onPath)
		delete(onPath, src.ID)
		if err != nil {
			return nil, err
		}
		// Target-level entries in sub were marked by the nested call.
		for _, d := range sub {
			emit(d)
		}
		emit(src)
	}
	return result, nil
}

// cyclePath trims path to start at id and closes the loop.
func cyclePath(path []string, id string) []string {
	for i, p := range path {
		if p == id {
			out := append([]string(nil), path[i:]...)
			return append(out, id)
		}
	}
	return append(append([]string(nil), path...), id)
}
