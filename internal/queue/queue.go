// Package queue builds the ordered learning queue for a learner level.
package queue

import (
	"sort"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/level"
)

// Queue is an ordered sequence of videos, unique by ID.
type Queue struct {
	target level.Level
	videos []*catalog.Video
	index  map[string]int
}

// NotionGroup is the set of target-level videos teaching one skill.
type NotionGroup struct {
	Skill  string
	Videos []*catalog.Video
}

func newQueue(target level.Level, capacity int) *Queue {
	return &Queue{
		target: target,
		videos: make([]*catalog.Video, 0, capacity),
		index:  make(map[string]int, capacity),
	}
}

// add appends v unless it is already present. Reports whether v was added.
func (q *Queue) add(v *catalog.Video) bool {
	if _, ok := q.index[v.ID]; ok {
		return false
	}
	q.index[v.ID] = len(q.videos)
	q.videos = append(q.videos, v)
	return true
}

// Target returns the learner level the queue was built for.
func (q *Queue) Target() level.Level { return q.target }

// Len returns the number of videos in the queue.
func (q *Queue) Len() int { return len(q.videos) }

// At returns the video at index i, or nil if out of range.
func (q *Queue) At(i int) *catalog.Video {
	if i < 0 || i >= len(q.videos) {
		return nil
	}
	return q.videos[i]
}

// Index returns the position of the video with the given ID, or -1.
func (q *Queue) Index(id string) int {
	if i, ok := q.index[id]; ok {
		return i
	}
	return -1
}

// Videos returns a copy of the queue order.
func (q *Queue) Videos() []*catalog.Video {
	out := make([]*catalog.Video, len(q.videos))
	copy(out, q.videos)
	return out
}

// AtLevel reports whether v belongs to the learner's stage.
func (q *Queue) AtLevel(v *catalog.Video) bool {
	return q.target.SameStage(v.Level)
}

// VideosForNotion returns the target-level videos teaching skill, in
// queue order.
func (q *Queue) VideosForNotion(skill string) []*catalog.Video {
	var out []*catalog.Video
	for _, v := range q.videos {
		if q.AtLevel(v) && v.Teaches(skill) {
			out = append(out, v)
		}
	}
	return out
}

// NotionGroups groups target-level videos by skill. Groups appear in the
// order their skill is first met; a video teaching several skills appears
// in each group.
func (q *Queue) NotionGroups() []NotionGroup {
	var groups []NotionGroup
	pos := make(map[string]int)
	for _, v := range q.videos {
		if !q.AtLevel(v) {
			continue
		}
		for _, skill := range v.Skills {
			i, ok := pos[skill]
			if !ok {
				i = len(groups)
				pos[skill] = i
				groups = append(groups, NotionGroup{Skill: skill})
			}
			groups[i].Videos = append(groups[i].Videos, v)
		}
	}
	return groups
}

// Build orders the catalog into a learning queue for target.
//
// Videos are visited by level rank. Each video is preceded by its resolved
// prerequisites, and a target-level video is followed by the other
// target-level videos sharing one of its skills, each behind its own
// prerequisites. Build fails only on a prerequisite cycle.
func Build(videos []catalog.Video, target level.Level) (*Queue, error) {
	all := make([]*catalog.Video, len(videos))
	for i := range videos {
		all[i] = &videos[i]
	}

	sorted := make([]*catalog.Video, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return level.Rank(sorted[i].Level) < level.Rank(sorted[j].Level)
	})

	r := NewResolver(all, target)
	q := newQueue(target, len(all))
	seenAtLevel := make(map[string]bool)
	place := func(v *catalog.Video) {
		if q.add(v) && q.AtLevel(v) {
			seenAtLevel[v.ID] = true
		}
	}

	for _, v := range sorted {
		deps, err := r.Expand(v, seenAtLevel)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			place(d)
		}
		place(v)

		if !q.AtLevel(v) {
			continue
		}
		for _, sib := range all {
			if sib.ID == v.ID || !q.AtLevel(sib) || !v.SharesSkill(sib) || q.Index(sib.ID) >= 0 {
				continue
			}
			deps, err := r.Expand(sib, seenAtLevel)
			if err != nil {
				return nil, err
			}
			for _, d := range deps {
				place(d)
			}
			place(sib)
		}
	}
	return q, nil
}
