package progression

// CompletedSet is the set of videos the learner has passed in this run.
// It only grows.
type CompletedSet struct {
	ids   map[string]bool
	order []string
}

// NewCompletedSet creates an empty set.
func NewCompletedSet() *CompletedSet {
	return &CompletedSet{ids: make(map[string]bool)}
}

// Add inserts id. Reports whether it was new.
func (c *CompletedSet) Add(id string) bool {
	if c.ids[id] {
		return false
	}
	c.ids[id] = true
	c.order = append(c.order, id)
	return true
}

// Has reports whether id has been completed.
func (c *CompletedSet) Has(id string) bool {
	return c.ids[id]
}

// Len returns the number of completed videos.
func (c *CompletedSet) Len() int {
	return len(c.order)
}

// IDs returns the completed IDs in completion order.
func (c *CompletedSet) IDs() []string {
	return append([]string(nil), c.order...)
}
