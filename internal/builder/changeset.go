package builder

// ChangeSet is the ordered, de-duplicated set of files a run created or
// modified. It replaces any implicit "repo dirty" state: every operation
// that touches a file records it here, and the closing commit happens
// iff the set is non-empty.
type ChangeSet struct {
	seen  map[string]struct{}
	paths []string
}

func NewChangeSet() *ChangeSet {
	return &ChangeSet{seen: make(map[string]struct{})}
}

// Add records a touched path, keeping first-seen order.
func (c *ChangeSet) Add(path string) {
	if _, ok := c.seen[path]; ok {
		return
	}
	c.seen[path] = struct{}{}
	c.paths = append(c.paths, path)
}

// Paths returns the touched paths in first-seen order.
func (c *ChangeSet) Paths() []string {
	return append([]string(nil), c.paths...)
}

func (c *ChangeSet) Len() int    { return len(c.paths) }
func (c *ChangeSet) Empty() bool { return len(c.paths) == 0 }
