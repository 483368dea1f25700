package builder

import (
	"slices"
	"testing"
)

func TestChangeSet(t *testing.T) {
	cs := NewChangeSet()
	if !cs.Empty() {
		t.Error("new set should be empty")
	}

	cs.Add("b.csv")
	cs.Add("a.yaml")
	cs.Add("b.csv") // duplicate

	if cs.Len() != 2 {
		t.Fatalf("len: got %d, want 2", cs.Len())
	}
	if !slices.Equal(cs.Paths(), []string{"b.csv", "a.yaml"}) {
		t.Errorf("paths must keep first-seen order, got %v", cs.Paths())
	}
	if cs.Empty() {
		t.Error("set with entries is not empty")
	}
}
