package ecs

import "github.com/lodestar-engine/lodestar/internal/assert"

// sparseIndex maps entity ids to dense rows. A tombstone marks ids that have no row; it
// is deliberately not zero so that row 0 stays a valid dense index.
type sparseIndex []int

const sparseCapacity = 128
const sparseTombstone = -1

// newSparseIndex creates a new sparse index.
func newSparseIndex() sparseIndex {
	s := make(sparseIndex, sparseCapacity)
	for i := range sparseCapacity {
		s[i] = sparseTombstone
	}
	return s
}

// get returns the row for an id and whether it exists.
func (s *sparseIndex) get(key EntityID) (int, bool) {
	if int(key) >= len(*s) {
		return 0, false
	}

	value := (*s)[key]
	if value == sparseTombstone {
		return 0, false
	}

	return value, true
}

// set stores a row for an id, growing the backing slice if needed.
func (s *sparseIndex) set(key EntityID, value int) {
	assert.That(value >= 0, "value must be a non-negative row index")

	s.grow(int(key) + 1)
	(*s)[key] = value
}

// grow extends the backing slice so that ids below n are addressable without further
// allocation. Growth doubles the slice or jumps straight to n, whichever is larger.
func (s *sparseIndex) grow(n int) {
	if n <= len(*s) {
		return
	}

	oldLen := len(*s)
	newLen := max(oldLen*2, n)

	newSlice := make(sparseIndex, newLen)
	copy(newSlice, *s)
	for i := oldLen; i < newLen; i++ {
		newSlice[i] = sparseTombstone
	}
	*s = newSlice
}

// remove sets an id's row to tombstone. Returns true if the id existed.
func (s *sparseIndex) remove(key EntityID) bool {
	if int(key) >= len(*s) {
		return false
	}

	if (*s)[key] == sparseTombstone {
		return false
	}

	(*s)[key] = sparseTombstone
	return true
}
