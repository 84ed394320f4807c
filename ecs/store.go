package ecs

import (
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"

	"github.com/lodestar-engine/lodestar/codec"
	"github.com/lodestar-engine/lodestar/internal/assert"
)

// componentStore is the type-erased view of a store the registry uses when it has to
// walk every component of an entity (destroy, hook fan-out, cloning, debug dumps).
type componentStore interface {
	name() string
	count() int
	has(id EntityID) bool

	// removeFrom honors the type's remove guard; forceRemove bypasses it.
	removeFrom(id EntityID) bool
	forceRemove(id EntityID) bool

	implements(h Hook) bool
	invoke(h Hook, id EntityID)

	setEnabled(id EntityID, on bool) bool
	isEnabled(id EntityID) bool

	cloneTo(src, dst EntityID) (bool, error)
	encode(id EntityID) ([]byte, error)
	reserve(n int)
}

// store is the per-type sparse-set storage. Components live contiguously in dense;
// owners is the dense-to-entity back map and sparse the entity-to-row forward map.
// Removal is swap-and-pop, so dense iteration order is not stable across removals.
type store[T Component] struct {
	compName string
	sparse   sparseIndex
	dense    []T
	owners   []EntityID
	enabled  bitmap.Bitmap // Keyed by entity id, not dense row
	hooks    hooks[T]
}

func newStore[T Component](name string, h hooks[T]) *store[T] {
	return &store[T]{
		compName: name,
		sparse:   newSparseIndex(),
		dense:    make([]T, 0, sparseCapacity),
		owners:   make([]EntityID, 0, sparseCapacity),
		hooks:    h,
	}
}

func (s *store[T]) name() string { return s.compName }
func (s *store[T]) count() int   { return len(s.dense) }

func (s *store[T]) has(id EntityID) bool {
	_, ok := s.sparse.get(id)
	return ok
}

// insert attaches a component value to an entity. Components start enabled.
func (s *store[T]) insert(id EntityID, value T) (*T, error) {
	if _, ok := s.sparse.get(id); ok {
		return nil, eris.Wrapf(ErrDuplicateEntity, "component %q, entity %d", s.compName, id)
	}

	row := len(s.dense)
	s.dense = append(s.dense, value)
	s.owners = append(s.owners, id)
	s.sparse.set(id, row)
	s.enabled.Set(uint32(id))
	return &s.dense[row], nil
}

// get returns a pointer into dense storage. The pointer is invalidated by the next
// structural change to this store, so callers must not retain it across commit points.
func (s *store[T]) get(id EntityID) (*T, bool) {
	row, ok := s.sparse.get(id)
	if !ok {
		return nil, false
	}
	return &s.dense[row], true
}

func (s *store[T]) removeFrom(id EntityID) bool {
	row, ok := s.sparse.get(id)
	if !ok {
		return false
	}
	if s.hooks.guard != nil && !s.hooks.guard(&s.dense[row]) {
		return false
	}

	s.removeRow(row, id)
	return true
}

func (s *store[T]) forceRemove(id EntityID) bool {
	row, ok := s.sparse.get(id)
	if !ok {
		return false
	}

	s.removeRow(row, id)
	return true
}

// removeRow swaps the last dense element into the removed slot and pops. Only the moved
// element's sparse entry needs fixing up.
func (s *store[T]) removeRow(row int, id EntityID) {
	assert.That(s.owners[row] == id, "dense row owner must match the entity being removed")

	last := len(s.dense) - 1
	s.dense[row] = s.dense[last]
	s.owners[row] = s.owners[last]

	var zero T
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.owners = s.owners[:last]

	s.sparse.remove(id)
	s.enabled.Remove(uint32(id))
	if row != last {
		s.sparse.set(s.owners[row], row)
	}
}

func (s *store[T]) implements(h Hook) bool {
	return s.hooks.implemented[h]
}

func (s *store[T]) invoke(h Hook, id EntityID) {
	row, ok := s.sparse.get(id)
	if !ok {
		return
	}

	c := &s.dense[row]
	switch h {
	case HookAcquire:
		if s.hooks.acquire != nil {
			s.hooks.acquire(c)
		}
	case HookRelease:
		if s.hooks.release != nil {
			s.hooks.release(c)
		}
	case HookEnable:
		if s.hooks.enable != nil {
			s.hooks.enable(c)
		}
	case HookDisable:
		if s.hooks.disable != nil {
			s.hooks.disable(c)
		}
	case HookActivate:
		if s.hooks.activate != nil {
			s.hooks.activate(c)
		}
	case HookDeactivate:
		if s.hooks.deactivate != nil {
			s.hooks.deactivate(c)
		}
	}
}

// setEnabled toggles the per-component enabled bit and fires the matching hook on a real
// transition. Returns false if the entity lacks the component or the bit already has the
// requested value.
func (s *store[T]) setEnabled(id EntityID, on bool) bool {
	row, ok := s.sparse.get(id)
	if !ok {
		return false
	}
	if s.enabled.Contains(uint32(id)) == on {
		return false
	}

	if on {
		s.enabled.Set(uint32(id))
		if s.hooks.enable != nil {
			s.hooks.enable(&s.dense[row])
		}
	} else {
		s.enabled.Remove(uint32(id))
		if s.hooks.disable != nil {
			s.hooks.disable(&s.dense[row])
		}
	}
	return true
}

func (s *store[T]) isEnabled(id EntityID) bool {
	if _, ok := s.sparse.get(id); !ok {
		return false
	}
	return s.enabled.Contains(uint32(id))
}

// cloneTo copies src's component onto dst. Types with a clone hook get a deep copy of
// their choosing; everything else is copied by assignment.
func (s *store[T]) cloneTo(src, dst EntityID) (bool, error) {
	row, ok := s.sparse.get(src)
	if !ok {
		return false, nil
	}

	value := s.dense[row]
	if s.hooks.clone != nil {
		cloned, ok := s.hooks.clone(&s.dense[row]).(T)
		if !ok {
			return false, eris.Errorf("component %q OnClone returned a value of a different type", s.compName)
		}
		value = cloned
	}

	if _, err := s.insert(dst, value); err != nil {
		return false, err
	}
	return true, nil
}

func (s *store[T]) encode(id EntityID) ([]byte, error) {
	row, ok := s.sparse.get(id)
	if !ok {
		return nil, eris.Wrapf(ErrEntityNotFound, "component %q, entity %d", s.compName, id)
	}
	return codec.Encode(s.dense[row])
}

func (s *store[T]) reserve(n int) {
	s.sparse.grow(n)
	if cap(s.dense) < n {
		grown := make([]T, len(s.dense), n)
		copy(grown, s.dense)
		s.dense = grown

		grownOwners := make([]EntityID, len(s.owners), n)
		copy(grownOwners, s.owners)
		s.owners = grownOwners
	}
}
