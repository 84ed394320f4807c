package ecs

import (
	"math"

	"github.com/kelindar/bitmap"
)

// EntityID is a dense, recyclable identifier for an entity.
type EntityID uint32

// Version tags an EntityID generation. A recycled id gets a bumped version, which
// invalidates every handle minted for the previous generation.
type Version uint32

// MaxEntityID is the maximum entity ID that can be created.
const MaxEntityID = math.MaxUint32 - 1

// Handle is the only safe cross-frame reference to an entity. A handle is valid iff the
// registry's live version for its id equals the handle's version. The zero Handle is
// never valid because live versions start at 1.
type Handle struct {
	ID      EntityID
	Version Version
}

// entityManager allocates and recycles entity ids. Freed ids are reused FIFO before the
// id space grows, and every reuse carries the version bumped at destroy time.
//
// The whole frame loop is single-threaded by contract, so there is no locking here; the
// deferred command/event buffers play the role a mutex would play in a concurrent design.
type entityManager struct {
	nextID   EntityID      // The next id to allocate if no free ids are available
	free     []EntityID    // FIFO queue of destroyed ids awaiting reuse
	versions []Version     // Live version per id, bumped on destroy and refresh
	alive    bitmap.Bitmap // Set of ids currently allocated
}

// newEntityManager creates a new entity manager.
func newEntityManager() entityManager {
	return entityManager{
		nextID:   0,
		free:     make([]EntityID, 0),
		versions: make([]Version, 0, sparseCapacity),
	}
}

// new returns a handle for a fresh or recycled entity id.
func (em *entityManager) new() (Handle, error) {
	var id EntityID
	if len(em.free) > 0 {
		id = em.free[0]
		em.free = em.free[1:]
	} else {
		id = em.nextID
		if id > MaxEntityID {
			return Handle{}, ErrEntityLimit
		}
		em.nextID++
	}

	for int(id) >= len(em.versions) {
		em.versions = append(em.versions, 0)
	}
	if em.versions[id] == 0 {
		em.versions[id] = 1
	}

	em.alive.Set(uint32(id))
	return Handle{ID: id, Version: em.versions[id]}, nil
}

// destroy releases an id back to the free list and bumps its version so stale handles
// can never resolve again. Returns false if the id is not alive.
func (em *entityManager) destroy(id EntityID) bool {
	if !em.alive.Contains(uint32(id)) {
		return false
	}

	em.alive.Remove(uint32(id))
	em.versions[id]++
	em.free = append(em.free, id)
	return true
}

// valid reports whether the handle still refers to the live generation of its id.
func (em *entityManager) valid(h Handle) bool {
	if h.Version == 0 || int(h.ID) >= len(em.versions) {
		return false
	}
	return em.alive.Contains(uint32(h.ID)) && em.versions[h.ID] == h.Version
}

// refresh bumps the version of a live entity and returns its new handle. Existing
// handles to the entity become stale. Used by pools so that a released-then-reacquired
// entity cannot be touched through handles from its previous activation.
func (em *entityManager) refresh(id EntityID) (Handle, bool) {
	if !em.alive.Contains(uint32(id)) {
		return Handle{}, false
	}
	em.versions[id]++
	return Handle{ID: id, Version: em.versions[id]}, true
}

// count returns the number of live entities.
func (em *entityManager) count() int {
	return em.alive.Count()
}
