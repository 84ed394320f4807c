// Package pool implements fixed-capacity prefab pools. A pool pre-builds its members
// once from a template entity, then recycles them for the rest of the session: Acquire
// hands out an inactive member under a fresh handle version, Release parks it again.
// Nothing is allocated or destroyed after Init, which is the point.
package pool

import (
	"github.com/rotisserie/eris"

	"github.com/lodestar-engine/lodestar/ecs"
)

var (
	// ErrExhausted is returned by Acquire when every member of the pool is active.
	// Pools never grow; callers decide whether exhaustion is a drop or a fault.
	ErrExhausted = eris.New("pool has no free members")

	// ErrUnknownPool is returned when a pool name does not match any configured pool.
	ErrUnknownPool = eris.New("no pool with that name")

	// ErrNotMember is returned when releasing a handle the pool does not own.
	ErrNotMember = eris.New("entity is not an active member of this pool")
)

// Config describes one pool. Template builds the template entity whose components are
// stamped onto every member; the template itself is destroyed after Init.
type Config struct {
	Name     string
	Capacity int
	Template func(reg *ecs.Registry) (ecs.Handle, error)
}

func (c Config) validate() error {
	if c.Name == "" {
		return eris.New("pool config needs a name")
	}
	if c.Capacity < 1 {
		return eris.Errorf("pool %q needs a capacity of at least one", c.Name)
	}
	if c.Template == nil {
		return eris.Errorf("pool %q needs a template function", c.Name)
	}
	return nil
}

// pool tracks one pool's members, partitioned into active and inactive. The inactive
// side is a LIFO free list so recently released members are reused first, warm.
type pool struct {
	name     string
	capacity int
	inactive []ecs.Handle
	active   []ecs.Handle
}

func (p *pool) acquire(reg *ecs.Registry) (ecs.Handle, error) {
	if len(p.inactive) == 0 {
		return ecs.Handle{}, eris.Wrapf(ErrExhausted, "pool %q (capacity %d)", p.name, p.capacity)
	}

	last := len(p.inactive) - 1
	member := p.inactive[last]
	p.inactive = p.inactive[:last]

	// The fresh version makes every handle from the member's previous activation
	// stale before any hook can observe the new one.
	fresh, ok := reg.Refresh(member)
	if !ok {
		return ecs.Handle{}, eris.Errorf("pool %q member went missing", p.name)
	}

	reg.InvokeHooks(fresh, ecs.HookAcquire)
	reg.SetActive(fresh, true)
	p.active = append(p.active, fresh)
	return fresh, nil
}

func (p *pool) release(reg *ecs.Registry, h ecs.Handle) error {
	if !reg.Valid(h) {
		// Releasing a stale handle is a no-op, same as every other stale-handle
		// path in the engine.
		return nil
	}

	idx := -1
	for i, member := range p.active {
		if member == h {
			idx = i
			break
		}
	}
	if idx == -1 {
		return eris.Wrapf(ErrNotMember, "pool %q, entity %d", p.name, h.ID)
	}

	last := len(p.active) - 1
	p.active[idx] = p.active[last]
	p.active = p.active[:last]

	// Release hooks run while the member is still active, mirroring acquire hooks
	// running before activation.
	reg.InvokeHooks(h, ecs.HookRelease)
	reg.SetActive(h, false)
	p.inactive = append(p.inactive, h)
	return nil
}
