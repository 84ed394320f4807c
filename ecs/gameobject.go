package ecs

// GameObject is a thin convenience wrapper pairing a handle with its registry. It adds
// no state of its own; every method resolves through the handle, so a stale GameObject
// degrades to no-ops exactly like a stale handle does.
type GameObject struct {
	handle Handle
	reg    *Registry
}

// Object wraps a handle for method-style access.
func (r *Registry) Object(h Handle) GameObject {
	return GameObject{handle: h, reg: r}
}

func (g GameObject) Handle() Handle      { return g.handle }
func (g GameObject) Registry() *Registry { return g.reg }

// Valid reports whether the wrapped handle still resolves.
func (g GameObject) Valid() bool {
	return g.reg != nil && g.reg.Valid(g.handle)
}

// Active reports whether the entity carries the active tag.
func (g GameObject) Active() bool {
	return g.reg != nil && g.reg.IsActive(g.handle)
}

// Activate tags the entity active, firing activate hooks on a real transition.
func (g GameObject) Activate() bool {
	return g.reg != nil && g.reg.SetActive(g.handle, true)
}

// Deactivate clears the active tag, firing deactivate hooks on a real transition.
func (g GameObject) Deactivate() bool {
	return g.reg != nil && g.reg.SetActive(g.handle, false)
}

// Destroy removes every component and releases the entity.
func (g GameObject) Destroy() bool {
	return g.reg != nil && g.reg.Destroy(g.handle)
}

// Components returns the names of the entity's components in registration order.
func (g GameObject) Components() []string {
	if g.reg == nil {
		return nil
	}
	return g.reg.ComponentNames(g.handle)
}
