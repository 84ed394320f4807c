package ecs

// Component is the interface implemented by all component types. Components are plain
// data attached to entities; behavior lives in systems and, optionally, in the
// lifecycle hooks below.
//
// Name must return a stable, unique string. It is the key the registry catalogs the
// type under, so renaming a component is a breaking change for anything that looks
// components up by name (debug dumps, pools).
type Component interface {
	Name() string
}

// The lifecycle hook interfaces are detected once per type, at registration. Implement
// them on the component's pointer type so the hook can mutate the stored value.

// Acquirer is invoked when a pooled entity carrying this component is acquired.
type Acquirer interface {
	OnAcquire()
}

// Releaser is invoked when a pooled entity carrying this component is released back to
// its pool.
type Releaser interface {
	OnRelease()
}

// RemoveGuard lets a component veto its own removal. OnRemove returning false cancels
// the removal and the component stays attached. Destroying the entity outright bypasses
// the guard.
type RemoveGuard interface {
	OnRemove() bool
}

// Enabler is invoked when the component transitions from disabled to enabled. A type
// implementing Enabler must also implement Disabler; registration fails otherwise.
type Enabler interface {
	OnEnable()
}

// Disabler is invoked when the component transitions from enabled to disabled. A type
// implementing Disabler must also implement Enabler; registration fails otherwise.
type Disabler interface {
	OnDisable()
}

// Activator is invoked when the owning entity transitions from inactive to active. A
// type implementing Activator must also implement Deactivator; registration fails
// otherwise.
type Activator interface {
	OnActivate()
}

// Deactivator is invoked when the owning entity transitions from active to inactive. A
// type implementing Deactivator must also implement Activator; registration fails
// otherwise.
type Deactivator interface {
	OnDeactivate()
}

// Cloner customizes how a component is copied when a pool stamps its template onto pool
// members. Types without Cloner are copied by plain assignment, which shares any
// reference fields with the template.
type Cloner interface {
	OnClone() Component
}
