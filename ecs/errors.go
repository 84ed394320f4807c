package ecs

import "github.com/rotisserie/eris"

var (
	// ErrInvalidHandle is returned when a handle's version no longer matches the live
	// entity. This is an expected outcome for cross-frame references, not a fault.
	ErrInvalidHandle = eris.New("entity handle is stale or invalid")

	// ErrDuplicateEntity is returned when a component is added to an entity that
	// already has one of that type.
	ErrDuplicateEntity = eris.New("entity already has this component")

	// ErrNotRegistered is returned when operating on a component type that was never
	// registered with the registry.
	ErrNotRegistered = eris.New("component type is not registered")

	// ErrEntityNotFound is returned when an entity id has no entry in a store.
	ErrEntityNotFound = eris.New("entity does not exist")

	// ErrEntityLimit is returned when the entity id space is exhausted.
	ErrEntityLimit = eris.New("max number of entities exceeded")
)
