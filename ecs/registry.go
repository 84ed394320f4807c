package ecs

import (
	"reflect"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

type componentID int

// Registry owns every entity and every per-type component store. It is the single
// source of truth for structural state; systems read and write through it directly, and
// everything deferred (commands, pool requests) resolves against it at flush time.
//
// The registry is not safe for concurrent use. The frame loop drives it from one
// goroutine and concurrency is pushed to the buffers around it.
type Registry struct {
	entities entityManager

	catalog map[string]componentID
	types   map[reflect.Type]componentID
	stores  []componentStore

	compCount []uint16      // Live component count per entity id
	active    bitmap.Bitmap // Entity-level active tag, keyed by id
	locked    bitmap.Bitmap // Entities owned by a pool, immune to destroy and removal
}

// NewRegistry creates an empty registry. Component types must be registered before the
// first entity is created.
func NewRegistry() *Registry {
	return &Registry{
		entities:  newEntityManager(),
		catalog:   make(map[string]componentID),
		types:     make(map[reflect.Type]componentID),
		stores:    make([]componentStore, 0),
		compCount: make([]uint16, 0, sparseCapacity),
	}
}

// Register catalogs a component type, detecting its lifecycle hooks once. Registering
// the same type twice is a no-op; registering a different type under an already used
// name is an error, as is registering anything after the first entity exists.
func Register[T Component](r *Registry) error {
	var zero T
	name := zero.Name()
	typ := reflect.TypeFor[T]()

	if id, ok := r.catalog[name]; ok {
		if existing, ok := r.types[typ]; ok && existing == id {
			return nil
		}
		return eris.Errorf("component name %q is already registered to a different type", name)
	}

	if r.entities.count() > 0 || r.entities.nextID > 0 {
		return eris.Errorf("component %q must be registered before any entity is created", name)
	}

	h, err := detectHooks[T](name)
	if err != nil {
		return err
	}

	id := componentID(len(r.stores))
	r.stores = append(r.stores, newStore[T](name, h))
	r.catalog[name] = id
	r.types[typ] = id
	return nil
}

// Create allocates a new entity. New entities are active and have no components; an
// entity whose last component is removed is destroyed automatically, so a bare entity
// only stays alive until the current caller attaches something to it.
func (r *Registry) Create() (Handle, error) {
	h, err := r.entities.new()
	if err != nil {
		return Handle{}, err
	}

	for int(h.ID) >= len(r.compCount) {
		r.compCount = append(r.compCount, 0)
	}
	r.compCount[h.ID] = 0
	r.active.Set(uint32(h.ID))
	return h, nil
}

// Destroy removes every component (bypassing remove guards) and releases the entity's
// id. Returns false for a stale handle or a locked entity.
func (r *Registry) Destroy(h Handle) bool {
	if !r.entities.valid(h) || r.locked.Contains(uint32(h.ID)) {
		return false
	}

	for _, s := range r.stores {
		s.forceRemove(h.ID)
	}
	r.compCount[h.ID] = 0
	r.active.Remove(uint32(h.ID))
	return r.entities.destroy(h.ID)
}

// Valid reports whether the handle refers to a live entity of the same generation.
func (r *Registry) Valid(h Handle) bool {
	return r.entities.valid(h)
}

// Refresh bumps a live entity's version and returns the new handle, invalidating every
// handle minted before the call. Components and tags are untouched.
func (r *Registry) Refresh(h Handle) (Handle, bool) {
	if !r.entities.valid(h) {
		return Handle{}, false
	}
	return r.entities.refresh(h.ID)
}

// SetLocked marks an entity as pool-owned. Locked entities cannot be destroyed and
// their components cannot be removed; pools use this to keep their members alive for
// the whole session.
func (r *Registry) SetLocked(h Handle, on bool) bool {
	if !r.entities.valid(h) {
		return false
	}
	if on {
		r.locked.Set(uint32(h.ID))
	} else {
		r.locked.Remove(uint32(h.ID))
	}
	return true
}

// IsLocked reports whether the entity is pool-owned.
func (r *Registry) IsLocked(h Handle) bool {
	return r.entities.valid(h) && r.locked.Contains(uint32(h.ID))
}

// EntityCount returns the number of live entities.
func (r *Registry) EntityCount() int {
	return r.entities.count()
}

// Handles returns a live handle for every entity, in id order.
func (r *Registry) Handles() []Handle {
	out := make([]Handle, 0, r.entities.count())
	r.entities.alive.Range(func(x uint32) {
		id := EntityID(x)
		out = append(out, Handle{ID: id, Version: r.entities.versions[id]})
	})
	return out
}

// SetActive toggles the entity-level active tag and fans the activate or deactivate
// hook out to every component that declares the pair. Returns false for a stale handle
// or when the tag already has the requested value.
func (r *Registry) SetActive(h Handle, on bool) bool {
	if !r.entities.valid(h) {
		return false
	}
	if r.active.Contains(uint32(h.ID)) == on {
		return false
	}

	hook := HookDeactivate
	if on {
		r.active.Set(uint32(h.ID))
		hook = HookActivate
	} else {
		r.active.Remove(uint32(h.ID))
	}
	r.invokeAll(hook, h.ID)
	return true
}

// IsActive reports whether the entity carries the active tag. Stale handles are
// inactive by definition.
func (r *Registry) IsActive(h Handle) bool {
	return r.entities.valid(h) && r.active.Contains(uint32(h.ID))
}

// InvokeHooks fans one lifecycle hook out across every component of the entity, in
// registration order. No-op for stale handles.
func (r *Registry) InvokeHooks(h Handle, hook Hook) {
	if !r.entities.valid(h) {
		return
	}
	r.invokeAll(hook, h.ID)
}

func (r *Registry) invokeAll(hook Hook, id EntityID) {
	for _, s := range r.stores {
		if s.implements(hook) {
			s.invoke(hook, id)
		}
	}
}

// CloneComponents stamps every component of src onto dst, honoring each type's clone
// hook. dst must not already carry any of src's component types.
func (r *Registry) CloneComponents(src, dst Handle) error {
	if !r.entities.valid(src) {
		return eris.Wrap(ErrInvalidHandle, "clone source")
	}
	if !r.entities.valid(dst) {
		return eris.Wrap(ErrInvalidHandle, "clone destination")
	}

	for _, s := range r.stores {
		added, err := s.cloneTo(src.ID, dst.ID)
		if err != nil {
			return err
		}
		if added {
			r.compCount[dst.ID]++
		}
	}
	return nil
}

// ComponentNames returns the names of the entity's components in registration order.
func (r *Registry) ComponentNames(h Handle) []string {
	if !r.entities.valid(h) {
		return nil
	}

	names := make([]string, 0, r.compCount[h.ID])
	for _, s := range r.stores {
		if s.has(h.ID) {
			names = append(names, s.name())
		}
	}
	return names
}

// EncodeComponents serializes the entity's components, keyed by component name.
func (r *Registry) EncodeComponents(h Handle) (map[string][]byte, error) {
	if !r.entities.valid(h) {
		return nil, ErrInvalidHandle
	}

	out := make(map[string][]byte, r.compCount[h.ID])
	for _, s := range r.stores {
		if !s.has(h.ID) {
			continue
		}
		bz, err := s.encode(h.ID)
		if err != nil {
			return nil, err
		}
		out[s.name()] = bz
	}
	return out, nil
}

// Reserve pre-grows every store's backing storage so the next n entity ids can be
// attached without reallocation. Pools call this once at init.
func (r *Registry) Reserve(n int) {
	for _, s := range r.stores {
		s.reserve(n)
	}
}

func storeFor[T Component](r *Registry) (*store[T], error) {
	id, ok := r.types[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return nil, eris.Wrapf(ErrNotRegistered, "component %q", zero.Name())
	}
	return r.stores[id].(*store[T]), nil
}

// Add attaches a component value to an entity. Stale handles return ErrInvalidHandle,
// which callers holding cross-frame references are expected to tolerate.
func Add[T Component](r *Registry, h Handle, value T) (*T, error) {
	s, err := storeFor[T](r)
	if err != nil {
		return nil, err
	}
	if !r.entities.valid(h) {
		return nil, ErrInvalidHandle
	}

	ptr, err := s.insert(h.ID, value)
	if err != nil {
		return nil, err
	}
	r.compCount[h.ID]++
	return ptr, nil
}

// Emplace attaches a zero-valued component and returns a pointer for in-place setup.
func Emplace[T Component](r *Registry, h Handle) (*T, error) {
	var zero T
	return Add(r, h, zero)
}

// Get returns a pointer to the entity's component, or false if the handle is stale or
// the component absent. The pointer must not be retained across structural changes.
func Get[T Component](r *Registry, h Handle) (*T, bool) {
	s, err := storeFor[T](r)
	if err != nil || !r.entities.valid(h) {
		return nil, false
	}
	return s.get(h.ID)
}

// Has reports whether the entity carries the component.
func Has[T Component](r *Registry, h Handle) bool {
	s, err := storeFor[T](r)
	if err != nil || !r.entities.valid(h) {
		return false
	}
	return s.has(h.ID)
}

// Remove detaches the component, honoring the type's remove guard. Returns false if
// the handle is stale, the entity is locked, the component is absent, or the guard
// vetoed. Removing the last component destroys the entity and bumps its version.
func Remove[T Component](r *Registry, h Handle) bool {
	s, err := storeFor[T](r)
	if err != nil || !r.entities.valid(h) || r.locked.Contains(uint32(h.ID)) {
		return false
	}

	if !s.removeFrom(h.ID) {
		return false
	}

	r.compCount[h.ID]--
	if r.compCount[h.ID] == 0 {
		r.active.Remove(uint32(h.ID))
		r.entities.destroy(h.ID)
	}
	return true
}

// Enable turns the component's enabled bit on, firing OnEnable on a real transition.
func Enable[T Component](r *Registry, h Handle) bool {
	s, err := storeFor[T](r)
	if err != nil || !r.entities.valid(h) {
		return false
	}
	return s.setEnabled(h.ID, true)
}

// Disable turns the component's enabled bit off, firing OnDisable on a real transition.
func Disable[T Component](r *Registry, h Handle) bool {
	s, err := storeFor[T](r)
	if err != nil || !r.entities.valid(h) {
		return false
	}
	return s.setEnabled(h.ID, false)
}

// IsEnabled reports whether the entity's component is present and enabled.
func IsEnabled[T Component](r *Registry, h Handle) bool {
	s, err := storeFor[T](r)
	if err != nil || !r.entities.valid(h) {
		return false
	}
	return s.isEnabled(h.ID)
}

// Each calls fn for every entity that carries the component, passing the live handle
// and a pointer into dense storage. Iteration order follows dense storage, which is not
// stable across removals. fn must not add or remove components of type T.
func Each[T Component](r *Registry, fn func(Handle, *T)) {
	s, err := storeFor[T](r)
	if err != nil {
		return
	}

	for row := range s.dense {
		id := s.owners[row]
		fn(Handle{ID: id, Version: r.entities.versions[id]}, &s.dense[row])
	}
}

// EachActive is Each restricted to entities carrying the active tag and with the
// component's enabled bit set. This is the iteration systems normally want.
func EachActive[T Component](r *Registry, fn func(Handle, *T)) {
	s, err := storeFor[T](r)
	if err != nil {
		return
	}

	for row := range s.dense {
		id := s.owners[row]
		if !r.active.Contains(uint32(id)) || !s.enabled.Contains(uint32(id)) {
			continue
		}
		fn(Handle{ID: id, Version: r.entities.versions[id]}, &s.dense[row])
	}
}
