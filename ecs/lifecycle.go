package ecs

import "github.com/rotisserie/eris"

// Hook identifies one of the paired lifecycle hooks that can be invoked across every
// component of an entity.
type Hook uint8

const (
	HookAcquire Hook = iota
	HookRelease
	HookEnable
	HookDisable
	HookActivate
	HookDeactivate
	hookCount
)

func (h Hook) String() string {
	switch h {
	case HookAcquire:
		return "acquire"
	case HookRelease:
		return "release"
	case HookEnable:
		return "enable"
	case HookDisable:
		return "disable"
	case HookActivate:
		return "activate"
	case HookDeactivate:
		return "deactivate"
	default:
		return "unknown"
	}
}

// hooks holds the closures detected for a component type. Detection happens exactly
// once, at registration; invoking a hook later is a nil check plus a direct call, with
// no reflection on the hot path.
type hooks[T Component] struct {
	implemented [hookCount]bool

	acquire    func(*T)
	release    func(*T)
	enable     func(*T)
	disable    func(*T)
	activate   func(*T)
	deactivate func(*T)
	guard      func(*T) bool
	clone      func(*T) Component
}

// detectHooks inspects *T for the lifecycle interfaces and validates that paired hooks
// are implemented together.
func detectHooks[T Component](name string) (hooks[T], error) {
	var h hooks[T]
	probe := any(new(T))

	if _, ok := probe.(Acquirer); ok {
		h.implemented[HookAcquire] = true
		h.acquire = func(c *T) { any(c).(Acquirer).OnAcquire() }
	}
	if _, ok := probe.(Releaser); ok {
		h.implemented[HookRelease] = true
		h.release = func(c *T) { any(c).(Releaser).OnRelease() }
	}
	if _, ok := probe.(Enabler); ok {
		h.implemented[HookEnable] = true
		h.enable = func(c *T) { any(c).(Enabler).OnEnable() }
	}
	if _, ok := probe.(Disabler); ok {
		h.implemented[HookDisable] = true
		h.disable = func(c *T) { any(c).(Disabler).OnDisable() }
	}
	if _, ok := probe.(Activator); ok {
		h.implemented[HookActivate] = true
		h.activate = func(c *T) { any(c).(Activator).OnActivate() }
	}
	if _, ok := probe.(Deactivator); ok {
		h.implemented[HookDeactivate] = true
		h.deactivate = func(c *T) { any(c).(Deactivator).OnDeactivate() }
	}
	if _, ok := probe.(RemoveGuard); ok {
		h.guard = func(c *T) bool { return any(c).(RemoveGuard).OnRemove() }
	}
	if _, ok := probe.(Cloner); ok {
		h.clone = func(c *T) Component { return any(c).(Cloner).OnClone() }
	}

	pairs := [...][2]Hook{
		{HookEnable, HookDisable},
		{HookActivate, HookDeactivate},
	}
	for _, pair := range pairs {
		a, b := pair[0], pair[1]
		if h.implemented[a] != h.implemented[b] {
			missing, present := a, b
			if h.implemented[a] {
				missing, present = b, a
			}
			return hooks[T]{}, eris.Errorf(
				"component %q implements the %s hook without its %s counterpart", name, present, missing)
		}
	}

	return h, nil
}
