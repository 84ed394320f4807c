package event

import (
	"iter"
	"reflect"
)

// Immediate is the single-buffered sibling of Bus: emitted events are readable right
// away, with no commit point in between. It trades the bus's temporal isolation for
// same-pass reactivity, so it suits signaling between systems that know they run in a
// fixed order.
type Immediate struct {
	events map[reflect.Type][]any
}

// NewImmediate creates an empty immediate queue.
func NewImmediate() *Immediate {
	return &Immediate{events: make(map[reflect.Type][]any)}
}

// Emit appends an event, visible to any ReadNow from this moment on.
func Emit[E any](b *Immediate, e E) {
	key := reflect.TypeFor[E]()
	b.events[key] = append(b.events[key], e)
}

// ReadNow returns a restartable iterator over all events of type E emitted since the
// last Clear, in emit order.
func ReadNow[E any](b *Immediate) iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, e := range b.events[reflect.TypeFor[E]()] {
			if !yield(e.(E)) {
				return
			}
		}
	}
}

// Clear drops every queued event, retaining storage.
func (b *Immediate) Clear() {
	for key, q := range b.events {
		b.events[key] = q[:0]
	}
}
