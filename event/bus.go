// Package event provides the double-buffered queues the frame loop uses to move data
// between systems without aliasing surprises: what a system reads was always published
// at an earlier commit point, never mid-iteration by a peer.
package event

import (
	"iter"
	"reflect"
)

const defaultQueueCapacity = 64

// Bus is a double-buffered, type-keyed event queue. Pushes land in the write buffer;
// reads see only the read buffer. SwapBuffers publishes everything written since the
// last swap and recycles the previously readable events' storage.
//
// The frame loop owns three of these, one per scope, and differs only in where it
// places the swap: per pass, per phase, or per frame.
type Bus struct {
	write    map[reflect.Type][]any
	read     map[reflect.Type][]any
	capacity int
}

// NewBus creates an empty bus. capacity sizes each per-type queue on first use; values
// below one fall back to a small default.
func NewBus(capacity int) *Bus {
	if capacity < 1 {
		capacity = defaultQueueCapacity
	}
	return &Bus{
		write:    make(map[reflect.Type][]any),
		read:     make(map[reflect.Type][]any),
		capacity: capacity,
	}
}

// Push appends an event to the write buffer. It will not be readable until the next
// SwapBuffers call, including by the pushing system itself.
func Push[E any](b *Bus, e E) {
	key := reflect.TypeFor[E]()
	q, ok := b.write[key]
	if !ok {
		q = make([]any, 0, b.capacity)
	}
	b.write[key] = append(q, e)
}

// Read returns an iterator over the readable events of type E, in push order. The
// sequence is restartable: ranging over it twice replays the same events.
func Read[E any](b *Bus) iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, e := range b.read[reflect.TypeFor[E]()] {
			if !yield(e.(E)) {
				return
			}
		}
	}
}

// Len returns the number of readable events of type E.
func Len[E any](b *Bus) int {
	return len(b.read[reflect.TypeFor[E]()])
}

// SwapBuffers makes everything written since the last swap readable and drops what was
// readable before. Queue storage from the old read side is truncated and reused as the
// new write side.
func (b *Bus) SwapBuffers() {
	for key, q := range b.read {
		b.read[key] = q[:0]
	}
	b.write, b.read = b.read, b.write
}

// ClearAll empties both buffers: pending writes are dropped without ever being
// published, and nothing stays readable.
func (b *Bus) ClearAll() {
	for key, q := range b.write {
		b.write[key] = q[:0]
	}
	for key, q := range b.read {
		b.read[key] = q[:0]
	}
}
