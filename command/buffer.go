// Package command implements the deferred mutation buffer. Systems enqueue commands
// while they iterate; the frame loop flushes the buffer at structural commit points, so
// structural changes never happen under a live iteration.
package command

import (
	"errors"
	"reflect"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/lodestar-engine/lodestar/ecs"
)

// WorldCommand is a deferred mutation of global state. All world commands in a batch
// execute before any entity command from the same batch.
type WorldCommand interface {
	Execute(reg *ecs.Registry) error
}

// EntityCommand is a deferred mutation targeting one entity through a handle captured
// at enqueue time. If the target goes stale before the flush, the command is dropped
// without error; outliving your target is normal in a deferred pipeline.
type EntityCommand interface {
	Target() ecs.Handle
	Apply(reg *ecs.Registry, obj ecs.GameObject) error
}

type dispatcherFunc func(reg *ecs.Registry, cmd any) error

// Buffer queues commands between structural commit points. It is not safe for
// concurrent use; the frame loop is the only writer and the only flusher.
type Buffer struct {
	world       []WorldCommand
	entity      []EntityCommand
	dispatchers map[reflect.Type]dispatcherFunc
	logger      zerolog.Logger
}

// NewBuffer creates an empty buffer. capacity sizes the two queues; values below one
// fall back to a small default.
func NewBuffer(capacity int, logger zerolog.Logger) *Buffer {
	if capacity < 1 {
		capacity = 64
	}
	return &Buffer{
		world:       make([]WorldCommand, 0, capacity),
		entity:      make([]EntityCommand, 0, capacity),
		dispatchers: make(map[reflect.Type]dispatcherFunc),
		logger:      logger,
	}
}

// Add enqueues a command for the next flush. The command must implement exactly one of
// WorldCommand and EntityCommand; anything else is a configuration error.
func (b *Buffer) Add(cmd any) error {
	wc, isWorld := cmd.(WorldCommand)
	entc, isEntity := cmd.(EntityCommand)

	switch {
	case isWorld && isEntity:
		return eris.Errorf("command %T implements both WorldCommand and EntityCommand", cmd)
	case isWorld:
		b.world = append(b.world, wc)
	case isEntity:
		b.entity = append(b.entity, entc)
	default:
		return eris.Errorf("command %T implements neither WorldCommand nor EntityCommand", cmd)
	}
	return nil
}

// AddDispatcher registers fn as the handler for commands of concrete type C, replacing
// the command's own Execute or Apply and any handler previously registered for C.
// Dispatchers persist across flushes.
//
// For entity commands the stale-target drop happens before dispatch, so fn only ever
// sees commands whose target still resolves.
func AddDispatcher[C any](b *Buffer, fn func(reg *ecs.Registry, cmd C) error) {
	b.dispatchers[reflect.TypeFor[C]()] = func(reg *ecs.Registry, cmd any) error {
		return fn(reg, cmd.(C))
	}
}

// Len returns the number of queued commands.
func (b *Buffer) Len() int {
	return len(b.world) + len(b.entity)
}

// Flush executes every queued command in two sub-passes: world commands first, then
// entity commands, each in enqueue order. A failing command is logged and does not
// block the rest of the batch; the joined errors are returned after the buffer is
// cleared. The buffer clears even when commands fail.
func (b *Buffer) Flush(reg *ecs.Registry) error {
	var errs []error

	for _, cmd := range b.world {
		if err := b.execWorld(reg, cmd); err != nil {
			b.logger.Error().Err(err).Type("command", cmd).Msg("world command failed")
			errs = append(errs, err)
		}
	}

	for _, cmd := range b.entity {
		target := cmd.Target()
		if !reg.Valid(target) {
			b.logger.Debug().
				Uint32("entity", uint32(target.ID)).
				Type("command", cmd).
				Msg("dropped command for stale entity")
			continue
		}
		if err := b.execEntity(reg, cmd, target); err != nil {
			b.logger.Error().Err(err).Type("command", cmd).Msg("entity command failed")
			errs = append(errs, err)
		}
	}

	b.world = b.world[:0]
	b.entity = b.entity[:0]
	return errors.Join(errs...)
}

func (b *Buffer) execWorld(reg *ecs.Registry, cmd WorldCommand) error {
	if fn, ok := b.dispatchers[reflect.TypeOf(cmd)]; ok {
		return fn(reg, cmd)
	}
	return cmd.Execute(reg)
}

func (b *Buffer) execEntity(reg *ecs.Registry, cmd EntityCommand, target ecs.Handle) error {
	if fn, ok := b.dispatchers[reflect.TypeOf(cmd)]; ok {
		return fn(reg, cmd)
	}
	return cmd.Apply(reg, reg.Object(target))
}
