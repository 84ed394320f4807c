package lodestar

import (
	"github.com/rs/zerolog"

	"github.com/lodestar-engine/lodestar/command"
	"github.com/lodestar-engine/lodestar/ecs"
	"github.com/lodestar-engine/lodestar/event"
	"github.com/lodestar-engine/lodestar/pool"
)

// Context is what a system gets to work with for one invocation. It bundles the
// registry, the three event scopes, the immediate queue, the command buffer, and the
// frame's input snapshot. Contexts are loaned for the duration of the call; systems
// must not retain them.
type Context struct {
	world  *World
	logger zerolog.Logger
}

// Registry gives direct read and in-place write access to component data. Structural
// changes go through Commands instead.
func (c *Context) Registry() *ecs.Registry { return c.world.registry }

// PassEvents is the bus whose swap cadence is the pass commit point.
func (c *Context) PassEvents() *event.Bus { return c.world.passBus }

// PhaseEvents is the bus that swaps at phase boundaries.
func (c *Context) PhaseEvents() *event.Bus { return c.world.phaseBus }

// FrameEvents is the bus that swaps at frame boundaries: pushed this frame, readable
// all of next frame.
func (c *Context) FrameEvents() *event.Bus { return c.world.frameBus }

// Immediate is the single-buffered queue, cleared after every pass.
func (c *Context) Immediate() *event.Immediate { return c.world.immediate }

// Commands is the deferred mutation buffer, flushed at structural commit points.
func (c *Context) Commands() *command.Buffer { return c.world.commands }

// Pools is the prefab pool manager.
func (c *Context) Pools() *pool.Manager { return c.world.pools }

// Input is the input snapshot captured for this frame. It does not change while the
// frame runs.
func (c *Context) Input() any { return c.world.input }

// Frame is the current frame number, starting at 1.
func (c *Context) Frame() uint64 { return c.world.frame }

// Logger is pre-tagged with the running system's name.
func (c *Context) Logger() *zerolog.Logger { return &c.logger }
