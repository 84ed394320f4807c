// Package lodestar is a frame-driven game runtime. A World schedules systems through a
// fixed Frame, Phase, Pass hierarchy and routes every structural mutation through
// deferred buffers that flush at declared commit points, so systems always iterate
// over stable storage.
package lodestar

import (
	"os"
	"runtime/debug"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/lodestar-engine/lodestar/command"
	"github.com/lodestar-engine/lodestar/ecs"
	"github.com/lodestar-engine/lodestar/event"
	"github.com/lodestar-engine/lodestar/pool"
)

type pass struct {
	name    string
	commit  CommitPoint
	systems []registeredSystem
}

// World owns all engine state and drives it one frame at a time. Everything inside a
// World is single-threaded by contract: systems run sequentially in registration order
// and the deferred buffers take the place locks would have in a concurrent design.
type World struct {
	registry *ecs.Registry
	passBus  *event.Bus
	phaseBus *event.Bus
	frameBus *event.Bus

	immediate *event.Immediate
	commands  *command.Buffer
	pools     *pool.Manager

	passes    [phaseCount][]*pass
	passNames map[string]Phase

	stage     stageManager
	frame     uint64
	input     any
	sceneSync func(ctx *Context) error

	config Config
	logger zerolog.Logger
}

// WorldOption configures a World at construction.
type WorldOption func(*World)

// WithLogger replaces the default stderr logger.
func WithLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) { w.logger = logger }
}

// WithSceneSync installs a callback that runs after the Post phase of every frame,
// once all commits have landed. This is where a renderer mirrors engine state into its
// scene graph.
func WithSceneSync(fn func(ctx *Context) error) WorldOption {
	return func(w *World) { w.sceneSync = fn }
}

// NewWorld creates a world configured from the environment.
func NewWorld(opts ...WorldOption) (*World, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	w := &World{
		config:    cfg,
		logger:    zerolog.New(os.Stderr).Level(cfg.logLevel()).With().Timestamp().Logger(),
		passNames: make(map[string]Phase),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.registry = ecs.NewRegistry()
	w.passBus = event.NewBus(cfg.EventBufferCapacity)
	w.phaseBus = event.NewBus(cfg.EventBufferCapacity)
	w.frameBus = event.NewBus(cfg.EventBufferCapacity)
	w.immediate = event.NewImmediate()
	w.commands = command.NewBuffer(cfg.CommandBufferCapacity, w.logger)
	w.pools = pool.NewManager(w.registry, w.logger)
	w.pools.Bind(w.commands)
	return w, nil
}

// Registry exposes the component registry, mainly for bootstrap and tests. Systems
// should reach it through their Context.
func (w *World) Registry() *ecs.Registry { return w.registry }

// Commands exposes the deferred command buffer, mainly for dispatcher registration
// during bootstrap.
func (w *World) Commands() *command.Buffer { return w.commands }

// Pools exposes the prefab pool manager for configuration during bootstrap.
func (w *World) Pools() *pool.Manager { return w.pools }

// Frame returns the number of completed frames.
func (w *World) Frame() uint64 { return w.frame }

// RegisterComponent catalogs a component type on the world's registry.
func RegisterComponent[T ecs.Component](w *World) error {
	if w.stage.Current() != stageInit {
		var zero T
		return eris.Errorf("cannot register component %q while the world is %s",
			zero.Name(), w.stage.Current())
	}
	return ecs.Register[T](w.registry)
}

// RegisterPass appends a pass to a phase. Passes run in registration order within
// their phase; names must be unique across the whole world. Registration closes once
// the world starts.
func (w *World) RegisterPass(phase Phase, name string, commit CommitPoint, systems ...System) error {
	if w.stage.Current() != stageInit {
		return eris.Errorf("cannot register pass %q while the world is %s", name, w.stage.Current())
	}
	if phase >= phaseCount {
		return eris.Errorf("pass %q names an unknown phase", name)
	}
	if name == "" {
		return eris.New("pass needs a name")
	}
	if owner, ok := w.passNames[name]; ok {
		return eris.Errorf("pass %q is already registered in the %s phase", name, owner)
	}
	if len(systems) == 0 {
		return eris.Errorf("pass %q needs at least one system", name)
	}

	p := &pass{name: name, commit: commit, systems: make([]registeredSystem, 0, len(systems))}
	for _, fn := range systems {
		sysName, err := systemName(fn)
		if err != nil {
			return eris.Wrapf(err, "pass %q", name)
		}
		p.systems = append(p.systems, registeredSystem{name: sysName, fn: fn})
	}

	w.passes[phase] = append(w.passes[phase], p)
	w.passNames[name] = phase
	return nil
}

// Init seals registration, builds the prefab pools, and moves the world to Running.
func (w *World) Init() error {
	if !w.stage.CompareAndSwap(stageInit, stageRunning) {
		return eris.Errorf("cannot init a world that is %s", w.stage.Current())
	}
	if err := w.pools.Init(); err != nil {
		w.stage.Store(stageShutDown)
		return err
	}

	w.logger.Info().Int("frame_rate", w.config.FrameRate).Msg("world initialized")
	return nil
}

// RunFrame executes one full frame against the given input snapshot. A system error or
// panic aborts the frame and is returned; buffered state is left as the failing commit
// points left it.
func (w *World) RunFrame(input any) (err error) {
	if w.stage.Current() != stageRunning {
		return eris.Errorf("cannot run a frame while the world is %s", w.stage.Current())
	}

	w.frame++
	w.input = input
	defer func() {
		if r := recover(); r != nil {
			err = w.handleFramePanic(r)
		}
	}()

	for phase := PhasePre; phase < phaseCount; phase++ {
		if err := w.runPhase(phase); err != nil {
			return err
		}
	}
	return w.endFrame()
}

func (w *World) runPhase(phase Phase) error {
	for _, p := range w.passes[phase] {
		for _, sys := range p.systems {
			ctx := &Context{
				world:  w,
				logger: w.logger.With().Str("system", sys.name).Logger(),
			}
			if err := sys.fn(ctx); err != nil {
				return eris.Wrapf(err, "system %s in pass %q", sys.name, p.name)
			}
		}
		if err := w.commit(p.commit); err != nil {
			return eris.Wrapf(err, "commit after pass %q", p.name)
		}
		w.immediate.Clear()
	}

	// Phase boundary: phase events pushed here become readable next phase, pass
	// events stop being readable entirely, even if the last commit just published
	// some, and deferred commands land so the next phase starts from settled
	// structure regardless of the passes' own commit points.
	w.phaseBus.SwapBuffers()
	w.passBus.ClearAll()
	if err := w.commands.Flush(w.registry); err != nil {
		return eris.Wrapf(err, "%s phase-boundary command flush", phase)
	}
	return nil
}

func (w *World) commit(c CommitPoint) error {
	switch c {
	case CommitNone:
		return nil
	case CommitPassEvents:
		w.passBus.SwapBuffers()
		return nil
	case CommitStructural:
		w.passBus.SwapBuffers()
		return w.commands.Flush(w.registry)
	default:
		return eris.Errorf("unknown commit point %d", c)
	}
}

// endFrame is the frame's closing commit: frame events swap into next frame's read
// side and the scene callback sees the settled state. Commands need no flush here; the
// Post phase boundary already landed them. Phase events pushed during Post stay
// readable through next frame's Pre, then retire at its boundary swap.
func (w *World) endFrame() error {
	w.frameBus.SwapBuffers()

	if w.sceneSync != nil {
		ctx := &Context{world: w, logger: w.logger.With().Str("system", "scene-sync").Logger()}
		if err := w.sceneSync(ctx); err != nil {
			return eris.Wrap(err, "scene sync")
		}
	}
	return nil
}

func (w *World) handleFramePanic(r any) error {
	w.logger.Error().
		Uint64("frame", w.frame).
		Interface("panic", r).
		Str("stack", string(debug.Stack())).
		Msg("frame panicked")
	return eris.Errorf("frame %d panicked: %v", w.frame, r)
}

// Shutdown moves the world to ShutDown. Safe to call from outside the loop goroutine;
// an in-flight frame finishes first when the loop drives the world.
func (w *World) Shutdown() {
	if !w.stage.CompareAndSwap(stageRunning, stageShuttingDown) {
		return
	}
	w.stage.Store(stageShutDown)
	w.logger.Info().Uint64("frames", w.frame).Msg("world shut down")
}
