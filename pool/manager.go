package pool

import (
	"errors"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/lodestar-engine/lodestar/command"
	"github.com/lodestar-engine/lodestar/ecs"
)

// Manager owns every pool and builds their members at Init. Pools are configured
// before Init and fixed afterwards; Acquire and Release are the only moves left.
type Manager struct {
	reg     *ecs.Registry
	pools   map[string]*pool
	configs []Config
	order   []string
	initted bool
	logger  zerolog.Logger
}

// NewManager creates a manager with no pools.
func NewManager(reg *ecs.Registry, logger zerolog.Logger) *Manager {
	return &Manager{
		reg:    reg,
		pools:  make(map[string]*pool),
		logger: logger.With().Str("module", "pool").Logger(),
	}
}

// AddPoolConfig registers a pool to be built at Init. Duplicate names and post-Init
// additions are configuration errors.
func (m *Manager) AddPoolConfig(cfg Config) error {
	if m.initted {
		return eris.Errorf("pool %q added after init", cfg.Name)
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	if _, ok := m.pools[cfg.Name]; ok {
		return eris.Errorf("pool %q is already configured", cfg.Name)
	}

	m.pools[cfg.Name] = &pool{
		name:     cfg.Name,
		capacity: cfg.Capacity,
		inactive: make([]ecs.Handle, 0, cfg.Capacity),
		active:   make([]ecs.Handle, 0, cfg.Capacity),
	}
	m.order = append(m.order, cfg.Name)
	m.configs = append(m.configs, cfg)
	return nil
}

// Init builds every configured pool in configuration order: the template entity is
// created, stamped onto capacity fresh members, and destroyed. Members start inactive
// and locked. Init may be called once.
func (m *Manager) Init() error {
	if m.initted {
		return eris.New("pool manager is already initialized")
	}
	m.initted = true

	total := 0
	for _, cfg := range m.configs {
		total += cfg.Capacity
	}
	m.reg.Reserve(m.reg.EntityCount() + total + len(m.configs))

	for _, cfg := range m.configs {
		if err := m.buildPool(cfg); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) buildPool(cfg Config) error {
	p := m.pools[cfg.Name]

	template, err := cfg.Template(m.reg)
	if err != nil {
		return eris.Wrapf(err, "pool %q template", cfg.Name)
	}

	for range cfg.Capacity {
		member, err := m.reg.Create()
		if err != nil {
			return eris.Wrapf(err, "pool %q member", cfg.Name)
		}
		if err := m.reg.CloneComponents(template, member); err != nil {
			return eris.Wrapf(err, "pool %q member", cfg.Name)
		}
		m.reg.SetActive(member, false)
		m.reg.SetLocked(member, true)
		p.inactive = append(p.inactive, member)
	}

	if !m.reg.Destroy(template) {
		return eris.Errorf("pool %q could not destroy its template", cfg.Name)
	}

	m.logger.Debug().Str("pool", cfg.Name).Int("capacity", cfg.Capacity).Msg("pool built")
	return nil
}

// Acquire activates a free member of the named pool and returns its fresh handle.
func (m *Manager) Acquire(name string) (ecs.Handle, error) {
	p, err := m.lookup(name)
	if err != nil {
		return ecs.Handle{}, err
	}
	return p.acquire(m.reg)
}

// Release parks an active member back into its pool. Stale handles are a no-op.
func (m *Manager) Release(name string, h ecs.Handle) error {
	p, err := m.lookup(name)
	if err != nil {
		return err
	}
	return p.release(m.reg, h)
}

// ActiveCount returns how many members of the named pool are currently acquired.
func (m *Manager) ActiveCount(name string) int {
	if p, ok := m.pools[name]; ok {
		return len(p.active)
	}
	return 0
}

// FreeCount returns how many members of the named pool are available to acquire.
func (m *Manager) FreeCount(name string) int {
	if p, ok := m.pools[name]; ok {
		return len(p.inactive)
	}
	return 0
}

// Pools returns the configured pool names in configuration order.
func (m *Manager) Pools() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Manager) lookup(name string) (*pool, error) {
	p, ok := m.pools[name]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownPool, "%q", name)
	}
	if !m.initted {
		return nil, eris.Errorf("pool %q used before init", name)
	}
	return p, nil
}

// SpawnCommand asks the pool manager to acquire a member at the next command flush.
// Init, when set, runs on the freshly acquired member. The command only works through
// a buffer the manager is bound to.
type SpawnCommand struct {
	Pool string
	Init func(reg *ecs.Registry, h ecs.Handle) error
}

func (c SpawnCommand) Execute(_ *ecs.Registry) error {
	return eris.Errorf("spawn for pool %q reached an unbound buffer", c.Pool)
}

// DespawnCommand asks the pool manager to release a member at the next command flush.
// A member already released (or re-acquired under a new version) by then is dropped by
// the buffer's stale-target rule.
type DespawnCommand struct {
	Pool   string
	Member ecs.Handle
}

func (c DespawnCommand) Target() ecs.Handle { return c.Member }

func (c DespawnCommand) Apply(_ *ecs.Registry, _ ecs.GameObject) error {
	return eris.Errorf("despawn for pool %q reached an unbound buffer", c.Pool)
}

// Bind routes SpawnCommand and DespawnCommand on the buffer to this manager. A spawn
// that finds its pool exhausted is dropped, not failed: running out of members under
// load is the pool doing its job, so only genuine configuration problems propagate.
func (m *Manager) Bind(buf *command.Buffer) {
	command.AddDispatcher(buf, func(reg *ecs.Registry, cmd SpawnCommand) error {
		h, err := m.Acquire(cmd.Pool)
		if err != nil {
			if errors.Is(err, ErrExhausted) {
				m.logger.Debug().Str("pool", cmd.Pool).Msg("spawn dropped, pool exhausted")
				return nil
			}
			return err
		}
		if cmd.Init != nil {
			return cmd.Init(reg, h)
		}
		return nil
	})
	command.AddDispatcher(buf, func(_ *ecs.Registry, cmd DespawnCommand) error {
		return m.Release(cmd.Pool, cmd.Member)
	})
}
