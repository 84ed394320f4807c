package pool_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lodestar-engine/lodestar/command"
	"github.com/lodestar-engine/lodestar/ecs"
	"github.com/lodestar-engine/lodestar/pool"
)

type bullet struct {
	Damage   int
	Acquires int
	Releases int
}

func (bullet) Name() string { return "bullet" }

func (b *bullet) OnAcquire() { b.Acquires++ }
func (b *bullet) OnRelease() { b.Releases++ }

func bulletTemplate(reg *ecs.Registry) (ecs.Handle, error) {
	h, err := reg.Create()
	if err != nil {
		return ecs.Handle{}, err
	}
	_, err = ecs.Add(reg, h, bullet{Damage: 10})
	return h, err
}

func newBulletManager(t *testing.T, capacity int) (*pool.Manager, *ecs.Registry) {
	t.Helper()

	reg := ecs.NewRegistry()
	require.NoError(t, ecs.Register[bullet](reg))

	m := pool.NewManager(reg, zerolog.Nop())
	require.NoError(t, m.AddPoolConfig(pool.Config{
		Name:     "bullets",
		Capacity: capacity,
		Template: bulletTemplate,
	}))
	require.NoError(t, m.Init())
	return m, reg
}

func TestManager_InitBuildsMembersAndDropsTemplate(t *testing.T) {
	t.Parallel()

	m, reg := newBulletManager(t, 3)

	require.Equal(t, 3, m.FreeCount("bullets"))
	require.Zero(t, m.ActiveCount("bullets"))
	require.Equal(t, []string{"bullets"}, m.Pools())

	// Only the members survive init; the template entity is gone.
	require.Equal(t, 3, reg.EntityCount())
}

func TestManager_AcquireStampsTemplateComponents(t *testing.T) {
	t.Parallel()

	m, reg := newBulletManager(t, 1)

	h, err := m.Acquire("bullets")
	require.NoError(t, err)
	require.True(t, reg.IsActive(h))

	b, ok := ecs.Get[bullet](reg, h)
	require.True(t, ok)
	require.Equal(t, 10, b.Damage)
	require.Equal(t, 1, b.Acquires)
	require.Zero(t, b.Releases)
}

func TestManager_ExhaustionAndRecycling(t *testing.T) {
	t.Parallel()

	m, reg := newBulletManager(t, 2)

	first, err := m.Acquire("bullets")
	require.NoError(t, err)
	second, err := m.Acquire("bullets")
	require.NoError(t, err)

	_, err = m.Acquire("bullets")
	require.ErrorIs(t, err, pool.ErrExhausted)

	require.NoError(t, m.Release("bullets", first))
	require.Equal(t, 1, m.FreeCount("bullets"))
	require.False(t, reg.IsActive(first))

	// The recycled member comes back under a bumped version; the old handle is
	// stale and harmless.
	third, err := m.Acquire("bullets")
	require.NoError(t, err)
	require.Equal(t, first.ID, third.ID)
	require.NotEqual(t, first.Version, third.Version)
	require.False(t, reg.Valid(first))
	require.True(t, reg.Valid(third))
	require.True(t, reg.Valid(second))
}

func TestManager_ReleaseHooksAndCounts(t *testing.T) {
	t.Parallel()

	m, reg := newBulletManager(t, 1)

	h, err := m.Acquire("bullets")
	require.NoError(t, err)
	require.NoError(t, m.Release("bullets", h))

	// The released handle is still the live one until the next acquire bumps it.
	b, ok := ecs.Get[bullet](reg, h)
	require.True(t, ok)
	require.Equal(t, 1, b.Acquires)
	require.Equal(t, 1, b.Releases)

	// Releasing the same handle again is stale-safe only if it went stale; here it
	// is simply no longer an active member.
	require.ErrorIs(t, m.Release("bullets", h), pool.ErrNotMember)
}

func TestManager_ReleaseStaleHandleIsNoOp(t *testing.T) {
	t.Parallel()

	m, _ := newBulletManager(t, 1)

	first, err := m.Acquire("bullets")
	require.NoError(t, err)
	require.NoError(t, m.Release("bullets", first))

	_, err = m.Acquire("bullets")
	require.NoError(t, err)

	// first now points at a previous generation of the re-acquired member.
	require.NoError(t, m.Release("bullets", first))
	require.Equal(t, 1, m.ActiveCount("bullets"))
}

func TestManager_MembersAreLocked(t *testing.T) {
	t.Parallel()

	m, reg := newBulletManager(t, 1)

	h, err := m.Acquire("bullets")
	require.NoError(t, err)
	require.True(t, reg.IsLocked(h))
	require.False(t, reg.Destroy(h))
	require.False(t, ecs.Remove[bullet](reg, h))
	require.True(t, reg.Valid(h))
}

func TestManager_ConfigErrors(t *testing.T) {
	t.Parallel()

	reg := ecs.NewRegistry()
	require.NoError(t, ecs.Register[bullet](reg))
	m := pool.NewManager(reg, zerolog.Nop())

	require.ErrorContains(t, m.AddPoolConfig(pool.Config{Name: "", Capacity: 1, Template: bulletTemplate}), "needs a name")
	require.ErrorContains(t, m.AddPoolConfig(pool.Config{Name: "x", Capacity: 0, Template: bulletTemplate}), "capacity")
	require.ErrorContains(t, m.AddPoolConfig(pool.Config{Name: "x", Capacity: 1}), "template")

	cfg := pool.Config{Name: "x", Capacity: 1, Template: bulletTemplate}
	require.NoError(t, m.AddPoolConfig(cfg))
	require.ErrorContains(t, m.AddPoolConfig(cfg), "already configured")

	_, err := m.Acquire("x")
	require.ErrorContains(t, err, "before init")

	require.NoError(t, m.Init())
	require.ErrorContains(t, m.Init(), "already initialized")
	require.ErrorContains(t, m.AddPoolConfig(pool.Config{Name: "y", Capacity: 1, Template: bulletTemplate}), "after init")

	_, err = m.Acquire("nope")
	require.ErrorIs(t, err, pool.ErrUnknownPool)
}

func TestManager_ReleaseForeignEntity(t *testing.T) {
	t.Parallel()

	m, reg := newBulletManager(t, 1)

	outsider, err := reg.Create()
	require.NoError(t, err)
	require.ErrorIs(t, m.Release("bullets", outsider), pool.ErrNotMember)
}

func TestManager_SpawnDespawnThroughBuffer(t *testing.T) {
	t.Parallel()

	m, reg := newBulletManager(t, 2)
	buf := command.NewBuffer(0, zerolog.Nop())
	m.Bind(buf)

	var spawned ecs.Handle
	require.NoError(t, buf.Add(pool.SpawnCommand{
		Pool: "bullets",
		Init: func(_ *ecs.Registry, h ecs.Handle) error {
			spawned = h
			return nil
		},
	}))
	require.NoError(t, buf.Flush(reg))
	require.True(t, reg.Valid(spawned))
	require.Equal(t, 1, m.ActiveCount("bullets"))

	require.NoError(t, buf.Add(pool.DespawnCommand{Pool: "bullets", Member: spawned}))
	require.NoError(t, buf.Flush(reg))
	require.Zero(t, m.ActiveCount("bullets"))
	require.Equal(t, 2, m.FreeCount("bullets"))
}

func TestManager_SpawnOnUnboundBufferFails(t *testing.T) {
	t.Parallel()

	_, reg := newBulletManager(t, 1)
	buf := command.NewBuffer(0, zerolog.Nop())

	require.NoError(t, buf.Add(pool.SpawnCommand{Pool: "bullets"}))
	require.ErrorContains(t, buf.Flush(reg), "unbound buffer")
}

func TestManager_SpawnBeyondCapacityIsDropped(t *testing.T) {
	t.Parallel()

	m, reg := newBulletManager(t, 1)
	buf := command.NewBuffer(0, zerolog.Nop())
	m.Bind(buf)

	require.NoError(t, buf.Add(pool.SpawnCommand{Pool: "bullets"}))
	require.NoError(t, buf.Add(pool.SpawnCommand{Pool: "bullets"}))

	// The second spawn finds the pool empty. That is the pool doing its job, not a
	// flush failure.
	require.NoError(t, buf.Flush(reg))
	require.Equal(t, 1, m.ActiveCount("bullets"))
	require.Zero(t, m.FreeCount("bullets"))

	// Unknown pools are still configuration errors and do fail the flush.
	require.NoError(t, buf.Add(pool.SpawnCommand{Pool: "tracers"}))
	require.ErrorIs(t, buf.Flush(reg), pool.ErrUnknownPool)
}

type muzzleFlash struct {
	Trace []string
}

func (muzzleFlash) Name() string { return "muzzle-flash" }

func (f *muzzleFlash) OnAcquire()    { f.Trace = append(f.Trace, "acquire") }
func (f *muzzleFlash) OnRelease()    { f.Trace = append(f.Trace, "release") }
func (f *muzzleFlash) OnActivate()   { f.Trace = append(f.Trace, "activate") }
func (f *muzzleFlash) OnDeactivate() { f.Trace = append(f.Trace, "deactivate") }

func TestManager_ReleaseHookRunsBeforeDeactivation(t *testing.T) {
	t.Parallel()

	reg := ecs.NewRegistry()
	require.NoError(t, ecs.Register[muzzleFlash](reg))

	m := pool.NewManager(reg, zerolog.Nop())
	require.NoError(t, m.AddPoolConfig(pool.Config{
		Name:     "flashes",
		Capacity: 1,
		Template: func(reg *ecs.Registry) (ecs.Handle, error) {
			h, err := reg.Create()
			if err != nil {
				return ecs.Handle{}, err
			}
			_, err = ecs.Add(reg, h, muzzleFlash{})
			return h, err
		},
	}))
	require.NoError(t, m.Init())

	h, err := m.Acquire("flashes")
	require.NoError(t, err)
	require.NoError(t, m.Release("flashes", h))

	f, ok := ecs.Get[muzzleFlash](reg, h)
	require.True(t, ok)

	// The leading deactivate is init parking the fresh member. Acquire hooks fire
	// before activation and release hooks fire before deactivation, so a release
	// hook always sees the member still active.
	require.Equal(t, []string{"deactivate", "acquire", "activate", "release", "deactivate"}, f.Trace)
}
