package ecs_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lodestar-engine/lodestar/ecs"
)

type position struct {
	X, Y float64
}

func (position) Name() string { return "position" }

type health struct {
	Current, Max int
}

func (health) Name() string { return "health" }

type shielded struct {
	Invulnerable bool
}

func (shielded) Name() string { return "shielded" }

func (s *shielded) OnRemove() bool { return !s.Invulnerable }

type visual struct {
	Activations   int
	Deactivations int
}

func (visual) Name() string { return "visual" }

func (v *visual) OnActivate()   { v.Activations++ }
func (v *visual) OnDeactivate() { v.Deactivations++ }

type halfPaired struct{}

func (halfPaired) Name() string { return "half-paired" }

func (*halfPaired) OnEnable() {}

type positionClash struct{}

func (positionClash) Name() string { return "position" }

type inventory struct {
	Items []string
}

func (inventory) Name() string { return "inventory" }

func (i *inventory) OnClone() ecs.Component {
	return inventory{Items: slices.Clone(i.Items)}
}

func newTestRegistry(t *testing.T) *ecs.Registry {
	t.Helper()

	r := ecs.NewRegistry()
	require.NoError(t, ecs.Register[position](r))
	require.NoError(t, ecs.Register[health](r))
	require.NoError(t, ecs.Register[shielded](r))
	require.NoError(t, ecs.Register[visual](r))
	require.NoError(t, ecs.Register[inventory](r))
	return r
}

func TestRegister_Idempotent(t *testing.T) {
	t.Parallel()

	r := ecs.NewRegistry()
	require.NoError(t, ecs.Register[position](r))
	require.NoError(t, ecs.Register[position](r))
}

func TestRegister_NameClash(t *testing.T) {
	t.Parallel()

	r := ecs.NewRegistry()
	require.NoError(t, ecs.Register[position](r))

	err := ecs.Register[positionClash](r)
	require.ErrorContains(t, err, "already registered to a different type")
}

func TestRegister_AfterEntityCreation(t *testing.T) {
	t.Parallel()

	r := ecs.NewRegistry()
	require.NoError(t, ecs.Register[position](r))

	_, err := r.Create()
	require.NoError(t, err)

	err = ecs.Register[health](r)
	require.ErrorContains(t, err, "before any entity is created")
}

func TestRegister_UnpairedHook(t *testing.T) {
	t.Parallel()

	r := ecs.NewRegistry()
	err := ecs.Register[halfPaired](r)
	require.ErrorContains(t, err, "enable hook without its disable counterpart")
}

func TestRegistry_StaleHandleIsSilent(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	h, err := r.Create()
	require.NoError(t, err)
	_, err = ecs.Add(r, h, position{X: 1})
	require.NoError(t, err)

	require.True(t, r.Destroy(h))

	// Every operation through the stale handle degrades to a no-op.
	require.False(t, r.Valid(h))
	require.False(t, r.Destroy(h))
	_, ok := ecs.Get[position](r, h)
	require.False(t, ok)
	require.False(t, ecs.Has[position](r, h))
	require.False(t, ecs.Remove[position](r, h))
	require.False(t, r.SetActive(h, true))

	_, err = ecs.Add(r, h, health{Current: 10})
	require.ErrorIs(t, err, ecs.ErrInvalidHandle)
}

func TestRegistry_RecycledIDGetsNewVersion(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	first, err := r.Create()
	require.NoError(t, err)
	require.True(t, r.Destroy(first))

	second, err := r.Create()
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.NotEqual(t, first.Version, second.Version)

	require.False(t, r.Valid(first))
	require.True(t, r.Valid(second))
}

func TestRegistry_RefreshInvalidatesOldHandles(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	old, err := r.Create()
	require.NoError(t, err)
	_, err = ecs.Add(r, old, position{X: 3})
	require.NoError(t, err)

	fresh, ok := r.Refresh(old)
	require.True(t, ok)
	require.Equal(t, old.ID, fresh.ID)

	require.False(t, r.Valid(old))
	require.True(t, r.Valid(fresh))

	// Components survive the refresh.
	p, ok := ecs.Get[position](r, fresh)
	require.True(t, ok)
	require.Equal(t, 3.0, p.X)
}

func TestRegistry_LastComponentRemovalDestroysEntity(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	h, err := r.Create()
	require.NoError(t, err)
	_, err = ecs.Add(r, h, position{})
	require.NoError(t, err)
	_, err = ecs.Add(r, h, health{Current: 5, Max: 5})
	require.NoError(t, err)

	require.True(t, ecs.Remove[position](r, h))
	require.True(t, r.Valid(h))

	require.True(t, ecs.Remove[health](r, h))
	require.False(t, r.Valid(h))
	require.Equal(t, 0, r.EntityCount())
}

func TestRegistry_RemoveGuard(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	h, err := r.Create()
	require.NoError(t, err)
	_, err = ecs.Add(r, h, shielded{Invulnerable: true})
	require.NoError(t, err)
	_, err = ecs.Add(r, h, position{})
	require.NoError(t, err)

	// The guard vetoes targeted removal but not entity destruction.
	require.False(t, ecs.Remove[shielded](r, h))
	require.True(t, ecs.Has[shielded](r, h))
	require.True(t, r.Destroy(h))
	require.False(t, r.Valid(h))
}

func TestRegistry_ActiveTagHooks(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	h, err := r.Create()
	require.NoError(t, err)
	_, err = ecs.Add(r, h, visual{})
	require.NoError(t, err)

	// Entities start active, so activating again is not a transition.
	require.True(t, r.IsActive(h))
	require.False(t, r.SetActive(h, true))

	require.True(t, r.SetActive(h, false))
	require.True(t, r.SetActive(h, true))

	v, ok := ecs.Get[visual](r, h)
	require.True(t, ok)
	require.Equal(t, 1, v.Activations)
	require.Equal(t, 1, v.Deactivations)
}

func TestRegistry_CloneComponents(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	src, err := r.Create()
	require.NoError(t, err)
	_, err = ecs.Add(r, src, position{X: 1, Y: 2})
	require.NoError(t, err)
	_, err = ecs.Add(r, src, inventory{Items: []string{"sword"}})
	require.NoError(t, err)

	dst, err := r.Create()
	require.NoError(t, err)
	require.NoError(t, r.CloneComponents(src, dst))

	p, ok := ecs.Get[position](r, dst)
	require.True(t, ok)
	require.Equal(t, position{X: 1, Y: 2}, *p)

	// The clone hook deep-copied the slice, so mutating the copy leaves the
	// template untouched.
	inv, ok := ecs.Get[inventory](r, dst)
	require.True(t, ok)
	inv.Items[0] = "axe"

	srcInv, ok := ecs.Get[inventory](r, src)
	require.True(t, ok)
	require.Equal(t, []string{"sword"}, srcInv.Items)
}

func TestRegistry_EncodeComponents(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	h, err := r.Create()
	require.NoError(t, err)
	_, err = ecs.Add(r, h, position{X: 1})
	require.NoError(t, err)
	_, err = ecs.Add(r, h, health{Current: 3, Max: 9})
	require.NoError(t, err)

	encoded, err := r.EncodeComponents(h)
	require.NoError(t, err)
	require.Len(t, encoded, 2)
	require.JSONEq(t, `{"X":1,"Y":0}`, string(encoded["position"]))
	require.JSONEq(t, `{"Current":3,"Max":9}`, string(encoded["health"]))
}

func TestRegistry_EachActiveFiltering(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)

	active, err := r.Create()
	require.NoError(t, err)
	_, err = ecs.Add(r, active, position{X: 1})
	require.NoError(t, err)

	inactive, err := r.Create()
	require.NoError(t, err)
	_, err = ecs.Add(r, inactive, position{X: 2})
	require.NoError(t, err)
	require.True(t, r.SetActive(inactive, false))

	disabled, err := r.Create()
	require.NoError(t, err)
	_, err = ecs.Add(r, disabled, position{X: 3})
	require.NoError(t, err)
	require.True(t, ecs.Disable[position](r, disabled))

	var all, visited []float64
	ecs.Each(r, func(_ ecs.Handle, p *position) { all = append(all, p.X) })
	ecs.EachActive(r, func(h ecs.Handle, p *position) {
		require.True(t, r.Valid(h))
		visited = append(visited, p.X)
	})

	require.ElementsMatch(t, []float64{1, 2, 3}, all)
	require.Equal(t, []float64{1}, visited)
}
