package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/core/arena"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAdapter() *Adapter {
	limiter := NewSpeedLimiter()
	return NewAdapter(NewWorld(DefaultConfig(), limiter.Tick), limiter, zap.NewNop())
}

func TestAdapterOwnership(t *testing.T) {
	a := newTestAdapter()
	h1 := arena.NewHandle(0, 1)
	h2 := arena.NewHandle(1, 1)
	b := NewBody(BodyConfig{Shape: &Sphere{Radius: 1}, Mass: 1})

	require.NoError(t, a.Attach(h1, b))
	require.Equal(t, h1, b.Owner())
	require.True(t, b.InWorld())

	// The same body can never be handed to a second entity.
	require.ErrorIs(t, a.Attach(h2, b), ErrBodyOwned)
	other := NewBody(BodyConfig{Shape: &Sphere{Radius: 1}, Mass: 1})
	require.ErrorIs(t, a.Attach(h1, other), ErrEntityHasBody)
	require.ErrorIs(t, a.Attach(arena.Nil, other), ErrNilEntity)
	require.Equal(t, 1, a.World().NumBodies())

	m, ok := a.BodyTransform(h1)
	require.True(t, ok)
	require.Equal(t, mgl32.Ident4(), m)
	_, ok = a.BodyTransform(h2)
	require.False(t, ok)
}

func TestAdapterDetachOrder(t *testing.T) {
	a := newTestAdapter()
	h := arena.NewHandle(3, 1)
	b := NewBody(BodyConfig{Shape: &Box{HalfExtents: mgl32.Vec3{1, 1, 1}}, Mass: 1})
	require.NoError(t, a.Attach(h, b))
	a.Limiter().Set(b, SpeedLimit{Linear: 1, Angular: 1})

	require.NoError(t, a.Detach(h))
	require.False(t, b.InWorld())
	require.Nil(t, b.MotionState())
	require.Nil(t, b.Shape())
	require.True(t, b.Owner().IsNil())
	require.Equal(t, 0, a.Limiter().Len())
	require.Equal(t, 0, a.World().NumBodies())

	require.ErrorIs(t, a.Detach(h), ErrNoBody)
	// A freed body cannot be re-added.
	require.ErrorIs(t, a.World().AddBody(b), ErrBodyDestroyed)
}

func TestAdapterClose(t *testing.T) {
	a := newTestAdapter()
	for i := uint32(0); i < 4; i++ {
		b := NewBody(BodyConfig{Shape: &Sphere{Radius: 1}, Mass: 1})
		require.NoError(t, a.Attach(arena.NewHandle(i, 1), b))
	}
	require.Equal(t, 4, a.Len())
	require.NoError(t, a.Close())
	require.Equal(t, 0, a.Len())
	require.Equal(t, 0, a.World().NumBodies())
}

func TestAdapterCloseFailsOnForeignBody(t *testing.T) {
	a := newTestAdapter()
	stray := NewBody(BodyConfig{Shape: &Sphere{Radius: 1}})
	require.NoError(t, a.World().AddBody(stray))
	require.ErrorIs(t, a.Close(), ErrBodiesInWorld)
}
