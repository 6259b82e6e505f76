package scene

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/core/arena"
	"github.com/stretchr/testify/require"
)

type fixedBodies map[arena.Handle]mgl32.Mat4

func (f fixedBodies) BodyTransform(h arena.Handle) (mgl32.Mat4, bool) {
	m, ok := f[h]
	return m, ok
}

func TestWalkerParentPropagation(t *testing.T) {
	tbl := NewTable()
	parentRecipe := NewRecipe()
	parentRecipe.Translation = mgl32.Vec3{3, 0, 0}
	parentRecipe.SpinAngle = 0.25
	p, err := tbl.Add(NewEntity("parent", RoleDecor, parentRecipe), arena.Nil)
	require.NoError(t, err)

	childRecipe := NewRecipe()
	childRecipe.Translation = mgl32.Vec3{0, 0, 2}
	c, err := tbl.Add(NewEntity("child", RoleDecor, childRecipe), p)
	require.NoError(t, err)

	w := NewWalker(tbl, nil)
	require.NoError(t, w.UpdateChildren(p, time.Second/60))

	ep, _ := tbl.Get(p)
	ec, _ := tbl.Get(c)
	mp := ep.ModelMatrix()
	want := mp.Mul4(mgl32.Translate3D(0, 0, 2))
	require.True(t, want.ApproxEqualThreshold(ec.ModelMatrix(), 1e-5))
	require.Equal(t, mp, ec.ParentOrigin())
}

func TestWalkerBoundsGuard(t *testing.T) {
	tbl := NewTable()
	r := NewRecipe()
	r.Velocity = mgl32.Vec3{1, 0, 0}
	h, err := tbl.Add(NewEntity("a", RoleDecor, r), arena.Nil)
	require.NoError(t, err)
	e, _ := tbl.Get(h)
	before := e.ModelMatrix()

	w := NewWalker(tbl, nil)
	err = w.UpdateChildren(arena.NewHandle(5, 1), time.Second)
	require.ErrorIs(t, err, ErrOutOfRange)
	err = w.UpdateChildren(arena.Nil, time.Second)
	require.ErrorIs(t, err, ErrOutOfRange)

	require.Equal(t, before, e.ModelMatrix())
	require.Equal(t, mgl32.Vec3{}, e.Recipe.Translation)
	require.Equal(t, 0, e.Accumulator().Pending())
}

func TestWalkerThreeLevelPropagation(t *testing.T) {
	tbl := NewTable()
	ra := NewRecipe()
	ra.Velocity = mgl32.Vec3{1, 0, 0}
	a, err := tbl.Add(NewEntity("A", RoleDecor, ra), arena.Nil)
	require.NoError(t, err)
	b, err := tbl.Add(NewEntity("B", RoleDecor, NewRecipe()), a)
	require.NoError(t, err)
	c, err := tbl.Add(NewEntity("C", RoleDecor, NewRecipe()), b)
	require.NoError(t, err)

	w := NewWalker(tbl, nil)
	for i := 0; i < 5; i++ {
		w.UpdateRoots(time.Second)
	}

	ec, _ := tbl.Get(c)
	pos := ec.WorldPosition()
	require.InDelta(t, 5, pos.X(), 1e-5)
	require.InDelta(t, 0, pos.Y(), 1e-5)
	require.InDelta(t, 0, pos.Z(), 1e-5)
}

func TestWalkerUsesBodyTransform(t *testing.T) {
	tbl := NewTable()
	r := NewRecipe()
	r.Scale = mgl32.Vec3{2, 2, 2}
	r.Velocity = mgl32.Vec3{100, 0, 0} // ignored while a body drives the entity
	h, err := tbl.Add(NewEntity("ship", RoleShip, r), arena.Nil)
	require.NoError(t, err)

	body := mgl32.Translate3D(4, 0, -1)
	w := NewWalker(tbl, fixedBodies{h: body})
	w.UpdateRoots(time.Second)

	e, _ := tbl.Get(h)
	want := body.Mul4(mgl32.Scale3D(2, 2, 2))
	require.True(t, want.ApproxEqualThreshold(e.ModelMatrix(), 1e-5))
}

func TestWalkerBodyChildIgnoresParentOrigin(t *testing.T) {
	tbl := NewTable()
	pr := NewRecipe()
	pr.Translation = mgl32.Vec3{10, 0, 0}
	p, err := tbl.Add(NewEntity("mast", RoleDecor, pr), arena.Nil)
	require.NoError(t, err)
	c, err := tbl.Add(NewEntity("ball", RoleBall, NewRecipe()), p)
	require.NoError(t, err)
	lr := NewRecipe()
	lr.Translation = mgl32.Vec3{0, 1, 0}
	l, err := tbl.Add(NewEntity("lamp", RoleDecor, lr), c)
	require.NoError(t, err)

	w := NewWalker(tbl, fixedBodies{c: mgl32.Translate3D(4, 0, 0)})
	require.NoError(t, w.UpdateChildren(p, time.Second/60))

	ec, _ := tbl.Get(c)
	require.True(t, ec.WorldPosition().ApproxEqualThreshold(mgl32.Vec3{4, 0, 0}, 1e-5))
	el, _ := tbl.Get(l)
	require.True(t, el.WorldPosition().ApproxEqualThreshold(mgl32.Vec3{4, 1, 0}, 1e-5))
}

func TestWalkerOrbitAndSpin(t *testing.T) {
	tbl := NewTable()
	r := NewRecipe()
	r.OrbitRadius = 10
	r.OrbitRate = float32(3.14159265 / 2)
	h, err := tbl.Add(NewEntity("moon", RoleBody, r), arena.Nil)
	require.NoError(t, err)

	w := NewWalker(tbl, nil)
	w.UpdateRoots(time.Second)

	e, _ := tbl.Get(h)
	pos := e.WorldPosition()
	require.InDelta(t, 0, pos.X(), 1e-3)
	require.InDelta(t, 10, pos.Z(), 1e-3)
}
