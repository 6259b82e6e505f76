package scene

import (
	"testing"

	"github.com/orrery/orrery/internal/core/arena"
	"github.com/orrery/orrery/internal/model"
	"github.com/stretchr/testify/require"
)

func add(t *testing.T, tbl *Table, name string, parent arena.Handle) arena.Handle {
	t.Helper()
	h, err := tbl.Add(NewEntity(name, RoleDecor, NewRecipe()), parent)
	require.NoError(t, err)
	return h
}

func TestTableLinks(t *testing.T) {
	t.Run("Add wires both directions", func(t *testing.T) {
		tbl := NewTable()
		sun := add(t, tbl, "sun", arena.Nil)
		earth := add(t, tbl, "earth", sun)
		moon := add(t, tbl, "moon", earth)

		s, _ := tbl.Get(sun)
		e, _ := tbl.Get(earth)
		m, _ := tbl.Get(moon)
		require.Equal(t, []arena.Handle{earth}, s.Children())
		require.Equal(t, sun, e.Parent())
		require.Equal(t, earth, m.Parent())
		require.Equal(t, []arena.Handle{sun}, tbl.Roots())
		require.NoError(t, tbl.Validate())
	})

	t.Run("Add under unknown parent fails", func(t *testing.T) {
		tbl := NewTable()
		_, err := tbl.Add(NewEntity("orphan", RoleDecor, NewRecipe()), arena.NewHandle(9, 1))
		require.ErrorIs(t, err, ErrOutOfRange)
		require.Equal(t, 0, tbl.Len())
	})

	t.Run("SetParent moves the child", func(t *testing.T) {
		tbl := NewTable()
		a := add(t, tbl, "a", arena.Nil)
		b := add(t, tbl, "b", arena.Nil)
		c := add(t, tbl, "c", a)

		require.NoError(t, tbl.SetParent(c, b))
		ea, _ := tbl.Get(a)
		eb, _ := tbl.Get(b)
		require.Empty(t, ea.Children())
		require.Equal(t, []arena.Handle{c}, eb.Children())
		require.NoError(t, tbl.Validate())

		require.NoError(t, tbl.SetParent(c, arena.Nil))
		require.Empty(t, eb.Children())
		require.Len(t, tbl.Roots(), 3)
	})

	t.Run("Self parent and cycles are rejected", func(t *testing.T) {
		tbl := NewTable()
		a := add(t, tbl, "a", arena.Nil)
		b := add(t, tbl, "b", a)
		c := add(t, tbl, "c", b)

		require.ErrorIs(t, tbl.SetParent(a, a), ErrSelfParent)
		require.ErrorIs(t, tbl.SetParent(a, c), ErrCycle)
		require.ErrorIs(t, tbl.SetParent(b, c), ErrCycle)

		// Nothing moved.
		ea, _ := tbl.Get(a)
		require.True(t, ea.IsRoot())
		require.NoError(t, tbl.Validate())
	})
}

func TestTableReferenceCounting(t *testing.T) {
	tbl := NewTable()
	hull := &model.Model{Path: "ship.glb"}

	var hs []arena.Handle
	for _, name := range []string{"a", "b", "c"} {
		e := NewEntity(name, RoleShip, NewRecipe())
		e.SetModel(hull)
		h, err := tbl.Add(e, arena.Nil)
		require.NoError(t, err)
		hs = append(hs, h)
	}
	bare := add(t, tbl, "bare", arena.Nil)
	require.Equal(t, 3, hull.References())

	tbl.Destroy(hs[0])
	tbl.Destroy(hs[1])
	require.Equal(t, 1, hull.References())

	tbl.Destroy(bare)
	tbl.Destroy(hs[0]) // stale handle
	require.Equal(t, 1, hull.References())

	_, ok := tbl.Get(hs[0])
	require.False(t, ok)

	tbl.DestroyAll()
	require.Equal(t, 0, hull.References())
}

func TestTableDestroyOrphansChildren(t *testing.T) {
	tbl := NewTable()
	a := add(t, tbl, "a", arena.Nil)
	b := add(t, tbl, "b", a)

	tbl.Destroy(a)

	eb, ok := tbl.Get(b)
	require.True(t, ok)
	require.True(t, eb.IsRoot())
	require.NoError(t, tbl.Validate())
}
