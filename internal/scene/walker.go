package scene

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/core/arena"
)

// BodySource supplies the world transform of the rigid body attached to an
// entity, if any. Implemented by the physics adapter; entities never hold
// body pointers themselves.
type BodySource interface {
	BodyTransform(h arena.Handle) (mgl32.Mat4, bool)
}

// Walker collapses the scene graph depth first. Each entity commits its
// recipe, then its parent's freshly collapsed matrix as the outermost
// transform, then collapses; children are visited after their parent. A body
// matrix is already in world space, so a body-driven child ignores its parent
// origin.
type Walker struct {
	table  *Table
	bodies BodySource
}

// NewWalker builds a walker over table. bodies may be nil for scenes without
// physics.
func NewWalker(table *Table, bodies BodySource) *Walker {
	return &Walker{table: table, bodies: bodies}
}

// UpdateChildren updates h and its whole subtree. Called on roots by the frame
// driver. An unknown handle fails without touching any entity. Cycles are
// rejected by the Table, so recursion terminates at the leaves.
func (w *Walker) UpdateChildren(h arena.Handle, dt time.Duration) error {
	e, ok := w.table.Get(h)
	if !ok {
		return fmt.Errorf("update children of %d: %w", h.Index(), ErrOutOfRange)
	}
	w.update(e, float32(dt.Seconds()), dt)
	return nil
}

// UpdateRoots walks every parentless entity.
func (w *Walker) UpdateRoots(dt time.Duration) {
	secs := float32(dt.Seconds())
	for _, h := range w.table.Roots() {
		if e, ok := w.table.Get(h); ok {
			w.update(e, secs, dt)
		}
	}
}

func (w *Walker) update(e *Entity, secs float32, dt time.Duration) {
	if bodyDriven := e.commitRecipe(secs, w.bodies); !bodyDriven && !e.parent.IsNil() {
		e.acc.CommitParentOrigin(e.parentOrigin)
	}
	e.acc.Update(dt)

	m := e.acc.Model()
	for _, ch := range e.children {
		c, ok := w.table.Get(ch)
		if !ok {
			continue
		}
		c.parentOrigin = m
		w.update(c, secs, dt)
	}
}
