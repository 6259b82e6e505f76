package scene

import (
	"errors"
	"fmt"

	"github.com/orrery/orrery/internal/core/arena"
)

var (
	ErrOutOfRange   = errors.New("entity handle out of range")
	ErrSelfParent   = errors.New("entity cannot parent itself")
	ErrCycle        = errors.New("parent link would create a cycle")
	ErrInconsistent = errors.New("parent/child links inconsistent")
)

// Table owns every entity of a scene by contiguous index and is the only place
// parent/child links are written. Links are always stored in both directions.
type Table struct {
	pool     *arena.Pool
	entities []*Entity
}

func NewTable() *Table {
	return &Table{
		pool:     arena.NewPool(),
		entities: make([]*Entity, 0, 64),
	}
}

// Add appends e and, when parent is not Nil, wires it as the parent's last
// child. The entity's handle is assigned here and never changes.
func (t *Table) Add(e *Entity, parent arena.Handle) (arena.Handle, error) {
	var p *Entity
	if !parent.IsNil() {
		var ok bool
		if p, ok = t.Get(parent); !ok {
			return arena.Nil, fmt.Errorf("add %q under %d: %w", e.Name, parent.Index(), ErrOutOfRange)
		}
	}
	h := t.pool.Create()
	e.handle = h
	e.parent = arena.Nil
	e.children = e.children[:0]
	t.entities = append(t.entities, e)
	if p != nil {
		t.link(p, e)
	}
	return h, nil
}

// SetParent re-parents child under parent, or detaches it when parent is Nil.
// Self-parenting and cycles are rejected without touching any link.
func (t *Table) SetParent(child, parent arena.Handle) error {
	c, ok := t.Get(child)
	if !ok {
		return fmt.Errorf("set parent of %d: %w", child.Index(), ErrOutOfRange)
	}
	var p *Entity
	if !parent.IsNil() {
		if p, ok = t.Get(parent); !ok {
			return fmt.Errorf("set parent to %d: %w", parent.Index(), ErrOutOfRange)
		}
		if child == parent {
			return fmt.Errorf("%q: %w", c.Name, ErrSelfParent)
		}
		for anc := p; anc != nil; {
			if anc.handle == child {
				return fmt.Errorf("%q under %q: %w", c.Name, p.Name, ErrCycle)
			}
			if anc.parent.IsNil() {
				break
			}
			anc, _ = t.Get(anc.parent)
		}
	}
	t.unlink(c)
	if p != nil {
		t.link(p, c)
	}
	return nil
}

func (t *Table) link(p, c *Entity) {
	c.parent = p.handle
	p.children = append(p.children, c.handle)
}

func (t *Table) unlink(c *Entity) {
	if c.parent.IsNil() {
		return
	}
	if p, ok := t.Get(c.parent); ok {
		for i, h := range p.children {
			if h == c.handle {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	c.parent = arena.Nil
}

// Get resolves a handle; stale and unknown handles fail.
func (t *Table) Get(h arena.Handle) (*Entity, bool) {
	if !t.pool.Alive(h) {
		return nil, false
	}
	return t.entities[h.Index()], true
}

// At resolves a contiguous index.
func (t *Table) At(idx int) (*Entity, bool) {
	return t.Get(t.pool.At(idx))
}

// Len returns the number of slots (the index space), live or destroyed.
func (t *Table) Len() int { return len(t.entities) }

// Each visits live entities in index order.
func (t *Table) Each(fn func(*Entity)) {
	for i, e := range t.entities {
		if t.pool.Alive(t.pool.At(i)) {
			fn(e)
		}
	}
}

// Roots returns the handles of live parentless entities in index order.
func (t *Table) Roots() []arena.Handle {
	roots := make([]arena.Handle, 0, 8)
	t.Each(func(e *Entity) {
		if e.IsRoot() {
			roots = append(roots, e.handle)
		}
	})
	return roots
}

// Destroy removes one entity: its children become roots, its model reference
// is dropped and its handle goes stale. Unknown handles are a no-op.
func (t *Table) Destroy(h arena.Handle) {
	e, ok := t.Get(h)
	if !ok {
		return
	}
	t.unlink(e)
	for _, ch := range e.children {
		if c, ok := t.Get(ch); ok {
			c.parent = arena.Nil
		}
	}
	e.release()
	t.pool.Release(h)
}

// DestroyAll tears the whole table down, children before parents.
func (t *Table) DestroyAll() {
	for i := len(t.entities) - 1; i >= 0; i-- {
		t.Destroy(t.pool.At(i))
	}
}

// Validate checks bidirectional consistency of every link.
func (t *Table) Validate() error {
	var err error
	t.Each(func(e *Entity) {
		if err != nil {
			return
		}
		if !e.parent.IsNil() {
			p, ok := t.Get(e.parent)
			if !ok || !contains(p.children, e.handle) {
				err = fmt.Errorf("%q lists missing parent: %w", e.Name, ErrInconsistent)
				return
			}
		}
		for _, ch := range e.children {
			c, ok := t.Get(ch)
			if !ok || c.parent != e.handle {
				err = fmt.Errorf("%q lists foreign child: %w", e.Name, ErrInconsistent)
				return
			}
		}
	})
	return err
}

func contains(hs []arena.Handle, h arena.Handle) bool {
	for _, x := range hs {
		if x == h {
			return true
		}
	}
	return false
}
