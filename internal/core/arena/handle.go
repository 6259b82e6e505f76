package arena

// Handle encodes a 32-bit slot index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on release to invalidate stale refs.
// The zero generation is never issued, so the zero Handle is Nil.
type Handle uint64

// Nil is the "no entity" handle (no parent, no follow target).
const Nil Handle = 0

func NewHandle(index uint32, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

func (h Handle) Index() uint32      { return uint32(h) }
func (h Handle) Generation() uint32 { return uint32(h >> 32) }
func (h Handle) IsNil() bool        { return h == Nil }

// Pool hands out generation-checked handles over a contiguous index space.
// Slots are never reused within a session: scene tables are append-only, and
// a released slot only serves to make old handles fail Alive.
type Pool struct {
	generations []uint32
	released    []bool
}

func NewPool() *Pool {
	return &Pool{
		generations: make([]uint32, 0, 64),
		released:    make([]bool, 0, 64),
	}
}

// Create appends a new slot and returns its handle.
func (p *Pool) Create() Handle {
	idx := uint32(len(p.generations))
	p.generations = append(p.generations, 1)
	p.released = append(p.released, false)
	return NewHandle(idx, 1)
}

// Alive reports whether h refers to a live slot of this pool.
func (p *Pool) Alive(h Handle) bool {
	idx := h.Index()
	if h.IsNil() || int(idx) >= len(p.generations) {
		return false
	}
	return !p.released[idx] && p.generations[idx] == h.Generation()
}

// Release invalidates h. Releasing a stale or unknown handle is a no-op.
func (p *Pool) Release(h Handle) {
	if !p.Alive(h) {
		return
	}
	idx := h.Index()
	p.generations[idx]++
	p.released[idx] = true
}

// Len returns the number of slots ever created (live or released).
func (p *Pool) Len() int {
	return len(p.generations)
}

// At returns the current handle of slot idx, or Nil if the slot is released
// or out of range.
func (p *Pool) At(idx int) Handle {
	if idx < 0 || idx >= len(p.generations) || p.released[idx] {
		return Nil
	}
	return NewHandle(uint32(idx), p.generations[idx])
}
