package persist

// Buffer collects match events between flushes. It is written by event
// handlers on the frame goroutine only.
type Buffer struct {
	events []MatchEvent
	max    int
	drops  int
}

// NewBuffer caps the number of pending events; older events are kept and
// newer ones dropped once full.
func NewBuffer(max int) *Buffer {
	return &Buffer{events: make([]MatchEvent, 0, max), max: max}
}

func (b *Buffer) Add(e MatchEvent) {
	if b.max > 0 && len(b.events) >= b.max {
		b.drops++
		return
	}
	b.events = append(b.events, e)
}

// Drain returns the pending events and resets the buffer.
func (b *Buffer) Drain() []MatchEvent {
	if len(b.events) == 0 {
		return nil
	}
	out := make([]MatchEvent, len(b.events))
	copy(out, b.events)
	b.events = b.events[:0]
	return out
}

// Restore puts a failed batch back in front of anything added since.
func (b *Buffer) Restore(batch []MatchEvent) {
	if len(batch) == 0 {
		return
	}
	merged := make([]MatchEvent, 0, len(batch)+len(b.events))
	merged = append(merged, batch...)
	merged = append(merged, b.events...)
	if b.max > 0 && len(merged) > b.max {
		b.drops += len(merged) - b.max
		merged = merged[:b.max]
	}
	b.events = merged
}

func (b *Buffer) Len() int   { return len(b.events) }
func (b *Buffer) Drops() int { return b.drops }
