// Package transform implements the per-entity commit/collapse protocol that
// turns a frame's worth of transform recipes into one model matrix.
package transform

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Accumulator is an ordered list of pending matrices plus the last collapsed
// model matrix. The first committed matrix is applied first to local geometry:
// commits [S, R, T] collapse to T*R*S.
type Accumulator struct {
	pending []mgl32.Mat4
	model   mgl32.Mat4
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		pending: make([]mgl32.Mat4, 0, 8),
		model:   mgl32.Ident4(),
	}
}

// Commit appends a raw matrix, e.g. a rigid body's world transform.
func (a *Accumulator) Commit(m mgl32.Mat4) {
	a.pending = append(a.pending, m)
}

func (a *Accumulator) CommitScale(s mgl32.Vec3) {
	a.Commit(mgl32.Scale3D(s.X(), s.Y(), s.Z()))
}

// CommitRotation appends a rotation of angle radians about axis. A zero axis
// commits identity so an unconfigured recipe does not produce NaNs.
func (a *Accumulator) CommitRotation(angle float32, axis mgl32.Vec3) {
	a.Commit(Rotation(angle, axis))
}

func (a *Accumulator) CommitTranslation(v mgl32.Vec3) {
	a.Commit(mgl32.Translate3D(v.X(), v.Y(), v.Z()))
}

// CommitTilt appends a fixed tilt (axial tilt of a planet, heel of a hull).
func (a *Accumulator) CommitTilt(angle float32, axis mgl32.Vec3) {
	a.Commit(Rotation(angle, axis))
}

// CommitParentOrigin appends the parent's collapsed model matrix. It must be
// the last commit of the frame so the parent is the outermost transform.
func (a *Accumulator) CommitParentOrigin(m mgl32.Mat4) {
	a.Commit(m)
}

// Update collapses the pending list into the model matrix and clears it.
// With nothing pending the previous model matrix is kept untouched; a single
// pending matrix becomes the model matrix as is.
func (a *Accumulator) Update(_ time.Duration) {
	switch len(a.pending) {
	case 0:
		return
	case 1:
		a.model = a.pending[0]
	default:
		result := a.pending[0]
		for _, m := range a.pending[1:] {
			result = m.Mul4(result)
		}
		a.model = result
	}
	a.pending = a.pending[:0]
}

// Model returns the last collapsed model matrix.
func (a *Accumulator) Model() mgl32.Mat4 { return a.model }

// Pending returns the number of commits waiting for Update.
func (a *Accumulator) Pending() int { return len(a.pending) }

// Reset sets the model matrix directly and drops pending commits.
func (a *Accumulator) Reset(m mgl32.Mat4) {
	a.model = m
	a.pending = a.pending[:0]
}
