package transform

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

const frame = 16 * time.Millisecond

func requireMatNear(t *testing.T, want, got mgl32.Mat4) {
	t.Helper()
	require.True(t, want.ApproxEqualThreshold(got, 1e-5), "want %v\ngot  %v", want, got)
}

func TestAccumulator(t *testing.T) {
	t.Run("Empty update keeps the model bit identical", func(t *testing.T) {
		a := NewAccumulator()
		a.CommitTranslation(mgl32.Vec3{1, 2, 3})
		a.CommitRotation(0.7, mgl32.Vec3{0, 1, 0})
		a.Update(frame)
		before := a.Model()

		a.Update(frame)
		a.Update(frame)

		require.Equal(t, before, a.Model())
	})

	t.Run("Single commit becomes the model exactly", func(t *testing.T) {
		a := NewAccumulator()
		m := mgl32.Mat4{
			0.1, 0.2, 0.3, 0,
			0.4, 0.5, 0.6, 0,
			0.7, 0.8, 0.9, 0,
			1.1, 1.2, 1.3, 1,
		}
		a.Commit(m)
		a.Update(frame)

		require.Equal(t, m, a.Model())
		require.Equal(t, 0, a.Pending())
	})

	t.Run("Composition order is T*R*S", func(t *testing.T) {
		s := mgl32.Scale3D(2, 3, 4)
		r := mgl32.HomogRotate3D(float32(math.Pi/3), mgl32.Vec3{0, 0, 1})
		tr := mgl32.Translate3D(5, -1, 2)

		a := NewAccumulator()
		a.CommitScale(mgl32.Vec3{2, 3, 4})
		a.CommitRotation(float32(math.Pi/3), mgl32.Vec3{0, 0, 1})
		a.CommitTranslation(mgl32.Vec3{5, -1, 2})
		a.Update(frame)

		requireMatNear(t, tr.Mul4(r).Mul4(s), a.Model())
		// Swapping the order must give a different matrix.
		require.False(t, s.Mul4(r).Mul4(tr).ApproxEqualThreshold(a.Model(), 1e-5))
	})

	t.Run("Parent origin is outermost", func(t *testing.T) {
		parent := mgl32.Translate3D(10, 0, 0).Mul4(mgl32.HomogRotate3DY(float32(math.Pi / 2)))
		a := NewAccumulator()
		a.CommitTranslation(mgl32.Vec3{0, 0, 1})
		a.CommitParentOrigin(parent)
		a.Update(frame)

		requireMatNear(t, parent.Mul4(mgl32.Translate3D(0, 0, 1)), a.Model())
	})

	t.Run("Update clears pending commits", func(t *testing.T) {
		a := NewAccumulator()
		a.CommitTranslation(mgl32.Vec3{1, 0, 0})
		a.CommitTranslation(mgl32.Vec3{1, 0, 0})
		require.Equal(t, 2, a.Pending())
		a.Update(frame)
		require.Equal(t, 0, a.Pending())
		requireMatNear(t, mgl32.Translate3D(2, 0, 0), a.Model())
	})
}

func TestRotationZeroAxis(t *testing.T) {
	require.Equal(t, mgl32.Ident4(), Rotation(1, mgl32.Vec3{}))
}

func TestDecompose(t *testing.T) {
	q := mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0})
	m := mgl32.Translate3D(1, 2, 3).Mul4(q.Mat4()).Mul4(mgl32.Scale3D(2, 2, 2))

	pos, rot, scale := Decompose(m)

	require.InDelta(t, 1, pos.X(), 1e-5)
	require.InDelta(t, 2, pos.Y(), 1e-5)
	require.InDelta(t, 3, pos.Z(), 1e-5)
	require.InDelta(t, 2, scale.X(), 1e-5)
	require.InDelta(t, 2, scale.Z(), 1e-5)
	require.True(t, rot.ApproxEqualThreshold(q, 1e-4) || rot.ApproxEqualThreshold(q.Scale(-1), 1e-4))
}
