package transform

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Rotation returns a homogeneous rotation of angle radians about axis.
func Rotation(angle float32, axis mgl32.Vec3) mgl32.Mat4 {
	if axis.Len() == 0 || angle == 0 {
		return mgl32.Ident4()
	}
	return mgl32.HomogRotate3D(angle, axis.Normalize())
}

// Orbit returns the position on a circle of radius r in the XZ plane.
func Orbit(radius, angle float32) mgl32.Vec3 {
	return mgl32.Vec3{radius * math32.Cos(angle), 0, radius * math32.Sin(angle)}
}

// Decompose splits an affine matrix into translation, rotation and scale.
// Shear is not represented; scene matrices are built from TRS commits only.
func Decompose(m mgl32.Mat4) (translation mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) {
	translation = m.Col(3).Vec3()

	c0 := m.Col(0).Vec3()
	c1 := m.Col(1).Vec3()
	c2 := m.Col(2).Vec3()
	scale = mgl32.Vec3{c0.Len(), c1.Len(), c2.Len()}
	if m.Mat3().Det() < 0 {
		scale[0] = -scale[0]
	}

	if scale[0] == 0 || scale[1] == 0 || scale[2] == 0 {
		return translation, mgl32.QuatIdent(), scale
	}
	rot := mgl32.Mat3FromCols(c0.Mul(1/scale[0]), c1.Mul(1/scale[1]), c2.Mul(1/scale[2]))
	rotation = mgl32.Mat4ToQuat(rot.Mat4()).Normalize()
	return translation, rotation, scale
}

// Position returns the world position encoded in a model matrix.
func Position(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}
