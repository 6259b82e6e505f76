// Package physics is the rigid-body world the scene is synchronized with:
// primitive and compound collision shapes, bodies with axis locks, a fixed
// step simulation with a per-substep tick callback, closest-hit ray queries,
// and the adapter that owns bodies on behalf of scene entities.
package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ShapeKind identifies a collision primitive.
type ShapeKind int

const (
	KindSphere ShapeKind = iota
	KindBox
	KindCylinder
	KindPlane
	KindCompound
)

// Shape is a collision shape in body-local space.
type Shape interface {
	Kind() ShapeKind
	// Bounds returns the world AABB of the shape at pose.
	Bounds(p Pose) AABB
	// LocalInertia returns the diagonal inertia tensor for mass.
	LocalInertia(mass float32) mgl32.Vec3
}

// Pose is a rigid placement: rotation then translation.
type Pose struct {
	Pos mgl32.Vec3
	Rot mgl32.Quat
}

// Mat4 returns the pose as a homogeneous matrix.
func (p Pose) Mat4() mgl32.Mat4 {
	return mgl32.Translate3D(p.Pos.X(), p.Pos.Y(), p.Pos.Z()).Mul4(p.Rot.Mat4())
}

// ToLocal maps a world point into the pose's frame.
func (p Pose) ToLocal(v mgl32.Vec3) mgl32.Vec3 {
	return p.Rot.Conjugate().Rotate(v.Sub(p.Pos))
}

// ToWorld maps a local point into world space.
func (p Pose) ToWorld(v mgl32.Vec3) mgl32.Vec3 {
	return p.Rot.Rotate(v).Add(p.Pos)
}

// Compose places a child pose (local to p) in world space.
func (p Pose) Compose(child Pose) Pose {
	return Pose{Pos: p.ToWorld(child.Pos), Rot: p.Rot.Mul(child.Rot).Normalize()}
}

// AABB is an axis-aligned bounding box. Planes use infinite extents.
type AABB struct {
	Min, Max mgl32.Vec3
}

func (a AABB) Overlaps(b AABB) bool {
	return a.Min.X() <= b.Max.X() && a.Max.X() >= b.Min.X() &&
		a.Min.Y() <= b.Max.Y() && a.Max.Y() >= b.Min.Y() &&
		a.Min.Z() <= b.Max.Z() && a.Max.Z() >= b.Min.Z()
}

func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{math32.Min(a.Min[0], b.Min[0]), math32.Min(a.Min[1], b.Min[1]), math32.Min(a.Min[2], b.Min[2])},
		Max: mgl32.Vec3{math32.Max(a.Max[0], b.Max[0]), math32.Max(a.Max[1], b.Max[1]), math32.Max(a.Max[2], b.Max[2])},
	}
}

func infiniteAABB() AABB {
	inf := math32.Inf(1)
	return AABB{Min: mgl32.Vec3{-inf, -inf, -inf}, Max: mgl32.Vec3{inf, inf, inf}}
}

// boxBounds returns the AABB of an oriented box with half extents h.
func boxBounds(p Pose, h mgl32.Vec3) AABB {
	m := p.Rot.Mat4().Mat3()
	var e mgl32.Vec3
	for i := 0; i < 3; i++ {
		e[i] = math32.Abs(m.At(i, 0))*h[0] + math32.Abs(m.At(i, 1))*h[1] + math32.Abs(m.At(i, 2))*h[2]
	}
	return AABB{Min: p.Pos.Sub(e), Max: p.Pos.Add(e)}
}

// Sphere is centred on the body origin.
type Sphere struct {
	Radius float32
}

func (s *Sphere) Kind() ShapeKind { return KindSphere }

func (s *Sphere) Bounds(p Pose) AABB {
	r := mgl32.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{Min: p.Pos.Sub(r), Max: p.Pos.Add(r)}
}

func (s *Sphere) LocalInertia(mass float32) mgl32.Vec3 {
	i := 0.4 * mass * s.Radius * s.Radius
	return mgl32.Vec3{i, i, i}
}

// Box is given by its half extents.
type Box struct {
	HalfExtents mgl32.Vec3
}

func (b *Box) Kind() ShapeKind { return KindBox }

func (b *Box) Bounds(p Pose) AABB { return boxBounds(p, b.HalfExtents) }

func (b *Box) LocalInertia(mass float32) mgl32.Vec3 {
	x, y, z := b.HalfExtents[0], b.HalfExtents[1], b.HalfExtents[2]
	return mgl32.Vec3{
		mass / 3 * (y*y + z*z),
		mass / 3 * (x*x + z*z),
		mass / 3 * (x*x + y*y),
	}
}

// Cylinder is aligned with the local Y axis. Contacts treat it as its
// bounding box; ray queries use the exact surface.
type Cylinder struct {
	Radius     float32
	HalfHeight float32
}

func (c *Cylinder) Kind() ShapeKind { return KindCylinder }

func (c *Cylinder) halfExtents() mgl32.Vec3 {
	return mgl32.Vec3{c.Radius, c.HalfHeight, c.Radius}
}

func (c *Cylinder) Bounds(p Pose) AABB { return boxBounds(p, c.halfExtents()) }

func (c *Cylinder) LocalInertia(mass float32) mgl32.Vec3 {
	r2 := c.Radius * c.Radius
	side := mass * (3*r2 + 4*c.HalfHeight*c.HalfHeight) / 12
	return mgl32.Vec3{side, mass * r2 / 2, side}
}

// Plane is the half-space dot(Normal, x) >= Constant in body-local space.
// Bodies are pushed to the side the normal points to.
type Plane struct {
	Normal   mgl32.Vec3
	Constant float32
}

func (pl *Plane) Kind() ShapeKind { return KindPlane }

func (pl *Plane) Bounds(Pose) AABB { return infiniteAABB() }

func (pl *Plane) LocalInertia(float32) mgl32.Vec3 { return mgl32.Vec3{} }

// world returns the plane normal and constant in world space.
func (pl *Plane) world(p Pose) (mgl32.Vec3, float32) {
	n := p.Rot.Rotate(pl.Normal).Normalize()
	return n, pl.Constant + n.Dot(p.Pos)
}

// Child is one member of a compound shape.
type Child struct {
	Local Pose
	Shape Shape
}

// Compound groups several shapes rigidly, e.g. the walls of a table.
type Compound struct {
	Children []Child
}

func (c *Compound) Kind() ShapeKind { return KindCompound }

func (c *Compound) Bounds(p Pose) AABB {
	if len(c.Children) == 0 {
		return AABB{Min: p.Pos, Max: p.Pos}
	}
	out := c.Children[0].Shape.Bounds(p.Compose(c.Children[0].Local))
	for _, ch := range c.Children[1:] {
		out = out.Union(ch.Shape.Bounds(p.Compose(ch.Local)))
	}
	return out
}

// LocalInertia approximates the compound by its children at the origin.
func (c *Compound) LocalInertia(mass float32) mgl32.Vec3 {
	var out mgl32.Vec3
	if len(c.Children) == 0 {
		return out
	}
	share := mass / float32(len(c.Children))
	for _, ch := range c.Children {
		out = out.Add(ch.Shape.LocalInertia(share))
	}
	return out
}

// AddChild appends a shape at a local offset.
func (c *Compound) AddChild(local Pose, s Shape) {
	if local.Rot == (mgl32.Quat{}) {
		local.Rot = mgl32.QuatIdent()
	}
	c.Children = append(c.Children, Child{Local: local, Shape: s})
}
