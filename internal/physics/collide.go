package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Contact is one touching point between two bodies. Normal points from A
// towards B; Depth is the penetration along it.
type Contact struct {
	A, B   *Body
	Point  mgl32.Vec3
	Normal mgl32.Vec3
	Depth  float32

	normalImpulse  float32
	tangentImpulse float32
	bias           float32
}

type contactPoint struct {
	point  mgl32.Vec3
	normal mgl32.Vec3
	depth  float32
}

func flip(cs []contactPoint) []contactPoint {
	for i := range cs {
		cs[i].normal = cs[i].normal.Mul(-1)
	}
	return cs
}

// collide runs the narrow phase for two shapes at their world poses.
func collide(sa Shape, pa Pose, sb Shape, pb Pose) []contactPoint {
	if ca, ok := sa.(*Compound); ok {
		var out []contactPoint
		for _, ch := range ca.Children {
			out = append(out, collide(ch.Shape, pa.Compose(ch.Local), sb, pb)...)
		}
		return out
	}
	if cb, ok := sb.(*Compound); ok {
		var out []contactPoint
		for _, ch := range cb.Children {
			out = append(out, collide(sa, pa, ch.Shape, pb.Compose(ch.Local))...)
		}
		return out
	}

	switch a := sa.(type) {
	case *Sphere:
		switch b := sb.(type) {
		case *Sphere:
			return sphereSphere(a, pa, b, pb)
		case *Plane:
			return spherePlane(a, pa, b, pb)
		case *Box:
			return sphereBox(a, pa, b.HalfExtents, pb)
		case *Cylinder:
			return sphereBox(a, pa, b.halfExtents(), pb)
		}
	case *Plane:
		switch sb.(type) {
		case *Plane:
			return nil
		default:
			return flip(collide(sb, pb, sa, pa))
		}
	case *Box:
		return boxVs(a.HalfExtents, pa, sb, pb)
	case *Cylinder:
		return boxVs(a.halfExtents(), pa, sb, pb)
	}
	return nil
}

func boxVs(ha mgl32.Vec3, pa Pose, sb Shape, pb Pose) []contactPoint {
	switch b := sb.(type) {
	case *Sphere:
		return flip(sphereBox(b, pb, ha, pa))
	case *Plane:
		return boxPlane(ha, pa, b, pb)
	case *Box:
		return boxBox(ha, pa, b.HalfExtents, pb)
	case *Cylinder:
		return boxBox(ha, pa, b.halfExtents(), pb)
	}
	return nil
}

func sphereSphere(a *Sphere, pa Pose, b *Sphere, pb Pose) []contactPoint {
	d := pb.Pos.Sub(pa.Pos)
	dist := d.Len()
	if dist >= a.Radius+b.Radius {
		return nil
	}
	n := mgl32.Vec3{0, 1, 0}
	if dist > 1e-6 {
		n = d.Mul(1 / dist)
	}
	return []contactPoint{{
		point:  pa.Pos.Add(n.Mul(a.Radius)),
		normal: n,
		depth:  a.Radius + b.Radius - dist,
	}}
}

func spherePlane(a *Sphere, pa Pose, b *Plane, pb Pose) []contactPoint {
	n, c := b.world(pb)
	dist := n.Dot(pa.Pos) - c
	if dist >= a.Radius {
		return nil
	}
	return []contactPoint{{
		point:  pa.Pos.Sub(n.Mul(a.Radius)),
		normal: n.Mul(-1),
		depth:  a.Radius - dist,
	}}
}

func sphereBox(a *Sphere, pa Pose, h mgl32.Vec3, pb Pose) []contactPoint {
	local := pb.ToLocal(pa.Pos)
	var closest mgl32.Vec3
	inside := true
	for i := 0; i < 3; i++ {
		closest[i] = mgl32.Clamp(local[i], -h[i], h[i])
		if closest[i] != local[i] {
			inside = false
		}
	}
	if !inside {
		world := pb.ToWorld(closest)
		d := world.Sub(pa.Pos)
		dist := d.Len()
		if dist >= a.Radius || dist < 1e-6 {
			return nil
		}
		return []contactPoint{{point: world, normal: d.Mul(1 / dist), depth: a.Radius - dist}}
	}

	axis, pen, sign := minAxis(local, h)
	var out mgl32.Vec3
	out[axis] = sign
	outward := pb.Rot.Rotate(out)
	return []contactPoint{{point: pa.Pos, normal: outward.Mul(-1), depth: a.Radius + pen}}
}

// minAxis returns the face axis of the box closest to the local point, the
// distance to it and its sign.
func minAxis(local, h mgl32.Vec3) (int, float32, float32) {
	axis, pen := 0, math32.Inf(1)
	for i := 0; i < 3; i++ {
		if d := h[i] - math32.Abs(local[i]); d < pen {
			axis, pen = i, d
		}
	}
	sign := float32(1)
	if local[axis] < 0 {
		sign = -1
	}
	return axis, pen, sign
}

func boxVertices(h mgl32.Vec3, p Pose) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := 0; i < 8; i++ {
		v := h
		if i&1 != 0 {
			v[0] = -v[0]
		}
		if i&2 != 0 {
			v[1] = -v[1]
		}
		if i&4 != 0 {
			v[2] = -v[2]
		}
		out[i] = p.ToWorld(v)
	}
	return out
}

func boxPlane(h mgl32.Vec3, pa Pose, b *Plane, pb Pose) []contactPoint {
	n, c := b.world(pb)
	var out []contactPoint
	for _, v := range boxVertices(h, pa) {
		if dist := n.Dot(v) - c; dist < 0 {
			out = append(out, contactPoint{point: v, normal: n.Mul(-1), depth: -dist})
		}
	}
	return out
}

// boxBox reports the vertices of each box found inside the other. Edge-edge
// crossings are not detected.
func boxBox(ha mgl32.Vec3, pa Pose, hb mgl32.Vec3, pb Pose) []contactPoint {
	var out []contactPoint
	for _, v := range boxVertices(ha, pa) {
		if cp, ok := vertexInBox(v, hb, pb); ok {
			out = append(out, cp)
		}
	}
	for _, v := range boxVertices(hb, pb) {
		if cp, ok := vertexInBox(v, ha, pa); ok {
			out = append(out, flip([]contactPoint{cp})...)
		}
	}
	return out
}

// vertexInBox tests a vertex of A against box B and returns the contact with
// the normal pointing from A into B.
func vertexInBox(v, h mgl32.Vec3, p Pose) (contactPoint, bool) {
	local := p.ToLocal(v)
	for i := 0; i < 3; i++ {
		if math32.Abs(local[i]) > h[i] {
			return contactPoint{}, false
		}
	}
	axis, pen, sign := minAxis(local, h)
	var out mgl32.Vec3
	out[axis] = sign
	return contactPoint{point: v, normal: p.Rot.Rotate(out).Mul(-1), depth: pen}, true
}
