package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// RayHit is the closest intersection along a segment.
type RayHit struct {
	Body     *Body
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Fraction float32 // 0 at from, 1 at to
}

// RayTestClosest returns the closest body hit by the segment from→to.
// ignore (may be nil) is skipped, as is any shape containing from. A miss
// is reported with ok == false.
func (w *World) RayTestClosest(from, to mgl32.Vec3, ignore *Body) (hit RayHit, ok bool) {
	dir := to.Sub(from)
	if dir.Len() == 0 {
		return RayHit{}, false
	}
	best := float32(1)
	for _, b := range w.bodies {
		if b == ignore {
			continue
		}
		t, n, found := rayShape(b.shape, b.pose, from, dir)
		if !found || t > best || (ok && t == best) {
			continue
		}
		best, ok = t, true
		hit = RayHit{Body: b, Point: from.Add(dir.Mul(t)), Normal: n, Fraction: t}
	}
	return hit, ok
}

// rayShape intersects from + t*dir, t in [0,1], with a shape at pose.
func rayShape(s Shape, p Pose, from, dir mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	switch sh := s.(type) {
	case *Sphere:
		return raySphere(sh.Radius, p.Pos, from, dir)
	case *Box:
		return rayBox(sh.HalfExtents, p, from, dir)
	case *Cylinder:
		return rayCylinder(sh, p, from, dir)
	case *Plane:
		return rayPlane(sh, p, from, dir)
	case *Compound:
		var (
			best   = math32.Inf(1)
			normal mgl32.Vec3
			ok     bool
		)
		for _, ch := range sh.Children {
			if t, n, hit := rayShape(ch.Shape, p.Compose(ch.Local), from, dir); hit && t < best {
				best, normal, ok = t, n, true
			}
		}
		return best, normal, ok
	}
	return 0, mgl32.Vec3{}, false
}

func raySphere(r float32, c, from, dir mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	m := from.Sub(c)
	cc := m.Dot(m) - r*r
	if cc <= 0 {
		return 0, mgl32.Vec3{}, false
	}
	a := dir.Dot(dir)
	b := m.Dot(dir)
	disc := b*b - a*cc
	if b > 0 || disc < 0 {
		return 0, mgl32.Vec3{}, false
	}
	t := (-b - math32.Sqrt(disc)) / a
	if t < 0 || t > 1 {
		return 0, mgl32.Vec3{}, false
	}
	return t, from.Add(dir.Mul(t)).Sub(c).Normalize(), true
}

func rayBox(h mgl32.Vec3, p Pose, from, dir mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	o := p.ToLocal(from)
	d := p.Rot.Conjugate().Rotate(dir)
	tmin, tmax := math32.Inf(-1), math32.Inf(1)
	axis := -1
	var sign float32
	inside := true
	for i := 0; i < 3; i++ {
		if math32.Abs(o[i]) >= h[i] {
			inside = false
		}
		if math32.Abs(d[i]) < 1e-9 {
			if math32.Abs(o[i]) > h[i] {
				return 0, mgl32.Vec3{}, false
			}
			continue
		}
		t1 := (-h[i] - o[i]) / d[i]
		t2 := (h[i] - o[i]) / d[i]
		s := float32(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1
		}
		if t1 > tmin {
			tmin, axis, sign = t1, i, s
		}
		tmax = math32.Min(tmax, t2)
		if tmin > tmax {
			return 0, mgl32.Vec3{}, false
		}
	}
	if inside || axis < 0 || tmin < 0 || tmin > 1 {
		return 0, mgl32.Vec3{}, false
	}
	var n mgl32.Vec3
	n[axis] = sign
	return tmin, p.Rot.Rotate(n), true
}

func rayCylinder(c *Cylinder, p Pose, from, dir mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	o := p.ToLocal(from)
	d := p.Rot.Conjugate().Rotate(dir)
	r2 := c.Radius * c.Radius
	if o[0]*o[0]+o[2]*o[2] < r2 && math32.Abs(o[1]) < c.HalfHeight {
		return 0, mgl32.Vec3{}, false
	}

	best := math32.Inf(1)
	var n mgl32.Vec3

	a := d[0]*d[0] + d[2]*d[2]
	if a > 1e-12 {
		b := o[0]*d[0] + o[2]*d[2]
		cc := o[0]*o[0] + o[2]*o[2] - r2
		if disc := b*b - a*cc; disc >= 0 {
			t := (-b - math32.Sqrt(disc)) / a
			if y := o[1] + t*d[1]; t >= 0 && t <= 1 && math32.Abs(y) <= c.HalfHeight {
				best = t
				n = mgl32.Vec3{o[0] + t*d[0], 0, o[2] + t*d[2]}.Normalize()
			}
		}
	}
	if math32.Abs(d[1]) > 1e-9 {
		for _, y0 := range []float32{c.HalfHeight, -c.HalfHeight} {
			t := (y0 - o[1]) / d[1]
			if t < 0 || t > 1 || t >= best {
				continue
			}
			x, z := o[0]+t*d[0], o[2]+t*d[2]
			if x*x+z*z <= r2 {
				best = t
				n = mgl32.Vec3{0, math32.Copysign(1, y0), 0}
			}
		}
	}
	if math32.IsInf(best, 1) {
		return 0, mgl32.Vec3{}, false
	}
	return best, p.Rot.Rotate(n), true
}

// rayPlane only reports hits on the side the normal faces.
func rayPlane(pl *Plane, p Pose, from, dir mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	n, c := pl.world(p)
	dist := n.Dot(from) - c
	denom := n.Dot(dir)
	if dist < 0 || denom >= 0 {
		return 0, mgl32.Vec3{}, false
	}
	t := -dist / denom
	if t > 1 {
		return 0, mgl32.Vec3{}, false
	}
	return t, n, true
}
