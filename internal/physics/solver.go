package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	correctionPercent   = 0.4
	correctionSlop      = 0.005
	restitutionVelocity = 0.5 // approach speed below which contacts do not bounce
)

func invMass(b *Body) float32 {
	if b.Dynamic() {
		return b.invMass
	}
	return 0
}

// effectiveMass returns the inverse effective mass of the pair along dir at p.
func effectiveMass(a, b *Body, p, dir mgl32.Vec3) float32 {
	k := invMass(a) + invMass(b)
	if a.Dynamic() {
		ra := p.Sub(a.pose.Pos)
		k += a.invInertiaWorld(ra.Cross(dir)).Cross(ra).Dot(dir)
	}
	if b.Dynamic() {
		rb := p.Sub(b.pose.Pos)
		k += b.invInertiaWorld(rb.Cross(dir)).Cross(rb).Dot(dir)
	}
	return k
}

func relativeVelocity(c *Contact) mgl32.Vec3 {
	return c.B.pointVelocity(c.Point).Sub(c.A.pointVelocity(c.Point))
}

func prepareContacts(contacts []*Contact) {
	for _, c := range contacts {
		vn := relativeVelocity(c).Dot(c.Normal)
		c.bias = 0
		if vn < -restitutionVelocity {
			c.bias = -c.A.restitution * c.B.restitution * vn
		}
	}
}

func solveVelocities(contacts []*Contact, iterations int) {
	for it := 0; it < iterations; it++ {
		for _, c := range contacts {
			solveContact(c)
		}
	}
}

func solveContact(c *Contact) {
	kn := effectiveMass(c.A, c.B, c.Point, c.Normal)
	if kn <= 0 {
		return
	}
	vr := relativeVelocity(c)
	vn := vr.Dot(c.Normal)
	j := (c.bias - vn) / kn
	acc := math32.Max(c.normalImpulse+j, 0)
	j = acc - c.normalImpulse
	c.normalImpulse = acc
	applyPair(c, c.Normal.Mul(j))

	mu := c.A.friction * c.B.friction
	if mu <= 0 {
		return
	}
	vr = relativeVelocity(c)
	tangent := vr.Sub(c.Normal.Mul(vr.Dot(c.Normal)))
	speed := tangent.Len()
	if speed < 1e-6 {
		return
	}
	tangent = tangent.Mul(1 / speed)
	kt := effectiveMass(c.A, c.B, c.Point, tangent)
	if kt <= 0 {
		return
	}
	jt := -speed / kt
	limit := mu * c.normalImpulse
	accT := mgl32.Clamp(c.tangentImpulse+jt, -limit, limit)
	jt = accT - c.tangentImpulse
	c.tangentImpulse = accT
	applyPair(c, tangent.Mul(jt))
}

func applyPair(c *Contact, j mgl32.Vec3) {
	c.A.ApplyImpulse(j.Mul(-1), c.Point)
	c.B.ApplyImpulse(j, c.Point)
}

// correctPositions pushes overlapping bodies apart in proportion to their
// inverse masses.
func correctPositions(contacts []*Contact) {
	for _, c := range contacts {
		ia, ib := invMass(c.A), invMass(c.B)
		if ia+ib == 0 {
			continue
		}
		depth := c.Depth - correctionSlop
		if depth <= 0 {
			continue
		}
		corr := c.Normal.Mul(depth / (ia + ib) * correctionPercent)
		if ia > 0 {
			c.A.pose.Pos = c.A.pose.Pos.Sub(corr.Mul(ia))
			c.A.syncMotion()
		}
		if ib > 0 {
			c.B.pose.Pos = c.B.pose.Pos.Add(corr.Mul(ib))
			c.B.syncMotion()
		}
	}
}
