package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/core/arena"
)

// MotionState caches the world transform handed to the scene each frame.
type MotionState struct {
	transform mgl32.Mat4
}

func (m *MotionState) WorldTransform() mgl32.Mat4 { return m.transform }

// BodyConfig holds construction parameters of a rigid body.
type BodyConfig struct {
	Shape          Shape
	Mass           float32 // 0 makes the body static
	Kinematic      bool    // moved by code through its velocities
	Pose           Pose
	Restitution    float32
	Friction       float32
	LinearDamping  float32 // fraction of velocity lost per second
	AngularDamping float32
	LinearFactor   mgl32.Vec3 // per-axis lock, zero means all ones
	AngularFactor  mgl32.Vec3
}

// Body is a rigid body. It is owned by whoever built it (see Adapter); the
// World only references bodies added to it.
type Body struct {
	shape  Shape
	motion *MotionState

	pose   Pose
	linVel mgl32.Vec3
	angVel mgl32.Vec3
	force  mgl32.Vec3
	torque mgl32.Vec3

	mass       float32
	invMass    float32
	invInertia mgl32.Vec3 // local diagonal

	restitution    float32
	friction       float32
	linearDamping  float32
	angularDamping float32
	linearFactor   mgl32.Vec3
	angularFactor  mgl32.Vec3
	kinematic      bool

	owner   arena.Handle
	inWorld bool
}

func NewBody(cfg BodyConfig) *Body {
	if cfg.Pose.Rot == (mgl32.Quat{}) {
		cfg.Pose.Rot = mgl32.QuatIdent()
	}
	ones := mgl32.Vec3{1, 1, 1}
	if cfg.LinearFactor == (mgl32.Vec3{}) {
		cfg.LinearFactor = ones
	}
	if cfg.AngularFactor == (mgl32.Vec3{}) {
		cfg.AngularFactor = ones
	}
	b := &Body{
		shape:          cfg.Shape,
		motion:         &MotionState{},
		pose:           cfg.Pose,
		mass:           cfg.Mass,
		restitution:    cfg.Restitution,
		friction:       cfg.Friction,
		linearDamping:  cfg.LinearDamping,
		angularDamping: cfg.AngularDamping,
		linearFactor:   cfg.LinearFactor,
		angularFactor:  cfg.AngularFactor,
		kinematic:      cfg.Kinematic,
	}
	if cfg.Mass > 0 && !cfg.Kinematic {
		b.invMass = 1 / cfg.Mass
		// A zero inertia axis stays locked instead of dividing by zero.
		inertia := cfg.Shape.LocalInertia(cfg.Mass)
		for i := 0; i < 3; i++ {
			if inertia[i] > 0 {
				b.invInertia[i] = 1 / inertia[i]
			}
		}
	}
	b.syncMotion()
	return b
}

func (b *Body) Shape() Shape            { return b.shape }
func (b *Body) Owner() arena.Handle     { return b.owner }
func (b *Body) InWorld() bool           { return b.inWorld }
func (b *Body) Mass() float32           { return b.mass }
func (b *Body) Kinematic() bool         { return b.kinematic }
func (b *Body) Pose() Pose              { return b.pose }
func (b *Body) Position() mgl32.Vec3    { return b.pose.Pos }
func (b *Body) Orientation() mgl32.Quat { return b.pose.Rot }

// IsStatic reports a zero-mass, non-kinematic body.
func (b *Body) IsStatic() bool { return b.invMass == 0 && !b.kinematic }

// Dynamic reports whether forces and contacts move the body.
func (b *Body) Dynamic() bool { return b.invMass > 0 }

// MotionState returns the body's motion state, nil once destroyed.
func (b *Body) MotionState() *MotionState { return b.motion }

// WorldTransform returns the last synchronized world transform.
func (b *Body) WorldTransform() mgl32.Mat4 {
	if b.motion == nil {
		return b.pose.Mat4()
	}
	return b.motion.transform
}

// SetPose teleports the body.
func (b *Body) SetPose(p Pose) {
	if p.Rot == (mgl32.Quat{}) {
		p.Rot = mgl32.QuatIdent()
	}
	b.pose = p
	b.syncMotion()
}

func (b *Body) LinearVelocity() mgl32.Vec3  { return b.linVel }
func (b *Body) AngularVelocity() mgl32.Vec3 { return b.angVel }

func (b *Body) SetLinearVelocity(v mgl32.Vec3) {
	if b.IsStatic() {
		return
	}
	b.linVel = mul(v, b.linearFactor)
}

func (b *Body) SetAngularVelocity(w mgl32.Vec3) {
	if b.IsStatic() {
		return
	}
	b.angVel = mul(w, b.angularFactor)
}

// ApplyCentralForce accumulates a force applied at the centre of mass until
// the next completed StepSimulation.
func (b *Body) ApplyCentralForce(f mgl32.Vec3) {
	if !b.Dynamic() {
		return
	}
	b.force = b.force.Add(mul(f, b.linearFactor))
}

// ApplyTorque accumulates a world-space torque.
func (b *Body) ApplyTorque(t mgl32.Vec3) {
	if !b.Dynamic() {
		return
	}
	b.torque = b.torque.Add(mul(t, b.angularFactor))
}

// ApplyCentralImpulse changes linear velocity immediately.
func (b *Body) ApplyCentralImpulse(j mgl32.Vec3) {
	if !b.Dynamic() {
		return
	}
	b.linVel = b.linVel.Add(mul(j.Mul(b.invMass), b.linearFactor))
}

// ApplyTorqueImpulse changes angular velocity immediately.
func (b *Body) ApplyTorqueImpulse(j mgl32.Vec3) {
	if !b.Dynamic() {
		return
	}
	b.angVel = b.angVel.Add(mul(b.invInertiaWorld(j), b.angularFactor))
}

// ApplyImpulse applies j at world point p.
func (b *Body) ApplyImpulse(j, p mgl32.Vec3) {
	if !b.Dynamic() {
		return
	}
	b.linVel = b.linVel.Add(mul(j.Mul(b.invMass), b.linearFactor))
	r := p.Sub(b.pose.Pos)
	b.angVel = b.angVel.Add(mul(b.invInertiaWorld(r.Cross(j)), b.angularFactor))
}

// ClearForces drops accumulated force and torque.
func (b *Body) ClearForces() {
	b.force = mgl32.Vec3{}
	b.torque = mgl32.Vec3{}
}

// Forward returns the body's local -Z axis in world space.
func (b *Body) Forward() mgl32.Vec3 {
	return b.pose.Rot.Rotate(mgl32.Vec3{0, 0, -1})
}

// invInertiaWorld applies R * diag(invInertia) * R^T to v.
func (b *Body) invInertiaWorld(v mgl32.Vec3) mgl32.Vec3 {
	local := b.pose.Rot.Conjugate().Rotate(v)
	return b.pose.Rot.Rotate(mul(local, b.invInertia))
}

// pointVelocity is the velocity of the body material at world point p.
func (b *Body) pointVelocity(p mgl32.Vec3) mgl32.Vec3 {
	return b.linVel.Add(b.angVel.Cross(p.Sub(b.pose.Pos)))
}

func (b *Body) integrateVelocities(h float32, gravity mgl32.Vec3) {
	if !b.Dynamic() {
		return
	}
	acc := b.force.Mul(b.invMass).Add(gravity)
	b.linVel = b.linVel.Add(mul(acc.Mul(h), b.linearFactor))
	b.angVel = b.angVel.Add(mul(b.invInertiaWorld(b.torque).Mul(h), b.angularFactor))

	if b.linearDamping > 0 {
		b.linVel = b.linVel.Mul(math32.Pow(1-b.linearDamping, h))
	}
	if b.angularDamping > 0 {
		b.angVel = b.angVel.Mul(math32.Pow(1-b.angularDamping, h))
	}
}

// maxAngularStep bounds rotation per substep to keep the quaternion update stable.
const maxAngularStep = math32.Pi / 4

func (b *Body) integratePositions(h float32) {
	if b.IsStatic() {
		return
	}
	b.pose.Pos = b.pose.Pos.Add(b.linVel.Mul(h))

	w := b.angVel
	if ang := w.Len(); ang*h > maxAngularStep {
		w = w.Mul(maxAngularStep / (ang * h))
	}
	if w != (mgl32.Vec3{}) {
		spin := mgl32.Quat{W: 0, V: w}.Mul(b.pose.Rot).Scale(0.5 * h)
		b.pose.Rot = b.pose.Rot.Add(spin).Normalize()
	}
	b.syncMotion()
}

func (b *Body) syncMotion() {
	if b.motion != nil {
		b.motion.transform = b.pose.Mat4()
	}
}

// destroy frees the body's motion state and then its shape. The body must
// already be out of the world.
func (b *Body) destroy() {
	b.motion = nil
	b.shape = nil
	b.owner = arena.Nil
}

func mul(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
