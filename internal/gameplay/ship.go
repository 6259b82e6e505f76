// Package gameplay turns per-frame intents into physics forces and
// interprets collision results for the ship-combat and pinball scenes.
package gameplay

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/core/arena"
	"github.com/orrery/orrery/internal/core/event"
	"github.com/orrery/orrery/internal/physics"
)

// MoveState is the linear state of a ship.
type MoveState int

const (
	MoveIdle MoveState = iota
	MoveAccelerating
	MoveReversing
	MoveBraking
)

func (s MoveState) String() string {
	switch s {
	case MoveAccelerating:
		return "accelerating"
	case MoveReversing:
		return "reversing"
	case MoveBraking:
		return "braking"
	}
	return "idle"
}

// RotState is the yaw state of a ship.
type RotState int

const (
	RotIdle RotState = iota
	RotRotating
	RotBraking
)

func (s RotState) String() string {
	switch s {
	case RotRotating:
		return "rotating"
	case RotBraking:
		return "braking"
	}
	return "idle"
}

// Intents are set by the input layer and read once per frame. Fire flags
// are cleared after the fleet processes them.
type Intents struct {
	Forward   bool
	Reverse   bool
	TurnLeft  bool
	TurnRight bool
	Brake     bool
	FireLeft  bool
	FireRight bool
}

// ShipConfig tunes a ship. Speeds are in units/s and rad/s.
type ShipConfig struct {
	Thrust          float32
	ReverseImpulse  float32
	Torque          float32
	MaxSpeed        float32
	MaxAngularSpeed float32
	WindFloor       float32 // lowest thrust scalar against the wind
	ComboBrakeRatio float32 // share of MaxSpeed above which thrust+turn brakes
	BrakeDivisor    float32 // K in max -= max/K per frame
	HaltSpeed       float32
	HaltAngular     float32
	Reload          time.Duration
	Range           float32 // firing arc length
	Health          float32
	DamagePerShot   float32 // scaled by hit fraction
}

func DefaultShipConfig() ShipConfig {
	return ShipConfig{
		Thrust:          40,
		ReverseImpulse:  8,
		Torque:          6,
		MaxSpeed:        12,
		MaxAngularSpeed: 1.5,
		WindFloor:       0.3,
		ComboBrakeRatio: 0.57,
		BrakeDivisor:    10,
		HaltSpeed:       0.1,
		HaltAngular:     0.05,
		Reload:          2 * time.Second,
		Range:           30,
		Health:          100,
		DamagePerShot:   50,
	}
}

// Ship drives one ship body. It does not own the body.
type Ship struct {
	Name    string
	Entity  arena.Handle
	Intents Intents

	body    *physics.Body
	limiter *physics.SpeedLimiter
	cfg     ShipConfig

	move           MoveState
	rot            RotState
	maxSpeed       float32
	maxAngular     float32
	reverseCounter int
	torqueAccum    float32
	wind           float32

	reload [2]time.Duration
	arcs   [2]mgl32.Vec3
	aims   [2]mgl32.Vec3
	health float32
	sunk   bool
}

// NewShip registers body with limiter at the configured caps.
func NewShip(name string, entity arena.Handle, body *physics.Body, limiter *physics.SpeedLimiter, cfg ShipConfig) *Ship {
	s := &Ship{
		Name:       name,
		Entity:     entity,
		body:       body,
		limiter:    limiter,
		cfg:        cfg,
		maxSpeed:   cfg.MaxSpeed,
		maxAngular: cfg.MaxAngularSpeed,
		wind:       1,
		health:     cfg.Health,
	}
	limiter.Set(body, physics.SpeedLimit{Linear: cfg.MaxSpeed, Angular: cfg.MaxAngularSpeed})
	s.updateArcs()
	return s
}

func (s *Ship) Body() *physics.Body  { return s.body }
func (s *Ship) Move() MoveState      { return s.move }
func (s *Ship) Rot() RotState        { return s.rot }
func (s *Ship) Health() float32      { return s.health }
func (s *Ship) Sunk() bool           { return s.sunk }
func (s *Ship) MaxSpeed() float32    { return s.maxSpeed }
func (s *Ship) WindScalar() float32  { return s.wind }
func (s *Ship) Speed() float32       { return s.body.LinearVelocity().Len() }
func (s *Ship) Config() ShipConfig   { return s.cfg }
func (s *Ship) Position() mgl32.Vec3 { return s.body.Position() }

// Reload returns the remaining cooldown of a side.
func (s *Ship) Reload(side event.Side) time.Duration { return s.reload[side] }

// Arc returns the world endpoint of a side's firing arc.
func (s *Ship) Arc(side event.Side) mgl32.Vec3 { return s.arcs[side] }

// Aim returns where the side's line of sight currently ends: the first hit
// along the arc, or the arc endpoint.
func (s *Ship) Aim(side event.Side) mgl32.Vec3 { return s.aims[side] }

// Forward returns the heading flattened onto the water plane.
func (s *Ship) Forward() mgl32.Vec3 {
	f := s.body.Forward()
	f[1] = 0
	if f.Len() < 1e-6 {
		return mgl32.Vec3{0, 0, -1}
	}
	return f.Normalize()
}

// WindScalar returns clamp(dot(norm(wind), forward), floor, 1). A calm wind
// does not scale thrust.
func WindScalar(wind, forward mgl32.Vec3, floor float32) float32 {
	wind[1] = 0
	if wind.Len() < 1e-6 {
		return 1
	}
	return mgl32.Clamp(wind.Normalize().Dot(forward), floor, 1)
}

// Update advances cooldowns and applies the frame's forces and caps. It runs
// before the physics step.
func (s *Ship) Update(dt time.Duration, wind mgl32.Vec3) {
	if s.sunk {
		s.Intents = Intents{}
		return
	}
	for i := range s.reload {
		s.reload[i] = max(s.reload[i]-dt, 0)
	}
	secs := float32(dt.Seconds())
	forward := s.Forward()
	s.wind = WindScalar(wind, forward, s.cfg.WindFloor)

	s.updateMove(forward)
	s.updateRot(secs)
	s.updateArcs()
}

func (s *Ship) updateMove(forward mgl32.Vec3) {
	in := s.Intents
	speed := s.Speed()
	turning := in.TurnLeft || in.TurnRight

	if s.move != MoveBraking {
		coasting := !in.Forward && !in.Reverse && speed >= s.cfg.HaltSpeed
		if in.Brake || coasting || (in.Forward && turning && speed > s.cfg.ComboBrakeRatio*s.cfg.MaxSpeed) {
			s.move = MoveBraking
		}
	}

	switch {
	case s.move == MoveBraking:
		s.maxSpeed -= s.maxSpeed / s.cfg.BrakeDivisor
		s.limiter.SetLinear(s.body, s.maxSpeed)
		if speed < s.cfg.HaltSpeed {
			s.body.SetLinearVelocity(mgl32.Vec3{})
			s.move = MoveIdle
			s.maxSpeed = s.cfg.MaxSpeed
			s.reverseCounter = 0
			s.limiter.SetLinear(s.body, s.maxSpeed*s.wind)
		}
		return
	case in.Forward:
		s.move = MoveAccelerating
		s.reverseCounter = 0
		s.body.ApplyCentralForce(forward.Mul(s.cfg.Thrust * s.wind))
	case in.Reverse:
		s.move = MoveReversing
		if s.reverseCounter == 0 {
			s.body.ApplyCentralImpulse(forward.Mul(-s.cfg.ReverseImpulse * s.wind))
		}
		s.reverseCounter++
	default:
		s.move = MoveIdle
		s.reverseCounter = 0
	}
	s.limiter.SetLinear(s.body, s.maxSpeed*s.wind)
}

func (s *Ship) updateRot(secs float32) {
	in := s.Intents
	var turn float32
	if in.TurnLeft {
		turn++
	}
	if in.TurnRight {
		turn--
	}

	switch s.rot {
	case RotBraking:
		s.maxAngular -= s.maxAngular / s.cfg.BrakeDivisor
		s.limiter.SetAngular(s.body, s.maxAngular)
		yaw := s.body.AngularVelocity().Y()
		if math32.Abs(yaw) < s.cfg.HaltAngular {
			s.body.SetAngularVelocity(mgl32.Vec3{})
			s.rot = RotIdle
			s.torqueAccum = 0
			s.maxAngular = s.cfg.MaxAngularSpeed
			s.limiter.SetAngular(s.body, s.maxAngular)
			return
		}
		// Counter the accumulated turn only while still yawing that way.
		if sign := math32.Copysign(1, s.torqueAccum); yaw*sign > 0 {
			s.body.ApplyTorque(mgl32.Vec3{0, -sign * s.cfg.Torque, 0})
		}
	default:
		if turn == 0 {
			if s.rot == RotRotating {
				s.rot = RotBraking
			}
			return
		}
		s.rot = RotRotating
		torque := turn * s.cfg.Torque
		s.torqueAccum += torque * secs
		s.body.ApplyTorque(mgl32.Vec3{0, torque, 0})
	}
}

// Right returns the starboard direction.
func (s *Ship) Right() mgl32.Vec3 {
	return s.Forward().Cross(mgl32.Vec3{0, 1, 0}).Normalize()
}

func (s *Ship) updateArcs() {
	pos := s.body.Position()
	right := s.Right()
	s.arcs[event.SideRight] = pos.Add(right.Mul(s.cfg.Range))
	s.arcs[event.SideLeft] = pos.Sub(right.Mul(s.cfg.Range))
	s.aims = s.arcs
}

// tryFire is the reload gate: accepted only at a cooldown of zero, which
// then restarts the cooldown.
func (s *Ship) tryFire(side event.Side) bool {
	if s.sunk || s.reload[side] > 0 {
		return false
	}
	s.reload[side] = s.cfg.Reload
	return true
}

// damage applies DamagePerShot scaled by the hit fraction and reports
// whether this hit sank the ship.
func (s *Ship) damage(fraction float32) (float32, bool) {
	d := s.cfg.DamagePerShot * fraction
	s.health -= d
	if s.health <= 0 && !s.sunk {
		s.sunk = true
		return d, true
	}
	return d, false
}
