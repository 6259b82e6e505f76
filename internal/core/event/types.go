package event

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/core/arena"
)

// Side selects a ship's broadside.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// ShotFired is emitted when a reload gate accepts a fire request.
type ShotFired struct {
	Shooter arena.Handle
	Side    Side
	From    mgl32.Vec3
	To      mgl32.Vec3
}

// ShipDamaged is emitted when a fired ray hits another ship.
type ShipDamaged struct {
	Shooter     arena.Handle
	Target      arena.Handle
	Side        Side
	HitFraction float32
	Damage      float32
	HealthLeft  float32
}

// ShipSunk is emitted once when a ship's health drops to zero or below.
type ShipSunk struct {
	Ship   arena.Handle
	Sinker arena.Handle
}

// BumperHit is emitted when the pinball touches a scoring bumper.
type BumperHit struct {
	Bumper arena.Handle
	Name   string
	Points int
	Score  int
}

// BallDrained is emitted when the ball crosses the drain line.
type BallDrained struct {
	LivesLeft int
}

// GameOver ends a pinball session.
type GameOver struct {
	Score int
}
