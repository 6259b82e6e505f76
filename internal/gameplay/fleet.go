package gameplay

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/core/event"
	"github.com/orrery/orrery/internal/physics"
	"go.uber.org/zap"
)

// Shot is the outcome of one broadside ray.
type Shot struct {
	Side   event.Side
	From   mgl32.Vec3
	To     mgl32.Vec3
	Hit    physics.RayHit
	HitAny bool
	Target *Ship // another fleet ship hit, nil otherwise
	Damage float32
}

// Fleet is the registry of ships in a combat scene, keyed by body.
type Fleet struct {
	world  *physics.World
	bus    *event.Bus
	log    *zap.Logger
	ships  []*Ship
	byBody map[*physics.Body]*Ship
}

func NewFleet(world *physics.World, bus *event.Bus, log *zap.Logger) *Fleet {
	return &Fleet{
		world:  world,
		bus:    bus,
		log:    log,
		byBody: make(map[*physics.Body]*Ship),
	}
}

func (f *Fleet) Add(s *Ship) {
	f.ships = append(f.ships, s)
	f.byBody[s.body] = s
}

func (f *Fleet) Ships() []*Ship { return f.ships }

func (f *Fleet) Len() int { return len(f.ships) }

// ShipByBody resolves a ray hit to a registered ship.
func (f *Fleet) ShipByBody(b *physics.Body) (*Ship, bool) {
	s, ok := f.byBody[b]
	return s, ok
}

// ShipByName finds a ship by its entity name.
func (f *Fleet) ShipByName(name string) (*Ship, bool) {
	for _, s := range f.ships {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Alive counts ships that are still afloat.
func (f *Fleet) Alive() int {
	n := 0
	for _, s := range f.ships {
		if !s.sunk {
			n++
		}
	}
	return n
}

// Control applies every ship's movement intents. Call before the physics step.
func (f *Fleet) Control(dt time.Duration, wind mgl32.Vec3) {
	for _, s := range f.ships {
		s.Update(dt, wind)
	}
}

// Resolve handles fire intents and refreshes each side's line of sight,
// then clears the fire intents.
func (f *Fleet) Resolve() []Shot {
	var shots []Shot
	for _, s := range f.ships {
		for _, side := range []event.Side{event.SideLeft, event.SideRight} {
			wants := s.Intents.FireLeft
			if side == event.SideRight {
				wants = s.Intents.FireRight
			}
			if wants {
				if shot, ok := f.Fire(s, side); ok {
					shots = append(shots, shot)
				}
			}
			f.LineOfSight(s, side)
		}
		s.Intents.FireLeft = false
		s.Intents.FireRight = false
	}
	return shots
}

// Fire runs the reload gate for one side and, if accepted, casts the
// broadside ray and applies damage to the ship it hits.
func (f *Fleet) Fire(s *Ship, side event.Side) (Shot, bool) {
	if !s.tryFire(side) {
		return Shot{}, false
	}
	shot := f.cast(s, side, true)
	event.Emit(f.bus, event.ShotFired{Shooter: s.Entity, Side: side, From: shot.From, To: shot.To})
	return shot, true
}

// LineOfSight casts the broadside ray without firing and updates the
// side's aim point. It never deals damage.
func (f *Fleet) LineOfSight(s *Ship, side event.Side) Shot {
	shot := f.cast(s, side, false)
	if shot.HitAny {
		s.aims[side] = shot.Hit.Point
	} else {
		s.aims[side] = shot.To
	}
	return shot
}

func (f *Fleet) cast(s *Ship, side event.Side, firing bool) Shot {
	shot := Shot{Side: side, From: s.body.Position(), To: s.arcs[side]}
	shot.Hit, shot.HitAny = f.world.RayTestClosest(shot.From, shot.To, s.body)
	if !shot.HitAny {
		return shot
	}
	target, ok := f.byBody[shot.Hit.Body]
	if !ok || target == s {
		return shot
	}
	shot.Target = target
	if !firing || target.sunk {
		return shot
	}

	dmg, sank := target.damage(shot.Hit.Fraction)
	shot.Damage = dmg
	event.Emit(f.bus, event.ShipDamaged{
		Shooter:     s.Entity,
		Target:      target.Entity,
		Side:        side,
		HitFraction: shot.Hit.Fraction,
		Damage:      dmg,
		HealthLeft:  target.health,
	})
	f.log.Info("ship hit",
		zap.String("shooter", s.Name),
		zap.String("target", target.Name),
		zap.Stringer("side", side),
		zap.Float32("fraction", shot.Hit.Fraction),
		zap.Float32("damage", dmg),
		zap.Float32("health", target.health),
	)
	if sank {
		event.Emit(f.bus, event.ShipSunk{Ship: target.Entity, Sinker: s.Entity})
		f.log.Info("ship sunk", zap.String("ship", target.Name), zap.String("by", s.Name))
	}
	return shot
}
