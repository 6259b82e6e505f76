package gameplay

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/core/arena"
	"github.com/orrery/orrery/internal/core/event"
	"github.com/orrery/orrery/internal/physics"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const frame = time.Second / 60

type harness struct {
	world   *physics.World
	limiter *physics.SpeedLimiter
	bus     *event.Bus
	fleet   *Fleet
}

func newHarness() *harness {
	limiter := physics.NewSpeedLimiter()
	world := physics.NewWorld(physics.Config{}, limiter.Tick)
	bus := event.NewBus()
	return &harness{
		world:   world,
		limiter: limiter,
		bus:     bus,
		fleet:   NewFleet(world, bus, zap.NewNop()),
	}
}

func (h *harness) ship(t *testing.T, name string, idx uint32, pos mgl32.Vec3) *Ship {
	t.Helper()
	body := physics.NewBody(physics.BodyConfig{
		Shape:         &physics.Sphere{Radius: 1},
		Mass:          1,
		Pose:          physics.Pose{Pos: pos},
		LinearFactor:  mgl32.Vec3{1, 0, 1},
		AngularFactor: mgl32.Vec3{0, 1, 0},
	})
	require.NoError(t, h.world.AddBody(body))
	s := NewShip(name, arena.NewHandle(idx, 1), body, h.limiter, DefaultShipConfig())
	h.fleet.Add(s)
	return s
}

func (h *harness) frame(ships ...*Ship) {
	for _, s := range ships {
		s.Update(frame, mgl32.Vec3{})
	}
	h.world.StepSimulation(frame, physics.DefaultMaxSubSteps)
}

func TestReloadGate(t *testing.T) {
	h := newHarness()
	s := h.ship(t, "red", 1, mgl32.Vec3{})

	_, ok := h.fleet.Fire(s, event.SideLeft)
	require.True(t, ok)
	require.Equal(t, 2*time.Second, s.Reload(event.SideLeft))
	require.Equal(t, 1, h.bus.Pending())

	// Rejected requests leave the timer alone and cast nothing.
	_, ok = h.fleet.Fire(s, event.SideLeft)
	require.False(t, ok)
	require.Equal(t, 2*time.Second, s.Reload(event.SideLeft))
	require.Equal(t, 1, h.bus.Pending())

	// The other side is independent.
	_, ok = h.fleet.Fire(s, event.SideRight)
	require.True(t, ok)

	s.Update(time.Second, mgl32.Vec3{})
	require.Equal(t, time.Second, s.Reload(event.SideLeft))
	_, ok = h.fleet.Fire(s, event.SideLeft)
	require.False(t, ok)

	s.Update(1500*time.Millisecond, mgl32.Vec3{})
	require.Equal(t, time.Duration(0), s.Reload(event.SideLeft))
	_, ok = h.fleet.Fire(s, event.SideLeft)
	require.True(t, ok)
	require.Equal(t, 2*time.Second, s.Reload(event.SideLeft))
}

func TestDamageGrowsWithHitFraction(t *testing.T) {
	damageAt := func(x float32) (float32, float32) {
		h := newHarness()
		shooter := h.ship(t, "red", 1, mgl32.Vec3{})
		target := h.ship(t, "blue", 2, mgl32.Vec3{x, 0, 0})
		shot, ok := h.fleet.Fire(shooter, event.SideRight)
		require.True(t, ok)
		require.Same(t, target, shot.Target)
		return shot.Hit.Fraction, target.Health()
	}

	// Range 30 along +X; the target surface sits one unit before its centre.
	near, nearHealth := damageAt(7)
	far, farHealth := damageAt(28)
	require.InDelta(t, 0.2, near, 1e-4)
	require.InDelta(t, 0.9, far, 1e-4)
	require.InDelta(t, 90, nearHealth, 1e-2)
	require.InDelta(t, 55, farHealth, 1e-2)
}

func TestLineOfSightNeverDamages(t *testing.T) {
	h := newHarness()
	shooter := h.ship(t, "red", 1, mgl32.Vec3{})
	target := h.ship(t, "blue", 2, mgl32.Vec3{10, 0, 0})

	shot := h.fleet.LineOfSight(shooter, event.SideRight)
	require.True(t, shot.HitAny)
	require.Same(t, target, shot.Target)
	require.Zero(t, shot.Damage)
	require.Equal(t, float32(100), target.Health())
	require.True(t, shooter.Aim(event.SideRight).ApproxEqualThreshold(mgl32.Vec3{9, 0, 0}, 1e-4))
	require.Equal(t, 0, h.bus.Pending())

	// Nothing on the left: aim rests at the arc end.
	h.fleet.LineOfSight(shooter, event.SideLeft)
	require.Equal(t, shooter.Arc(event.SideLeft), shooter.Aim(event.SideLeft))
}

func TestFireAtScenery(t *testing.T) {
	h := newHarness()
	shooter := h.ship(t, "red", 1, mgl32.Vec3{})
	rock := physics.NewBody(physics.BodyConfig{Shape: &physics.Box{HalfExtents: mgl32.Vec3{1, 1, 1}}, Pose: physics.Pose{Pos: mgl32.Vec3{-5, 0, 0}}})
	require.NoError(t, h.world.AddBody(rock))

	shot, ok := h.fleet.Fire(shooter, event.SideLeft)
	require.True(t, ok)
	require.True(t, shot.HitAny)
	require.Nil(t, shot.Target)
	require.Zero(t, shot.Damage)
}

func TestResolveSinksShip(t *testing.T) {
	h := newHarness()
	shooter := h.ship(t, "red", 1, mgl32.Vec3{})
	target := h.ship(t, "blue", 2, mgl32.Vec3{30.5, 0, 0})
	var sunk []event.ShipSunk
	event.Subscribe(h.bus, func(ev event.ShipSunk) { sunk = append(sunk, ev) })

	for i := 0; i < 3; i++ {
		shooter.Intents.FireRight = true
		shots := h.fleet.Resolve()
		require.Len(t, shots, 1)
		require.False(t, shooter.Intents.FireRight)
		shooter.Update(3*time.Second, mgl32.Vec3{})
	}
	require.True(t, target.Sunk())
	require.Equal(t, 1, h.fleet.Alive())

	h.bus.SwapBuffers()
	h.bus.DispatchAll()
	require.Equal(t, []event.ShipSunk{{Ship: target.Entity, Sinker: shooter.Entity}}, sunk)
}

func TestCoastingShipHalts(t *testing.T) {
	h := newHarness()
	s := h.ship(t, "red", 1, mgl32.Vec3{})
	s.Body().SetLinearVelocity(mgl32.Vec3{0, 0, -10})

	last := s.Speed()
	for i := 0; i < 200 && (i == 0 || s.Move() == MoveBraking); i++ {
		h.frame(s)
		v := s.Body().LinearVelocity()
		require.LessOrEqual(t, v.Z(), float32(0), "frame %d", i)
		require.Equal(t, float32(0), v.X())
		require.LessOrEqual(t, s.Speed(), last, "frame %d", i)
		last = s.Speed()
	}
	require.Equal(t, MoveIdle, s.Move())
	require.Equal(t, mgl32.Vec3{}, s.Body().LinearVelocity())
	require.Equal(t, s.Config().MaxSpeed, s.MaxSpeed())

	for i := 0; i < 10; i++ {
		h.frame(s)
		require.Equal(t, MoveIdle, s.Move())
	}
	require.Equal(t, mgl32.Vec3{}, s.Body().LinearVelocity())
}

func TestReleasingThrustBrakes(t *testing.T) {
	h := newHarness()
	s := h.ship(t, "red", 1, mgl32.Vec3{})
	s.Intents.Forward = true
	for i := 0; i < 30; i++ {
		h.frame(s)
	}
	require.Equal(t, MoveAccelerating, s.Move())
	require.Greater(t, s.Speed(), s.Config().HaltSpeed)

	s.Intents.Forward = false
	h.frame(s)
	require.Equal(t, MoveBraking, s.Move())
	for i := 0; i < 300 && s.Move() != MoveIdle; i++ {
		h.frame(s)
	}
	require.Equal(t, MoveIdle, s.Move())
	require.Equal(t, mgl32.Vec3{}, s.Body().LinearVelocity())
}

func TestBrakeKeyStopsExactly(t *testing.T) {
	h := newHarness()
	s := h.ship(t, "red", 1, mgl32.Vec3{})
	s.Body().SetLinearVelocity(mgl32.Vec3{0, 0, -10})
	s.Intents = Intents{Forward: true, Brake: true}

	for i := 0; i < 200 && (i == 0 || s.Move() == MoveBraking); i++ {
		h.frame(s)
	}
	require.Equal(t, MoveIdle, s.Move())
	require.Equal(t, mgl32.Vec3{}, s.Body().LinearVelocity())
}

func TestComboBrake(t *testing.T) {
	h := newHarness()
	s := h.ship(t, "red", 1, mgl32.Vec3{})
	s.Intents = Intents{Forward: true, TurnLeft: true}

	s.Body().SetLinearVelocity(mgl32.Vec3{0, 0, -5})
	s.Update(frame, mgl32.Vec3{})
	require.Equal(t, MoveAccelerating, s.Move())

	s.Body().SetLinearVelocity(mgl32.Vec3{0, 0, -8})
	s.Update(frame, mgl32.Vec3{})
	require.Equal(t, MoveBraking, s.Move())
}

func TestReverseImpulseOnce(t *testing.T) {
	h := newHarness()
	s := h.ship(t, "red", 1, mgl32.Vec3{})
	s.Intents.Reverse = true
	for i := 0; i < 3; i++ {
		s.Update(frame, mgl32.Vec3{})
	}
	require.Equal(t, MoveReversing, s.Move())
	require.InDelta(t, 8, s.Body().LinearVelocity().Z(), 1e-5)

	s.Intents.Reverse = false
	for i := 0; i < 300 && (i == 0 || s.Move() != MoveIdle); i++ {
		h.frame(s)
	}
	require.Equal(t, MoveIdle, s.Move())

	s.Intents.Reverse = true
	s.Update(frame, mgl32.Vec3{})
	require.Equal(t, MoveReversing, s.Move())
	require.InDelta(t, 8, s.Body().LinearVelocity().Z(), 1e-5)
}

func TestWindScalesThrustAndCap(t *testing.T) {
	fwd := mgl32.Vec3{0, 0, -1}
	require.Equal(t, float32(1), WindScalar(mgl32.Vec3{0, 0, -3}, fwd, 0.3))
	require.Equal(t, float32(0.3), WindScalar(mgl32.Vec3{0, 0, 1}, fwd, 0.3))
	require.Equal(t, float32(0.3), WindScalar(mgl32.Vec3{1, 0, 0}, fwd, 0.3))
	require.Equal(t, float32(1), WindScalar(mgl32.Vec3{}, fwd, 0.3))

	h := newHarness()
	s := h.ship(t, "red", 1, mgl32.Vec3{})
	s.Intents.Forward = true
	s.Update(frame, mgl32.Vec3{0, 0, 1})
	lim, ok := h.limiter.Limit(s.Body())
	require.True(t, ok)
	require.InDelta(t, 12*0.3, lim.Linear, 1e-5)
	require.Equal(t, float32(0.3), s.WindScalar())
}

func TestRotationBrakeHalts(t *testing.T) {
	h := newHarness()
	s := h.ship(t, "red", 1, mgl32.Vec3{})
	s.Intents.TurnLeft = true
	for i := 0; i < 20; i++ {
		h.frame(s)
	}
	require.Equal(t, RotRotating, s.Rot())
	require.Greater(t, s.Body().AngularVelocity().Y(), float32(0))

	s.Intents.TurnLeft = false
	for i := 0; i < 300 && s.Rot() != RotIdle; i++ {
		h.frame(s)
	}
	require.Equal(t, RotIdle, s.Rot())
	require.Equal(t, mgl32.Vec3{}, s.Body().AngularVelocity())
}

func TestVeeringWind(t *testing.T) {
	w := VeeringWind{Direction: mgl32.Vec3{1, 0, 0}}
	require.Equal(t, mgl32.Vec3{1, 0, 0}, w.Wind(time.Hour))

	w.VeerRate = 1
	got := w.Wind(time.Duration(float64(time.Second) * 3.14159265 / 2))
	require.True(t, got.ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-4))
}
