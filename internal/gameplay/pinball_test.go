package gameplay

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/core/arena"
	"github.com/orrery/orrery/internal/core/event"
	"github.com/orrery/orrery/internal/physics"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestTable(t *testing.T) (*Table, *event.Bus) {
	t.Helper()
	ball := physics.NewBody(physics.BodyConfig{
		Shape: &physics.Sphere{Radius: 0.25},
		Mass:  1,
		Pose:  physics.Pose{Pos: mgl32.Vec3{4, 0, 6}},
	})
	bus := event.NewBus()
	return NewTable(DefaultPinballConfig(), ball, bus, zap.NewNop()), bus
}

func TestFlipperSwing(t *testing.T) {
	tbl, _ := newTestTable(t)
	paddle := physics.NewBody(physics.BodyConfig{
		Shape:     &physics.Box{HalfExtents: mgl32.Vec3{1, 0.1, 0.2}},
		Kinematic: true,
		Pose:      physics.Pose{Pos: mgl32.Vec3{-2, 0, 7}},
	})
	left := tbl.AddFlipper(arena.NewHandle(3, 1), event.SideLeft, paddle)

	tbl.Intents.LeftFlipper = true
	tbl.Control(frame)
	require.InDelta(t, 0.3, left.Angle(), 1e-5)
	require.InDelta(t, 18, paddle.AngularVelocity().Y(), 1e-3)

	for i := 0; i < 5; i++ {
		tbl.Control(frame)
	}
	require.InDelta(t, 0.9, left.Angle(), 1e-6)
	require.InDelta(t, 0, paddle.AngularVelocity().Y(), 1e-6)

	tbl.Rules(nil)
	want := mgl32.QuatRotate(0.9, mgl32.Vec3{0, 1, 0})
	require.True(t, paddle.Orientation().ApproxEqualThreshold(want, 1e-5))
	require.Equal(t, mgl32.Vec3{-2, 0, 7}, paddle.Position())

	tbl.Intents.LeftFlipper = false
	tbl.Control(frame)
	require.InDelta(t, 0.6, left.Angle(), 1e-5)
	require.InDelta(t, -18, paddle.AngularVelocity().Y(), 1e-3)
}

func TestPlungerLaunch(t *testing.T) {
	tbl, _ := newTestTable(t)
	tbl.Intents.Plunger = true
	for i := 0; i < 30; i++ {
		tbl.Control(frame)
	}
	require.InDelta(t, 3, tbl.Charge(), 1e-3)
	require.InDelta(t, 3.0/9, tbl.PlungerPull(), 1e-3)
	require.Equal(t, mgl32.Vec3{}, tbl.Ball().LinearVelocity())

	for i := 0; i < 100; i++ {
		tbl.Control(frame)
	}
	require.Equal(t, float32(9), tbl.Charge())

	tbl.Intents.Plunger = false
	tbl.Control(frame)
	require.Zero(t, tbl.Charge())
	require.True(t, tbl.Ball().LinearVelocity().ApproxEqualThreshold(mgl32.Vec3{0, 0, -9}, 1e-4))
}

func TestBumperScoring(t *testing.T) {
	tbl, bus := newTestTable(t)
	bump := physics.NewBody(physics.BodyConfig{Shape: &physics.Cylinder{Radius: 0.5, HalfHeight: 0.5}})
	kicker := physics.NewBody(physics.BodyConfig{Shape: &physics.Cylinder{Radius: 0.5, HalfHeight: 0.5}})
	tbl.AddBumper(arena.NewHandle(5, 1), "bumper", bump)
	tbl.AddBumper(arena.NewHandle(6, 1), "kicker", kicker)
	tbl.SetScoreFunc(func(name string) (int, bool) {
		if name == "kicker" {
			return 250, true
		}
		return 0, false
	})

	var hits []event.BumperHit
	event.Subscribe(bus, func(ev event.BumperHit) { hits = append(hits, ev) })

	ball := tbl.Ball()
	tbl.Rules([]*physics.Contact{
		{A: ball, B: bump, Normal: mgl32.Vec3{1, 0, 0}},
		{A: ball, B: bump, Normal: mgl32.Vec3{1, 0, 0}},
		{A: kicker, B: ball, Normal: mgl32.Vec3{0, 0, 1}},
	})
	require.Equal(t, 350, tbl.Score())
	require.True(t, ball.LinearVelocity().ApproxEqualThreshold(mgl32.Vec3{-1.5, 0, 1.5}, 1e-5))

	bus.SwapBuffers()
	bus.DispatchAll()
	require.Len(t, hits, 2)
	require.Equal(t, 100, hits[0].Points)
	require.Equal(t, 250, hits[1].Points)
	require.Equal(t, 350, hits[1].Score)
}

func TestDrainAndGameOver(t *testing.T) {
	tbl, bus := newTestTable(t)
	var over []event.GameOver
	event.Subscribe(bus, func(ev event.GameOver) { over = append(over, ev) })
	start := tbl.Ball().Position()

	for i := 0; i < 2; i++ {
		tbl.Ball().SetPose(physics.Pose{Pos: mgl32.Vec3{0, 0, 12}})
		tbl.Rules(nil)
		require.False(t, tbl.Over())
		require.Equal(t, start, tbl.Ball().Position())
	}
	require.Equal(t, 1, tbl.Lives())

	tbl.Ball().SetPose(physics.Pose{Pos: mgl32.Vec3{0, 0, 12}})
	tbl.Rules(nil)
	require.True(t, tbl.Over())
	require.Equal(t, 0, tbl.Lives())

	bus.SwapBuffers()
	bus.DispatchAll()
	require.Equal(t, []event.GameOver{{Score: 0}}, over)

	// Controls are ignored until a restart.
	tbl.Intents = PinballIntents{Plunger: true}
	tbl.Control(frame)
	require.Zero(t, tbl.Charge())

	tbl.Intents = PinballIntents{Restart: true}
	tbl.Control(frame)
	require.False(t, tbl.Over())
	require.Equal(t, 3, tbl.Lives())
	require.Equal(t, start, tbl.Ball().Position())
}
