package world

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/core/event"
	"github.com/orrery/orrery/internal/data"
	"github.com/orrery/orrery/internal/gameplay"
	"github.com/orrery/orrery/internal/model"
	"github.com/orrery/orrery/internal/physics"
	"github.com/orrery/orrery/internal/scene"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const frame = time.Second / 60

type fakeLoader struct {
	loaded map[string]*model.Model
}

func (f *fakeLoader) Load(path string) (*model.Model, error) {
	if path == "broken.gltf" {
		return nil, errors.New("corrupt")
	}
	m := &model.Model{Path: path, Material: model.DefaultMaterial}
	if f.loaded == nil {
		f.loaded = make(map[string]*model.Model)
	}
	f.loaded[path] = m
	return m, nil
}

func testOptions() Options {
	return Options{
		Physics:     physics.DefaultConfig(),
		MaxSubSteps: physics.DefaultMaxSubSteps,
		Ship:        gameplay.DefaultShipConfig(),
		Pinball:     gameplay.DefaultPinballConfig(),
	}
}

func build(t *testing.T, doc string) (*Session, *fakeLoader, *event.Bus) {
	t.Helper()
	desc, err := data.ParseScene([]byte(doc))
	require.NoError(t, err)
	loader := &fakeLoader{}
	bus := event.NewBus()
	s, err := Build(desc, loader, bus, testOptions(), zap.NewNop())
	require.NoError(t, err)
	return s, loader, bus
}

func TestChainPropagatesTranslation(t *testing.T) {
	// C is listed first; parents are linked after every entity exists.
	s, _, _ := build(t, `
entities:
  - name: C
    parent: B
  - name: A
    velocity: [60, 0, 0]
  - name: B
    parent: A
`)
	defer s.Close()

	for i := 0; i < 5; i++ {
		s.UpdateScene(frame)
	}
	c, ok := s.Entity("c")
	require.True(t, ok)
	require.InDelta(t, 5, c.WorldPosition().X(), 1e-4)
	require.InDelta(t, 0, c.WorldPosition().Y(), 1e-6)
	require.InDelta(t, 0, c.WorldPosition().Z(), 1e-6)
	require.NoError(t, s.Table.Validate())
}

const combatDoc = `
kind: combat
gravity: [0, 0, 0]
models:
  - id: hull
    path: hull.gltf
entities:
  - name: Ocean
    role: static
    body: {shape: boundary, bullet_scale: [60, 5, 60], open_top: true}
  - name: Red
    model: hull
    role: ship
    position: [-10, 0, 0]
    body: {shape: box, mass: 10, bullet_scale: [1, 0.5, 2.5], linear_factor: [1, 0, 1], angular_factor: [0, 1, 0]}
  - name: Blue
    model: hull
    role: ship
    position: [10, 0, 0]
    body: {shape: box, mass: 10, bullet_scale: [1, 0.5, 2.5], linear_factor: [1, 0, 1], angular_factor: [0, 1, 0]}
lighting:
  spotlight: {follow: red, height: 12}
`

func TestCombatSession(t *testing.T) {
	s, loader, _ := build(t, combatDoc)
	require.Equal(t, 2, s.Fleet.Len())
	require.Equal(t, 3, s.Physics.Len())
	require.Equal(t, 1, s.Models.Count())
	hull := loader.loaded["hull.gltf"]
	require.Equal(t, 2, hull.References())

	red, ok := s.Fleet.ShipByName("Red")
	require.True(t, ok)
	red.Intents.Forward = true
	for i := 0; i < 30; i++ {
		s.Fleet.Control(frame, mgl32.Vec3{})
		s.StepPhysics(frame)
		s.UpdateScene(frame)
	}
	e, ok := s.Entity("red")
	require.True(t, ok)
	require.Less(t, red.Position().Z(), float32(0))
	require.True(t, e.WorldPosition().ApproxEqualThreshold(red.Position(), 1e-4))

	spot, ok := s.Spotlight()
	require.True(t, ok)
	require.True(t, spot.Target.ApproxEqualThreshold(red.Position(), 1e-4))
	require.InDelta(t, 12, spot.Position.Y()-spot.Target.Y(), 1e-4)

	// Red's starboard arc reaches Blue.
	red.Intents.FireRight = true
	shots := s.Fleet.Resolve()
	require.Len(t, shots, 1)
	require.NotNil(t, shots[0].Target)

	world := s.Physics.World()
	require.NoError(t, s.Close())
	require.Equal(t, 0, world.NumBodies())
	require.Equal(t, 0, hull.References())
	require.NoError(t, s.Close())
}

const pinballDoc = `
kind: pinball
gravity: [0, -9.81, 4]
entities:
  - name: Table
    role: static
    body: {shape: boundary, bullet_scale: [5, 1, 10]}
  - name: Ball
    role: ball
    position: [4.5, -0.75, 6]
    body: {shape: sphere, mass: 1, bullet_scale: [0.25, 0.25, 0.25]}
  - name: Left
    role: paddle_left
    position: [-2.4, -0.8, 7.5]
    body: {shape: box, kinematic: true, bullet_scale: [1.2, 0.2, 0.25]}
  - name: Right
    role: paddle_right
    position: [2.4, -0.8, 7.5]
    body: {shape: box, kinematic: true, bullet_scale: [1.2, 0.2, 0.25]}
  - name: Bumper
    role: bumper
    position: [0, -0.5, -4]
    body: {shape: cylinder, bullet_scale: [0.5, 0.5, 0.5]}
  - name: Plunger
    role: plunger
    position: [4.5, -0.8, 8.5]
`

func TestPinballSession(t *testing.T) {
	s, _, _ := build(t, pinballDoc)
	defer s.Close()
	require.NotNil(t, s.Pinball)
	require.Len(t, s.Pinball.Flippers(), 2)
	require.Equal(t, event.SideRight, s.Pinball.Flippers()[1].Side)

	s.Pinball.Intents.Plunger = true
	for i := 0; i < 30; i++ {
		s.Pinball.Control(frame)
	}
	s.UpdateScene(frame)
	plunger, ok := s.Entity("plunger")
	require.True(t, ok)
	require.Greater(t, plunger.WorldPosition().Z(), float32(8.5))

	s.Pinball.Intents.Plunger = false
	s.Pinball.Control(frame)
	for i := 0; i < 10; i++ {
		s.StepPhysics(frame)
		s.Pinball.Rules(s.Physics.World().Contacts())
	}
	require.Less(t, s.Pinball.Ball().Position().Z(), float32(6))
}

func TestBuildErrorsReleaseEverything(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{"cycle", "entities:\n  - name: a\n    parent: b\n  - name: b\n    parent: a\n", scene.ErrCycle},
		{"ship without body", "kind: combat\nentities:\n  - name: a\n    role: ship\n", ErrSceneLayout},
		{"pinball without ball", "kind: pinball\nentities:\n  - name: a\n", ErrSceneLayout},
		{"boundary with mass", "entities:\n  - name: a\n    body: {shape: boundary, mass: 2, bullet_scale: [1, 1, 1]}\n", physics.ErrBoundaryMass},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			desc, err := data.ParseScene([]byte(tc.doc))
			require.NoError(t, err)
			_, err = Build(desc, &fakeLoader{}, event.NewBus(), testOptions(), zap.NewNop())
			require.ErrorIs(t, err, tc.want)
		})
	}

	desc, err := data.ParseScene([]byte("models:\n  - id: m\n    path: broken.gltf\n"))
	require.NoError(t, err)
	_, err = Build(desc, &fakeLoader{}, event.NewBus(), testOptions(), zap.NewNop())
	require.ErrorContains(t, err, "corrupt")
}
