// Package world assembles a playable scene from its description: entities,
// models, rigid bodies and the gameplay layered on them. It owns all of them
// and tears them down in a fixed order.
package world

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/core/arena"
	"github.com/orrery/orrery/internal/core/event"
	"github.com/orrery/orrery/internal/data"
	"github.com/orrery/orrery/internal/gameplay"
	"github.com/orrery/orrery/internal/model"
	"github.com/orrery/orrery/internal/physics"
	"github.com/orrery/orrery/internal/scene"
	"go.uber.org/zap"
)

var ErrSceneLayout = errors.New("scene layout")

// Options carries the tuning applied to a session.
type Options struct {
	Physics     physics.Config
	MaxSubSteps int
	Ship        gameplay.ShipConfig
	Pinball     gameplay.PinballConfig
	BumperScore gameplay.ScoreFunc // optional
}

// Spotlight is the light following an entity from above.
type Spotlight struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
}

// Session is one loaded scene.
type Session struct {
	Desc    *data.Scene
	Table   *scene.Table
	Walker  *scene.Walker
	Models  *model.Registry
	Physics *physics.Adapter
	Limiter *physics.SpeedLimiter
	Fleet   *gameplay.Fleet // combat scenes
	Pinball *gameplay.Table // pinball scenes

	handles     []arena.Handle // by description index
	maxSubSteps int
	follow      arena.Handle
	height      float32
	plunger     arena.Handle
	plungerBase mgl32.Vec3
	log         *zap.Logger
	closed      bool
}

// Build creates the session for desc. On error everything created so far is
// released.
func Build(desc *data.Scene, loader model.Loader, bus *event.Bus, opts Options, log *zap.Logger) (*Session, error) {
	pcfg := opts.Physics
	if desc.Gravity != nil {
		pcfg.Gravity = *desc.Gravity
	}
	if opts.MaxSubSteps <= 0 {
		opts.MaxSubSteps = physics.DefaultMaxSubSteps
	}
	limiter := physics.NewSpeedLimiter()
	adapter := physics.NewAdapter(physics.NewWorld(pcfg, limiter.Tick), limiter, log)

	s := &Session{
		Desc:        desc,
		Table:       scene.NewTable(),
		Models:      model.NewRegistry(loader, log),
		Physics:     adapter,
		Limiter:     limiter,
		maxSubSteps: opts.MaxSubSteps,
		log:         log,
	}
	s.Walker = scene.NewWalker(s.Table, adapter)

	if err := s.build(bus, opts); err != nil {
		if cerr := s.Close(); cerr != nil {
			log.Warn("teardown after failed build", zap.Error(cerr))
		}
		return nil, err
	}
	log.Info("scene built",
		zap.String("name", desc.Name),
		zap.Stringer("kind", desc.Kind),
		zap.Int("entities", s.Table.Len()),
		zap.Int("bodies", adapter.Len()),
		zap.Int("models", s.Models.Count()),
	)
	return s, nil
}

func (s *Session) build(bus *event.Bus, opts Options) error {
	for _, ref := range s.Desc.Models {
		if _, err := s.Models.Register(ref.ID, ref.Path); err != nil {
			return fmt.Errorf("model %q: %w", ref.ID, err)
		}
	}

	s.handles = make([]arena.Handle, len(s.Desc.Entities))
	for i, d := range s.Desc.Entities {
		e := scene.NewEntity(d.Name, d.Role, d.Recipe)
		h, err := s.Table.Add(e, arena.Nil)
		if err != nil {
			return fmt.Errorf("entity %q: %w", d.Name, err)
		}
		s.handles[i] = h
		if d.Model != "" {
			m, ok := s.Models.Model(d.Model)
			if !ok {
				return fmt.Errorf("entity %q: %w: %q", d.Name, data.ErrUnknownModel, d.Model)
			}
			e.SetModel(m)
		}
	}
	// Parents are linked once every entity exists, so file order does not matter.
	for i, d := range s.Desc.Entities {
		if d.Parent < 0 {
			continue
		}
		if err := s.Table.SetParent(s.handles[i], s.handles[d.Parent]); err != nil {
			return fmt.Errorf("entity %q: parent %q: %w", d.Name, s.Desc.Entities[d.Parent].Name, err)
		}
	}

	for i, d := range s.Desc.Entities {
		if d.Body == nil {
			continue
		}
		b, err := physics.BuildBody(*d.Body)
		if err != nil {
			return fmt.Errorf("entity %q: %w", d.Name, err)
		}
		if err := s.Physics.Attach(s.handles[i], b); err != nil {
			return fmt.Errorf("entity %q: %w", d.Name, err)
		}
	}

	switch s.Desc.Kind {
	case data.KindCombat:
		if err := s.buildFleet(bus, opts); err != nil {
			return err
		}
	case data.KindPinball:
		if err := s.buildPinball(bus, opts); err != nil {
			return err
		}
	}

	if f := s.Desc.Lighting.Follow; f >= 0 {
		s.follow = s.handles[f]
		s.height = s.Desc.Lighting.FollowHeight
	}
	return nil
}

func (s *Session) buildFleet(bus *event.Bus, opts Options) error {
	s.Fleet = gameplay.NewFleet(s.Physics.World(), bus, s.log)
	for i, d := range s.Desc.Entities {
		if d.Role != scene.RoleShip {
			continue
		}
		b, ok := s.Physics.Body(s.handles[i])
		if !ok {
			return fmt.Errorf("%w: ship %q has no body", ErrSceneLayout, d.Name)
		}
		s.Fleet.Add(gameplay.NewShip(d.Name, s.handles[i], b, s.Limiter, opts.Ship))
	}
	if s.Fleet.Len() == 0 {
		return fmt.Errorf("%w: combat scene without ships", ErrSceneLayout)
	}
	return nil
}

func (s *Session) buildPinball(bus *event.Bus, opts Options) error {
	var ball *physics.Body
	for i, d := range s.Desc.Entities {
		if d.Role != scene.RoleBall {
			continue
		}
		if ball != nil {
			return fmt.Errorf("%w: more than one ball", ErrSceneLayout)
		}
		b, ok := s.Physics.Body(s.handles[i])
		if !ok || !b.Dynamic() {
			return fmt.Errorf("%w: ball %q needs a dynamic body", ErrSceneLayout, d.Name)
		}
		ball = b
	}
	if ball == nil {
		return fmt.Errorf("%w: pinball scene without a ball", ErrSceneLayout)
	}

	t := gameplay.NewTable(opts.Pinball, ball, bus, s.log)
	if opts.BumperScore != nil {
		t.SetScoreFunc(opts.BumperScore)
	}
	for i, d := range s.Desc.Entities {
		h := s.handles[i]
		b, hasBody := s.Physics.Body(h)
		switch d.Role {
		case scene.RolePaddleLeft, scene.RolePaddleRight:
			if !hasBody || !b.Kinematic() {
				return fmt.Errorf("%w: paddle %q needs a kinematic body", ErrSceneLayout, d.Name)
			}
			side := event.SideLeft
			if d.Role == scene.RolePaddleRight {
				side = event.SideRight
			}
			t.AddFlipper(h, side, b)
		case scene.RoleBumper:
			if !hasBody {
				return fmt.Errorf("%w: bumper %q has no body", ErrSceneLayout, d.Name)
			}
			t.AddBumper(h, d.Name, b)
		case scene.RolePlunger:
			s.plunger = h
			s.plungerBase = d.Recipe.Translation
		}
	}
	s.Pinball = t
	return nil
}

// Handle returns the entity handle of a described entity by name.
func (s *Session) Handle(name string) (arena.Handle, bool) {
	i := s.Desc.Index(name)
	if i < 0 {
		return arena.Nil, false
	}
	return s.handles[i], true
}

// Entity looks an entity up by name.
func (s *Session) Entity(name string) (*scene.Entity, bool) {
	h, ok := s.Handle(name)
	if !ok {
		return nil, false
	}
	return s.Table.Get(h)
}

// StepPhysics advances the rigid-body world and returns the substeps taken.
func (s *Session) StepPhysics(dt time.Duration) int {
	return s.Physics.World().StepSimulation(dt, s.maxSubSteps)
}

// plungerTravel is how far the plunger visual retracts at full charge.
const plungerTravel = 0.6

// UpdateScene walks every root and collapses the frame's transforms.
func (s *Session) UpdateScene(dt time.Duration) {
	if s.Pinball != nil && !s.plunger.IsNil() {
		if e, ok := s.Table.Get(s.plunger); ok {
			e.Recipe.Translation = s.plungerBase.Add(mgl32.Vec3{0, 0, plungerTravel * s.Pinball.PlungerPull()})
		}
	}
	s.Walker.UpdateRoots(dt)
}

// Spotlight returns the follow light placed above its target. ok is false
// when the scene has no follow target.
func (s *Session) Spotlight() (Spotlight, bool) {
	e, ok := s.Table.Get(s.follow)
	if !ok {
		return Spotlight{}, false
	}
	target := e.WorldPosition()
	return Spotlight{Position: target.Add(mgl32.Vec3{0, s.height, 0}), Target: target}, true
}

// Close tears the scene down: bodies leave the world and are freed, then
// the world, then the entities (dropping model references), then the models.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	if err := s.Physics.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close physics: %w", err))
	}
	s.Table.DestroyAll()
	s.Models.Close()
	return errors.Join(errs...)
}
