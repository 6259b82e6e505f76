package gameplay

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/core/arena"
	"github.com/orrery/orrery/internal/core/event"
	"github.com/orrery/orrery/internal/physics"
	"go.uber.org/zap"
)

// PinballConfig tunes the table rules.
type PinballConfig struct {
	Lives           int
	FlipperSpeed    float32 // rad/s
	FlipperMaxAngle float32 // rad above rest
	PlungerRate     float32 // impulse gained per second held
	PlungerMax      float32
	LaunchDirection mgl32.Vec3
	DrainZ          float32 // ball past this Z is lost
	BumperPoints    int
	BumperKick      float32 // impulse pushing the ball off a bumper
}

func DefaultPinballConfig() PinballConfig {
	return PinballConfig{
		Lives:           3,
		FlipperSpeed:    18,
		FlipperMaxAngle: 0.9,
		PlungerRate:     6,
		PlungerMax:      9,
		LaunchDirection: mgl32.Vec3{0, 0, -1},
		DrainZ:          9,
		BumperPoints:    100,
		BumperKick:      1.5,
	}
}

// PinballIntents are the table controls for one frame.
type PinballIntents struct {
	LeftFlipper  bool
	RightFlipper bool
	Plunger      bool
	Restart      bool
}

// ScoreFunc overrides the points of a named bumper. ok == false falls back
// to the configured points.
type ScoreFunc func(name string) (points int, ok bool)

// Flipper is a kinematic paddle swinging about +Y between rest and the
// configured maximum angle.
type Flipper struct {
	Entity arena.Handle
	Side   event.Side
	body   *physics.Body
	rest   physics.Pose
	angle  float32
}

func (f *Flipper) Angle() float32 { return f.angle }

func (f *Flipper) direction() float32 {
	if f.Side == event.SideLeft {
		return 1
	}
	return -1
}

type bumper struct {
	entity arena.Handle
	name   string
}

// Table runs the pinball rules: flippers, plunger, bumpers, drain and lives.
type Table struct {
	cfg     PinballConfig
	bus     *event.Bus
	log     *zap.Logger
	scoreFn ScoreFunc

	ball      *physics.Body
	ballStart physics.Pose
	flippers  []*Flipper
	bumpers   map[*physics.Body]bumper

	Intents PinballIntents
	charge  float32
	score   int
	lives   int
	over    bool
}

func NewTable(cfg PinballConfig, ball *physics.Body, bus *event.Bus, log *zap.Logger) *Table {
	return &Table{
		cfg:       cfg,
		bus:       bus,
		log:       log,
		ball:      ball,
		ballStart: ball.Pose(),
		bumpers:   make(map[*physics.Body]bumper),
		lives:     cfg.Lives,
	}
}

// SetScoreFunc installs a bumper score override.
func (t *Table) SetScoreFunc(fn ScoreFunc) { t.scoreFn = fn }

// AddFlipper registers a kinematic paddle body at its rest pose.
func (t *Table) AddFlipper(entity arena.Handle, side event.Side, body *physics.Body) *Flipper {
	f := &Flipper{Entity: entity, Side: side, body: body, rest: body.Pose()}
	t.flippers = append(t.flippers, f)
	return f
}

func (t *Table) AddBumper(entity arena.Handle, name string, body *physics.Body) {
	t.bumpers[body] = bumper{entity: entity, name: name}
}

func (t *Table) Ball() *physics.Body   { return t.ball }
func (t *Table) Flippers() []*Flipper  { return t.flippers }
func (t *Table) Score() int            { return t.score }
func (t *Table) Lives() int            { return t.lives }
func (t *Table) Over() bool            { return t.over }
func (t *Table) Charge() float32       { return t.charge }
func (t *Table) Config() PinballConfig { return t.cfg }

// PlungerPull returns the plunger charge as 0..1.
func (t *Table) PlungerPull() float32 {
	if t.cfg.PlungerMax <= 0 {
		return 0
	}
	return t.charge / t.cfg.PlungerMax
}

// Control drives flippers and the plunger before the physics step.
func (t *Table) Control(dt time.Duration) {
	in := t.Intents
	if t.over {
		if in.Restart {
			t.Reset()
		}
		return
	}
	secs := float32(dt.Seconds())
	if secs <= 0 {
		return
	}

	for _, f := range t.flippers {
		pressed := in.LeftFlipper
		if f.Side == event.SideRight {
			pressed = in.RightFlipper
		}
		step := -t.cfg.FlipperSpeed * secs
		if pressed {
			step = -step
		}
		next := mgl32.Clamp(f.angle+step, 0, t.cfg.FlipperMaxAngle)
		f.body.SetAngularVelocity(mgl32.Vec3{0, f.direction() * (next - f.angle) / secs, 0})
		f.angle = next
	}

	switch {
	case in.Plunger:
		t.charge = min(t.charge+t.cfg.PlungerRate*secs, t.cfg.PlungerMax)
	case t.charge > 0:
		t.ball.ApplyCentralImpulse(t.cfg.LaunchDirection.Normalize().Mul(t.charge))
		t.log.Debug("plunger released", zap.Float32("impulse", t.charge))
		t.charge = 0
	}
}

// Rules scores bumper contacts from the last step, handles the drain and
// snaps flippers to their exact angles.
func (t *Table) Rules(contacts []*physics.Contact) {
	for _, f := range t.flippers {
		rot := mgl32.QuatRotate(f.direction()*f.angle, mgl32.Vec3{0, 1, 0})
		f.body.SetPose(physics.Pose{Pos: f.rest.Pos, Rot: rot.Mul(f.rest.Rot)})
	}
	if t.over {
		return
	}

	hit := make(map[*physics.Body]bool)
	for _, c := range contacts {
		var other *physics.Body
		normal := c.Normal
		switch t.ball {
		case c.A:
			other = c.B
			normal = normal.Mul(-1)
		case c.B:
			other = c.A
		default:
			continue
		}
		b, ok := t.bumpers[other]
		if !ok || hit[other] {
			continue
		}
		hit[other] = true
		t.ball.ApplyCentralImpulse(normal.Mul(t.cfg.BumperKick))

		points := t.cfg.BumperPoints
		if t.scoreFn != nil {
			if p, ok := t.scoreFn(b.name); ok {
				points = p
			}
		}
		t.score += points
		event.Emit(t.bus, event.BumperHit{Bumper: b.entity, Name: b.name, Points: points, Score: t.score})
	}

	if t.ball.Position().Z() > t.cfg.DrainZ {
		t.drain()
	}
}

func (t *Table) drain() {
	t.lives--
	event.Emit(t.bus, event.BallDrained{LivesLeft: t.lives})
	t.log.Info("ball drained", zap.Int("lives", t.lives), zap.Int("score", t.score))
	if t.lives <= 0 {
		t.over = true
		t.ball.SetLinearVelocity(mgl32.Vec3{})
		t.ball.SetAngularVelocity(mgl32.Vec3{})
		event.Emit(t.bus, event.GameOver{Score: t.score})
		t.log.Info("game over", zap.Int("score", t.score))
		return
	}
	t.resetBall()
}

func (t *Table) resetBall() {
	t.ball.SetPose(t.ballStart)
	t.ball.SetLinearVelocity(mgl32.Vec3{})
	t.ball.SetAngularVelocity(mgl32.Vec3{})
	t.charge = 0
}

// Reset starts a new game.
func (t *Table) Reset() {
	t.score = 0
	t.lives = t.cfg.Lives
	t.over = false
	t.resetBall()
}
