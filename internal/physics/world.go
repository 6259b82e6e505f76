package physics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrBodyInWorld    = errors.New("physics: body already in world")
	ErrBodyNotInWorld = errors.New("physics: body not in world")
	ErrBodyDestroyed  = errors.New("physics: body destroyed")
	ErrBodiesInWorld  = errors.New("physics: bodies still in world")
	ErrWorldClosed    = errors.New("physics: world closed")
)

// DefaultMaxSubSteps is the substep cap passed by the frame loop.
const DefaultMaxSubSteps = 10

// TickFunc runs at the start of every internal substep, before velocities
// are integrated. step is the substep length in seconds.
type TickFunc func(w *World, step float32)

// Config holds world parameters.
type Config struct {
	Gravity          mgl32.Vec3
	FixedStep        time.Duration
	SolverIterations int
}

func DefaultConfig() Config {
	return Config{
		Gravity:          mgl32.Vec3{0, -9.81, 0},
		FixedStep:        time.Second / 60,
		SolverIterations: 10,
	}
}

// World steps the rigid bodies added to it. It never creates or frees
// bodies; see Adapter for ownership.
type World struct {
	cfg       Config
	fixed     float32
	tick      TickFunc
	bodies    []*Body
	contacts  []*Contact
	remainder time.Duration
	closed    bool
}

// NewWorld creates a world. tick may be nil.
func NewWorld(cfg Config, tick TickFunc) *World {
	def := DefaultConfig()
	if cfg.FixedStep <= 0 {
		cfg.FixedStep = def.FixedStep
	}
	if cfg.SolverIterations <= 0 {
		cfg.SolverIterations = def.SolverIterations
	}
	return &World{
		cfg:   cfg,
		fixed: float32(cfg.FixedStep.Seconds()),
		tick:  tick,
	}
}

func (w *World) Gravity() mgl32.Vec3 { return w.cfg.Gravity }

// FixedStep returns the internal substep length in seconds.
func (w *World) FixedStep() float32 { return w.fixed }

// NumBodies returns how many bodies are in the world.
func (w *World) NumBodies() int { return len(w.bodies) }

// Bodies returns the bodies in insertion order. The slice must not be modified.
func (w *World) Bodies() []*Body { return w.bodies }

func (w *World) AddBody(b *Body) error {
	switch {
	case w.closed:
		return ErrWorldClosed
	case b.shape == nil:
		return ErrBodyDestroyed
	case b.inWorld:
		return ErrBodyInWorld
	}
	b.inWorld = true
	w.bodies = append(w.bodies, b)
	return nil
}

func (w *World) RemoveBody(b *Body) error {
	for i, o := range w.bodies {
		if o == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			b.inWorld = false
			w.dropContacts(b)
			return nil
		}
	}
	return ErrBodyNotInWorld
}

func (w *World) dropContacts(b *Body) {
	kept := w.contacts[:0]
	for _, c := range w.contacts {
		if c.A != b && c.B != b {
			kept = append(kept, c)
		}
	}
	w.contacts = kept
}

// Contacts returns the contacts found during the last StepSimulation call,
// across all of its substeps.
func (w *World) Contacts() []*Contact { return w.contacts }

// StepSimulation advances the world by dt using fixed substeps. Time that
// does not fill a whole substep carries over to the next call; substeps
// beyond maxSubSteps are dropped. With maxSubSteps <= 0 a single variable
// step of dt is taken. Forces are cleared once any substep ran. Returns the
// number of substeps performed.
func (w *World) StepSimulation(dt time.Duration, maxSubSteps int) int {
	if w.closed {
		return 0
	}
	w.contacts = w.contacts[:0]

	if maxSubSteps <= 0 {
		if dt <= 0 {
			return 0
		}
		w.substep(float32(dt.Seconds()))
		w.clearForces()
		return 1
	}

	if dt > 0 {
		w.remainder += dt
	}
	n := int(w.remainder / w.cfg.FixedStep)
	w.remainder -= time.Duration(n) * w.cfg.FixedStep
	if n > maxSubSteps {
		n = maxSubSteps
	}
	for i := 0; i < n; i++ {
		w.substep(w.fixed)
	}
	if n > 0 {
		w.clearForces()
	}
	return n
}

func (w *World) substep(h float32) {
	if w.tick != nil {
		w.tick(w, h)
	}
	for _, b := range w.bodies {
		b.integrateVelocities(h, w.cfg.Gravity)
	}
	contacts := w.detect()
	prepareContacts(contacts)
	solveVelocities(contacts, w.cfg.SolverIterations)
	for _, b := range w.bodies {
		b.integratePositions(h)
	}
	correctPositions(contacts)
	w.contacts = append(w.contacts, contacts...)
}

func (w *World) clearForces() {
	for _, b := range w.bodies {
		b.ClearForces()
	}
}

type proxy struct {
	body *Body
	box  AABB
}

// detect runs a sort-and-sweep broad phase on X and the narrow phase on
// every overlapping pair with at least one dynamic body.
func (w *World) detect() []*Contact {
	proxies := make([]proxy, len(w.bodies))
	for i, b := range w.bodies {
		proxies[i] = proxy{body: b, box: b.shape.Bounds(b.pose)}
	}
	sort.SliceStable(proxies, func(i, j int) bool {
		return proxies[i].box.Min.X() < proxies[j].box.Min.X()
	})

	var out []*Contact
	for i := range proxies {
		pa := proxies[i]
		for j := i + 1; j < len(proxies); j++ {
			pb := proxies[j]
			if pb.box.Min.X() > pa.box.Max.X() {
				break
			}
			if !pa.body.Dynamic() && !pb.body.Dynamic() {
				continue
			}
			if !pa.box.Overlaps(pb.box) {
				continue
			}
			for _, cp := range collide(pa.body.shape, pa.body.pose, pb.body.shape, pb.body.pose) {
				out = append(out, &Contact{
					A: pa.body, B: pb.body,
					Point: cp.point, Normal: cp.normal, Depth: cp.depth,
				})
			}
		}
	}
	return out
}

// Close releases the world. Every body must have been removed first.
func (w *World) Close() error {
	if len(w.bodies) > 0 {
		return fmt.Errorf("%w: %d remaining", ErrBodiesInWorld, len(w.bodies))
	}
	w.closed = true
	w.contacts = nil
	return nil
}
