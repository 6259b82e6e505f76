package physics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/core/arena"
	"go.uber.org/zap"
)

var (
	ErrBodyOwned     = errors.New("physics: body already owned by an entity")
	ErrEntityHasBody = errors.New("physics: entity already owns a body")
	ErrNoBody        = errors.New("physics: entity owns no body")
	ErrNilEntity     = errors.New("physics: nil entity handle")
)

// Adapter is the single owner of every rigid body in a scene. It maps entity
// handles to bodies and enforces teardown order: remove from the world, then
// free the body, its motion state and its shape.
type Adapter struct {
	world   *World
	limiter *SpeedLimiter
	bodies  map[arena.Handle]*Body
	log     *zap.Logger
}

// NewAdapter wraps world. limiter may be nil; when set, detached bodies are
// dropped from it.
func NewAdapter(world *World, limiter *SpeedLimiter, log *zap.Logger) *Adapter {
	return &Adapter{
		world:   world,
		limiter: limiter,
		bodies:  make(map[arena.Handle]*Body),
		log:     log,
	}
}

func (a *Adapter) World() *World { return a.world }

func (a *Adapter) Limiter() *SpeedLimiter { return a.limiter }

// Len returns the number of owned bodies.
func (a *Adapter) Len() int { return len(a.bodies) }

// Attach takes ownership of b for entity h and adds it to the world.
func (a *Adapter) Attach(h arena.Handle, b *Body) error {
	if h.IsNil() {
		return ErrNilEntity
	}
	if _, ok := a.bodies[h]; ok {
		return fmt.Errorf("attach to entity %d: %w", h.Index(), ErrEntityHasBody)
	}
	if !b.owner.IsNil() {
		return fmt.Errorf("attach to entity %d: owned by %d: %w", h.Index(), b.owner.Index(), ErrBodyOwned)
	}
	if !b.inWorld {
		if err := a.world.AddBody(b); err != nil {
			return fmt.Errorf("attach to entity %d: %w", h.Index(), err)
		}
	}
	b.owner = h
	a.bodies[h] = b
	a.log.Debug("body attached",
		zap.Uint32("entity", h.Index()),
		zap.Float32("mass", b.mass),
		zap.Bool("kinematic", b.kinematic),
	)
	return nil
}

// Body returns the body owned by h.
func (a *Adapter) Body(h arena.Handle) (*Body, bool) {
	b, ok := a.bodies[h]
	return b, ok
}

// BodyTransform implements scene.BodySource.
func (a *Adapter) BodyTransform(h arena.Handle) (mgl32.Mat4, bool) {
	b, ok := a.bodies[h]
	if !ok {
		return mgl32.Mat4{}, false
	}
	return b.WorldTransform(), true
}

// Detach removes h's body from the world and frees it.
func (a *Adapter) Detach(h arena.Handle) error {
	b, ok := a.bodies[h]
	if !ok {
		return fmt.Errorf("detach entity %d: %w", h.Index(), ErrNoBody)
	}
	if b.inWorld {
		if err := a.world.RemoveBody(b); err != nil {
			return fmt.Errorf("detach entity %d: %w", h.Index(), err)
		}
	}
	if a.limiter != nil {
		a.limiter.Remove(b)
	}
	b.destroy()
	delete(a.bodies, h)
	return nil
}

// Close frees every owned body in entity order and then closes the world.
func (a *Adapter) Close() error {
	handles := make([]arena.Handle, 0, len(a.bodies))
	for h := range a.bodies {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i].Index() < handles[j].Index() })

	var errs []error
	for _, h := range handles {
		if err := a.Detach(h); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.world.Close(); err != nil {
		errs = append(errs, err)
	}
	a.log.Debug("physics closed", zap.Int("bodies", len(handles)))
	return errors.Join(errs...)
}
