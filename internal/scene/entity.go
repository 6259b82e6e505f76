// Package scene is the retained scene graph: entities addressed by
// generation-checked handles, the table that wires parents to children, and
// the walker that collapses transforms root to leaf every frame.
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/core/arena"
	"github.com/orrery/orrery/internal/model"
	"github.com/orrery/orrery/internal/transform"
)

// Role tags what an entity is for. Gameplay and physics setup switch on it
// instead of on entity names.
type Role int

const (
	RoleDecor Role = iota
	RoleStatic
	RoleShip
	RoleBall
	RolePaddleLeft
	RolePaddleRight
	RoleBumper
	RolePlunger
	RoleBody // celestial body of the orbital demo
)

var roleNames = map[Role]string{
	RoleDecor:       "decor",
	RoleStatic:      "static",
	RoleShip:        "ship",
	RoleBall:        "ball",
	RolePaddleLeft:  "paddle_left",
	RolePaddleRight: "paddle_right",
	RoleBumper:      "bumper",
	RolePlunger:     "plunger",
	RoleBody:        "body",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return "unknown"
}

// ParseRole maps a scene-file role tag to a Role.
func ParseRole(s string) (Role, bool) {
	if s == "" {
		return RoleDecor, true
	}
	for r, name := range roleNames {
		if name == s {
			return r, true
		}
	}
	return RoleDecor, false
}

// Recipe is the per-frame transform program of an entity.
type Recipe struct {
	Scale mgl32.Vec3

	SpinAxis  mgl32.Vec3
	SpinAngle float32 // radians, advanced by SpinRate each frame
	SpinRate  float32 // radians per second

	TiltAxis mgl32.Vec3
	Tilt     float32 // radians, constant

	Translation mgl32.Vec3
	Velocity    mgl32.Vec3 // units per second added to Translation

	OrbitRadius float32
	OrbitAngle  float32
	OrbitRate   float32 // radians per second
}

// NewRecipe returns an identity recipe (unit scale, no motion).
func NewRecipe() Recipe {
	return Recipe{
		Scale:    mgl32.Vec3{1, 1, 1},
		SpinAxis: mgl32.Vec3{0, 1, 0},
		TiltAxis: mgl32.Vec3{0, 0, 1},
	}
}

// Entity is one node of the scene graph.
type Entity struct {
	Name   string
	Role   Role
	Recipe Recipe

	handle       arena.Handle
	parent       arena.Handle
	children     []arena.Handle
	acc          *transform.Accumulator
	parentOrigin mgl32.Mat4
	model        *model.Model
}

func NewEntity(name string, role Role, recipe Recipe) *Entity {
	return &Entity{
		Name:         name,
		Role:         role,
		Recipe:       recipe,
		acc:          transform.NewAccumulator(),
		parentOrigin: mgl32.Ident4(),
	}
}

func (e *Entity) Handle() arena.Handle { return e.handle }
func (e *Entity) Parent() arena.Handle { return e.parent }
func (e *Entity) IsRoot() bool         { return e.parent.IsNil() }

// Children returns a copy of the ordered child list.
func (e *Entity) Children() []arena.Handle {
	out := make([]arena.Handle, len(e.children))
	copy(out, e.children)
	return out
}

// Accumulator exposes the commit list so controllers can push extra commits
// before the walker collapses the frame.
func (e *Entity) Accumulator() *transform.Accumulator { return e.acc }

// ModelMatrix is the last collapsed world matrix.
func (e *Entity) ModelMatrix() mgl32.Mat4 { return e.acc.Model() }

// ParentOrigin is the parent model matrix fed by the walker.
func (e *Entity) ParentOrigin() mgl32.Mat4 { return e.parentOrigin }

// WorldPosition is the translation part of the model matrix.
func (e *Entity) WorldPosition() mgl32.Vec3 { return transform.Position(e.acc.Model()) }

// Model returns the attached renderable, or nil.
func (e *Entity) Model() *model.Model { return e.model }

// SetModel attaches m (nil detaches), keeping reference counts balanced.
func (e *Entity) SetModel(m *model.Model) {
	if e.model == m {
		return
	}
	if e.model != nil {
		e.model.DecrementReference()
	}
	e.model = m
	if m != nil {
		m.IncrementReference()
	}
}

// Material returns the attached model's material, or the default.
func (e *Entity) Material() model.Material {
	if e.model == nil {
		return model.DefaultMaterial
	}
	return e.model.Material
}

func (e *Entity) release() {
	e.SetModel(nil)
	e.children = nil
	e.parent = arena.Nil
}

const twoPi = 2 * math.Pi

// commitRecipe advances the recipe by secs and commits this frame's matrices.
// A physics-driven entity commits scale then the body transform, which is
// already in world space; it reports true so the parent origin is skipped.
func (e *Entity) commitRecipe(secs float32, bodies BodySource) bool {
	r := &e.Recipe
	if bodies != nil {
		if m, ok := bodies.BodyTransform(e.handle); ok {
			e.acc.CommitScale(r.Scale)
			e.acc.Commit(m)
			return true
		}
	}

	r.SpinAngle = wrapAngle(r.SpinAngle + r.SpinRate*secs)
	r.OrbitAngle = wrapAngle(r.OrbitAngle + r.OrbitRate*secs)
	r.Translation = r.Translation.Add(r.Velocity.Mul(secs))

	e.acc.CommitScale(r.Scale)
	e.acc.CommitRotation(r.SpinAngle, r.SpinAxis)
	if r.Tilt != 0 {
		e.acc.CommitTilt(r.Tilt, r.TiltAxis)
	}
	e.acc.CommitTranslation(r.Translation)
	if r.OrbitRadius != 0 {
		e.acc.CommitTranslation(transform.Orbit(r.OrbitRadius, r.OrbitAngle))
	}
	return false
}

func wrapAngle(a float32) float32 {
	if a > twoPi || a < -twoPi {
		return float32(math.Mod(float64(a), twoPi))
	}
	return a
}
