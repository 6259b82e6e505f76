package physics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// ShapeTag selects how BuildBody shapes a body.
type ShapeTag int

const (
	ShapeNone ShapeTag = iota
	ShapeSphere
	ShapeBox
	ShapeCylinder
	ShapeBoundary // zero-mass compound of inward half-space planes
)

var shapeTagNames = [...]string{"none", "sphere", "box", "cylinder", "boundary"}

func (t ShapeTag) String() string {
	if int(t) < len(shapeTagNames) {
		return shapeTagNames[t]
	}
	return fmt.Sprintf("shape(%d)", int(t))
}

// ParseShapeTag maps a scene-file name to a tag. The empty string is ShapeNone.
func ParseShapeTag(s string) (ShapeTag, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ShapeNone, nil
	}
	for i, n := range shapeTagNames {
		if n == s {
			return ShapeTag(i), nil
		}
	}
	return ShapeNone, fmt.Errorf("%w: %q", ErrUnknownShape, s)
}

var (
	ErrUnknownShape = errors.New("physics: unknown shape tag")
	ErrBoundaryMass = errors.New("physics: boundary must have zero mass")
	ErrBulletScale  = errors.New("physics: bullet scale must be positive")
)

// BodySpec describes a body in scene terms. BulletScale gives the sphere
// radius (X), box half extents, cylinder radius (X) and half height (Y), or
// the boundary half extents.
type BodySpec struct {
	Tag            ShapeTag
	Mass           float32
	Kinematic      bool
	BulletScale    mgl32.Vec3
	Position       mgl32.Vec3
	Rotation       mgl32.Quat
	Restitution    float32
	Friction       float32
	LinearDamping  float32
	AngularDamping float32
	LinearFactor   mgl32.Vec3
	AngularFactor  mgl32.Vec3
	OpenTop        bool // boundary without a ceiling plane
}

// BuildBody creates the shape and body for spec. The caller owns the result.
func BuildBody(spec BodySpec) (*Body, error) {
	shape, err := buildShape(spec)
	if err != nil {
		return nil, err
	}
	rot := spec.Rotation
	if rot == (mgl32.Quat{}) {
		rot = mgl32.QuatIdent()
	}
	return NewBody(BodyConfig{
		Shape:          shape,
		Mass:           spec.Mass,
		Kinematic:      spec.Kinematic,
		Pose:           Pose{Pos: spec.Position, Rot: rot},
		Restitution:    spec.Restitution,
		Friction:       spec.Friction,
		LinearDamping:  spec.LinearDamping,
		AngularDamping: spec.AngularDamping,
		LinearFactor:   spec.LinearFactor,
		AngularFactor:  spec.AngularFactor,
	}), nil
}

func buildShape(spec BodySpec) (Shape, error) {
	s := spec.BulletScale
	switch spec.Tag {
	case ShapeSphere:
		if s.X() <= 0 {
			return nil, fmt.Errorf("%w: sphere radius %v", ErrBulletScale, s.X())
		}
		return &Sphere{Radius: s.X()}, nil
	case ShapeBox:
		if s.X() <= 0 || s.Y() <= 0 || s.Z() <= 0 {
			return nil, fmt.Errorf("%w: box %v", ErrBulletScale, s)
		}
		return &Box{HalfExtents: s}, nil
	case ShapeCylinder:
		if s.X() <= 0 || s.Y() <= 0 {
			return nil, fmt.Errorf("%w: cylinder %v", ErrBulletScale, s)
		}
		return &Cylinder{Radius: s.X(), HalfHeight: s.Y()}, nil
	case ShapeBoundary:
		if spec.Mass != 0 {
			return nil, fmt.Errorf("%w: got %v", ErrBoundaryMass, spec.Mass)
		}
		return Boundary(s, spec.OpenTop), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownShape, spec.Tag)
}

// Boundary builds inward-facing planes at half extents h: floor, four walls
// and, unless openTop, a ceiling.
func Boundary(h mgl32.Vec3, openTop bool) *Compound {
	c := &Compound{}
	add := func(n mgl32.Vec3, d float32) {
		c.AddChild(Pose{}, &Plane{Normal: n, Constant: -d})
	}
	add(mgl32.Vec3{0, 1, 0}, h.Y())
	add(mgl32.Vec3{1, 0, 0}, h.X())
	add(mgl32.Vec3{-1, 0, 0}, h.X())
	add(mgl32.Vec3{0, 0, 1}, h.Z())
	add(mgl32.Vec3{0, 0, -1}, h.Z())
	if !openTop {
		add(mgl32.Vec3{0, -1, 0}, h.Y())
	}
	return c
}
