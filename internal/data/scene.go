package data

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/physics"
	"github.com/orrery/orrery/internal/scene"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownKind   = errors.New("unknown scene kind")
	ErrUnknownModel  = errors.New("unknown model id")
	ErrUnknownParent = errors.New("unknown parent")
	ErrUnknownFollow = errors.New("unmapped spotlight target")
	ErrUnknownRole   = errors.New("unknown role")
	ErrDuplicateName = errors.New("duplicate name")
)

// Kind selects the gameplay layered on a scene.
type Kind int

const (
	KindOrbital Kind = iota
	KindPinball
	KindCombat
)

var kindNames = [...]string{"orbital", "pinball", "combat"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func parseKind(s string) (Kind, error) {
	if s == "" {
		return KindOrbital, nil
	}
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Vec3 is a YAML [x, y, z] triple.
type Vec3 [3]float32

func (v Vec3) Vec() mgl32.Vec3 { return mgl32.Vec3(v) }

type rawScene struct {
	Name     string      `yaml:"name"`
	Kind     string      `yaml:"kind"`
	Gravity  *Vec3       `yaml:"gravity"`
	Models   []ModelRef  `yaml:"models"`
	Entities []rawEntity `yaml:"entities"`
	Lighting rawLighting `yaml:"lighting"`
	Shaders  Shaders     `yaml:"shaders"`
}

type rawEntity struct {
	Name     string   `yaml:"name"`
	Model    string   `yaml:"model"`
	Role     string   `yaml:"role"`
	Parent   string   `yaml:"parent"`
	Scale    *Vec3    `yaml:"scale"`
	Position Vec3     `yaml:"position"`
	Velocity Vec3     `yaml:"velocity"`
	Rotation rawSpin  `yaml:"rotation"`
	Tilt     rawSpin  `yaml:"tilt"`
	Orbit    rawOrbit `yaml:"orbit"`
	Body     *rawBody `yaml:"body"`
}

type rawSpin struct {
	Axis  *Vec3   `yaml:"axis"`
	Angle float32 `yaml:"angle"`
	Rate  float32 `yaml:"rate"`
}

type rawOrbit struct {
	Radius float32 `yaml:"radius"`
	Angle  float32 `yaml:"angle"`
	Rate   float32 `yaml:"rate"`
}

type rawBody struct {
	Shape          string  `yaml:"shape"`
	Mass           float32 `yaml:"mass"`
	Kinematic      bool    `yaml:"kinematic"`
	BulletScale    Vec3    `yaml:"bullet_scale"`
	Restitution    float32 `yaml:"restitution"`
	Friction       float32 `yaml:"friction"`
	LinearDamping  float32 `yaml:"linear_damping"`
	AngularDamping float32 `yaml:"angular_damping"`
	LinearFactor   Vec3    `yaml:"linear_factor"`
	AngularFactor  Vec3    `yaml:"angular_factor"`
	OpenTop        bool    `yaml:"open_top"`
}

type rawLighting struct {
	Ambient   Vec3 `yaml:"ambient"`
	Spotlight struct {
		Follow string  `yaml:"follow"`
		Height float32 `yaml:"height"`
	} `yaml:"spotlight"`
}

// ModelRef names a model file by scene-local id.
type ModelRef struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
}

// Shaders are passed through to the renderer untouched.
type Shaders struct {
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
}

// Entity is a resolved entity description. Parent indexes Scene.Entities,
// -1 for a root.
type Entity struct {
	Name   string
	Model  string // model id, empty for none
	Role   scene.Role
	Parent int
	Recipe scene.Recipe
	Body   *physics.BodySpec
}

// Lighting holds the scene lights. Follow indexes Scene.Entities, -1 for a
// fixed spotlight.
type Lighting struct {
	Ambient      mgl32.Vec3
	Follow       int
	FollowHeight float32
}

// Scene is the parsed, validated scene description.
type Scene struct {
	Name        string
	Kind        Kind
	Fingerprint string // blake2b-256 of the source file, hex
	Gravity     *mgl32.Vec3
	Models      []ModelRef
	Entities    []Entity
	Lighting    Lighting
	Shaders     Shaders
}

// Index returns the position of the entity named name, compared with case
// folding, or -1.
func (s *Scene) Index(name string) int {
	fold := cases.Fold()
	want := fold.String(name)
	for i := range s.Entities {
		if fold.String(s.Entities[i].Name) == want {
			return i
		}
	}
	return -1
}

// LoadScene reads and validates a YAML scene description.
func LoadScene(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	s, err := ParseScene(raw)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return s, nil
}

// ParseScene decodes and validates a scene description.
func ParseScene(raw []byte) (*Scene, error) {
	var rs rawScene
	if err := yaml.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	kind, err := parseKind(rs.Kind)
	if err != nil {
		return nil, err
	}
	sum := blake2b.Sum256(raw)
	s := &Scene{
		Name:        rs.Name,
		Kind:        kind,
		Fingerprint: hex.EncodeToString(sum[:]),
		Models:      rs.Models,
		Shaders:     rs.Shaders,
		Lighting:    Lighting{Ambient: rs.Lighting.Ambient.Vec(), Follow: -1, FollowHeight: rs.Lighting.Spotlight.Height},
	}
	if rs.Gravity != nil {
		g := rs.Gravity.Vec()
		s.Gravity = &g
	}

	fold := cases.Fold()
	models := make(map[string]bool, len(rs.Models))
	for _, m := range rs.Models {
		if models[m.ID] {
			return nil, fmt.Errorf("model %q: %w", m.ID, ErrDuplicateName)
		}
		models[m.ID] = true
	}
	names := make(map[string]int, len(rs.Entities))
	for i, re := range rs.Entities {
		key := fold.String(re.Name)
		if _, dup := names[key]; dup {
			return nil, fmt.Errorf("entity %q: %w", re.Name, ErrDuplicateName)
		}
		names[key] = i
	}

	s.Entities = make([]Entity, len(rs.Entities))
	for i, re := range rs.Entities {
		e, err := resolveEntity(re)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", re.Name, err)
		}
		if e.Model != "" && !models[e.Model] {
			return nil, fmt.Errorf("entity %q: %w: %q", re.Name, ErrUnknownModel, e.Model)
		}
		if re.Parent != "" {
			p, ok := names[fold.String(re.Parent)]
			if !ok {
				return nil, fmt.Errorf("entity %q: %w: %q", re.Name, ErrUnknownParent, re.Parent)
			}
			e.Parent = p
		}
		s.Entities[i] = e
	}

	if f := rs.Lighting.Spotlight.Follow; f != "" {
		idx, ok := names[fold.String(f)]
		if !ok {
			return nil, fmt.Errorf("spotlight: %w: %q", ErrUnknownFollow, f)
		}
		s.Lighting.Follow = idx
	}
	return s, nil
}

func resolveEntity(re rawEntity) (Entity, error) {
	role, ok := scene.ParseRole(re.Role)
	if !ok {
		return Entity{}, fmt.Errorf("%w: %q", ErrUnknownRole, re.Role)
	}
	r := scene.NewRecipe()
	if re.Scale != nil {
		r.Scale = re.Scale.Vec()
	}
	if re.Rotation.Axis != nil {
		r.SpinAxis = re.Rotation.Axis.Vec()
	}
	r.SpinAngle = re.Rotation.Angle
	r.SpinRate = re.Rotation.Rate
	if re.Tilt.Axis != nil {
		r.TiltAxis = re.Tilt.Axis.Vec()
	}
	r.Tilt = re.Tilt.Angle
	r.Translation = re.Position.Vec()
	r.Velocity = re.Velocity.Vec()
	r.OrbitRadius = re.Orbit.Radius
	r.OrbitAngle = re.Orbit.Angle
	r.OrbitRate = re.Orbit.Rate

	e := Entity{Name: re.Name, Model: re.Model, Role: role, Parent: -1, Recipe: r}
	if re.Body != nil {
		spec, err := resolveBody(*re.Body, r)
		if err != nil {
			return Entity{}, err
		}
		e.Body = &spec
	}
	return e, nil
}

// resolveBody places the body at the entity's start translation and spin.
func resolveBody(rb rawBody, r scene.Recipe) (physics.BodySpec, error) {
	tag, err := physics.ParseShapeTag(rb.Shape)
	if err != nil {
		return physics.BodySpec{}, err
	}
	if tag == physics.ShapeNone {
		return physics.BodySpec{}, fmt.Errorf("body: %w: shape is required", physics.ErrUnknownShape)
	}
	rot := mgl32.QuatIdent()
	if r.SpinAngle != 0 && r.SpinAxis.Len() > 0 {
		rot = mgl32.QuatRotate(r.SpinAngle, r.SpinAxis.Normalize())
	}
	return physics.BodySpec{
		Tag:            tag,
		Mass:           rb.Mass,
		Kinematic:      rb.Kinematic,
		BulletScale:    rb.BulletScale.Vec(),
		Position:       r.Translation,
		Rotation:       rot,
		Restitution:    rb.Restitution,
		Friction:       rb.Friction,
		LinearDamping:  rb.LinearDamping,
		AngularDamping: rb.AngularDamping,
		LinearFactor:   rb.LinearFactor.Vec(),
		AngularFactor:  rb.AngularFactor.Vec(),
		OpenTop:        rb.OpenTop,
	}, nil
}
