// Package inspect serves read-only views of the running scene over HTTP and
// a websocket feed. It never mutates scene state.
package inspect

import (
	"github.com/orrery/orrery/internal/core/event"
	"github.com/orrery/orrery/internal/scene"
	"github.com/orrery/orrery/internal/transform"
	"github.com/orrery/orrery/internal/world"
)

type EntityView struct {
	Name     string     `json:"name"`
	Role     string     `json:"role"`
	Parent   string     `json:"parent,omitempty"`
	Position [3]float32 `json:"position"`
	Rotation [4]float32 `json:"rotation"` // w, x, y, z
	Scale    [3]float32 `json:"scale"`
	Model    string     `json:"model,omitempty"`
}

type ShipView struct {
	Name        string     `json:"name"`
	Health      float32    `json:"health"`
	Speed       float32    `json:"speed"`
	MaxSpeed    float32    `json:"max_speed"`
	Move        string     `json:"move"`
	Rot         string     `json:"rot"`
	Sunk        bool       `json:"sunk"`
	ReloadLeft  float64    `json:"reload_left"` // seconds
	ReloadRight float64    `json:"reload_right"`
	AimLeft     [3]float32 `json:"aim_left"`
	AimRight    [3]float32 `json:"aim_right"`
}

type PinballView struct {
	Score  int     `json:"score"`
	Lives  int     `json:"lives"`
	Over   bool    `json:"over"`
	Charge float32 `json:"charge"`
}

// Snapshot is one frame of the scene as seen by inspector clients.
type Snapshot struct {
	Scene     string       `json:"scene"`
	Kind      string       `json:"kind"`
	Entities  []EntityView `json:"entities"`
	Ships     []ShipView   `json:"ships,omitempty"`
	Pinball   *PinballView `json:"pinball,omitempty"`
	Spotlight *[3]float32  `json:"spotlight,omitempty"`
}

// Capture reads the session's collapsed transforms and gameplay state.
func Capture(s *world.Session) Snapshot {
	snap := Snapshot{
		Scene:    s.Desc.Name,
		Kind:     s.Desc.Kind.String(),
		Entities: make([]EntityView, 0, s.Table.Len()),
	}
	s.Table.Each(func(e *scene.Entity) {
		t, r, sc := transform.Decompose(e.ModelMatrix())
		v := EntityView{
			Name:     e.Name,
			Role:     e.Role.String(),
			Position: t,
			Rotation: [4]float32{r.W, r.V[0], r.V[1], r.V[2]},
			Scale:    sc,
		}
		if p, ok := s.Table.Get(e.Parent()); ok {
			v.Parent = p.Name
		}
		if m := e.Model(); m != nil {
			v.Model = m.Path
		}
		snap.Entities = append(snap.Entities, v)
	})
	if s.Fleet != nil {
		for _, sh := range s.Fleet.Ships() {
			snap.Ships = append(snap.Ships, ShipView{
				Name:        sh.Name,
				Health:      sh.Health(),
				Speed:       sh.Speed(),
				MaxSpeed:    sh.MaxSpeed(),
				Move:        sh.Move().String(),
				Rot:         sh.Rot().String(),
				Sunk:        sh.Sunk(),
				ReloadLeft:  sh.Reload(event.SideLeft).Seconds(),
				ReloadRight: sh.Reload(event.SideRight).Seconds(),
				AimLeft:     sh.Aim(event.SideLeft),
				AimRight:    sh.Aim(event.SideRight),
			})
		}
	}
	if t := s.Pinball; t != nil {
		snap.Pinball = &PinballView{Score: t.Score(), Lives: t.Lives(), Over: t.Over(), Charge: t.Charge()}
	}
	if sp, ok := s.Spotlight(); ok {
		pos := [3]float32(sp.Position)
		snap.Spotlight = &pos
	}
	return snap
}
