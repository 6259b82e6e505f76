package main

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	coresys "github.com/orrery/orrery/internal/core/system"
	"github.com/orrery/orrery/internal/scene"
	"github.com/orrery/orrery/internal/system"
	"github.com/orrery/orrery/internal/world"
)

// pixelsPerUnit maps world XZ onto the top-down debug view.
const pixelsPerUnit = 8

var (
	colorEntity = color.RGBA{0x9a, 0xb8, 0xd0, 0xff}
	colorShip   = color.RGBA{0xe0, 0x60, 0x50, 0xff}
	colorBall   = color.RGBA{0xf0, 0xe0, 0x70, 0xff}
	colorLight  = color.RGBA{0xff, 0xff, 0xff, 0x60}
)

// game hosts the frame loop inside an ebiten window. Rendering is a top-down
// debug view; the scene's model matrices are the real output.
type game struct {
	ctx     context.Context
	runner  *coresys.Runner
	input   *system.InputSystem
	scene   *system.SceneSystem
	session *world.Session
	width   int
	height  int
}

func (g *game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	g.runner.Tick(time.Second / time.Duration(ebiten.TPS()))
	if g.input.Quit() {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	cx, cy := float32(g.width)/2, float32(g.height)/2
	g.session.Table.Each(func(e *scene.Entity) {
		p := e.WorldPosition()
		c, size := colorEntity, float32(4)
		switch e.Role {
		case scene.RoleShip:
			c, size = colorShip, 10
		case scene.RoleBall:
			c, size = colorBall, 6
		}
		x, y := cx+p.X()*pixelsPerUnit, cy+p.Z()*pixelsPerUnit
		vector.DrawFilledRect(screen, x-size/2, y-size/2, size, size, c, false)
	})
	if light, ok := g.scene.Spotlight(); ok {
		x, y := cx+light.Target.X()*pixelsPerUnit, cy+light.Target.Z()*pixelsPerUnit
		vector.StrokeCircle(screen, x, y, 24, 1, colorLight, true)
	}
	ebitenutil.DebugPrint(screen, g.hud())
}

func (g *game) hud() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)  frame %d  %.0f fps\n",
		g.session.Desc.Name, g.session.Desc.Kind, g.runner.Frames(), ebiten.ActualFPS())
	if g.session.Fleet != nil {
		for _, s := range g.session.Fleet.Ships() {
			state := s.Move().String()
			if s.Sunk() {
				state = "sunk"
			}
			fmt.Fprintf(&b, "%-6s hp %5.1f  speed %4.1f/%4.1f  %s\n",
				s.Name, s.Health(), s.Speed(), s.MaxSpeed(), state)
		}
	}
	if t := g.session.Pinball; t != nil {
		fmt.Fprintf(&b, "score %d  lives %d", t.Score(), t.Lives())
		if t.Over() {
			b.WriteString("  GAME OVER (R restarts)")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}
