package scripting

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/orrery/orrery/internal/gameplay"
)

// Wind takes the wind from the wind_direction hook and falls back to another
// source when the hook is missing or fails.
type Wind struct {
	Engine   *Engine
	Fallback gameplay.WindSource
}

func (w Wind) Wind(elapsed time.Duration) mgl32.Vec3 {
	if v, ok := w.Engine.WindDirection(elapsed); ok {
		return v
	}
	if w.Fallback != nil {
		return w.Fallback.Wind(elapsed)
	}
	return mgl32.Vec3{}
}
