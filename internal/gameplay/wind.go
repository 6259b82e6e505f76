package gameplay

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// WindSource yields the wind direction for the elapsed scene time.
type WindSource interface {
	Wind(elapsed time.Duration) mgl32.Vec3
}

// WindFunc adapts a function to WindSource.
type WindFunc func(elapsed time.Duration) mgl32.Vec3

func (f WindFunc) Wind(elapsed time.Duration) mgl32.Vec3 { return f(elapsed) }

// VeeringWind starts from Direction and turns about +Y at VeerRate rad/s.
type VeeringWind struct {
	Direction mgl32.Vec3
	VeerRate  float32
}

func (v VeeringWind) Wind(elapsed time.Duration) mgl32.Vec3 {
	if v.VeerRate == 0 {
		return v.Direction
	}
	a := v.VeerRate * float32(elapsed.Seconds())
	sin, cos := math32.Sincos(a)
	d := v.Direction
	return mgl32.Vec3{d[0]*cos + d[2]*sin, d[1], -d[0]*sin + d[2]*cos}
}
