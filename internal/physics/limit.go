package physics

// Unlimited disables a speed cap.
const Unlimited float32 = -1

// SpeedLimit caps the linear and angular speed of one body.
type SpeedLimit struct {
	Linear  float32
	Angular float32
}

// SpeedLimiter is the tick context clamping registered bodies every
// substep. Pass its Tick method to NewWorld.
type SpeedLimiter struct {
	limits map[*Body]SpeedLimit
}

func NewSpeedLimiter() *SpeedLimiter {
	return &SpeedLimiter{limits: make(map[*Body]SpeedLimit)}
}

func (l *SpeedLimiter) Set(b *Body, lim SpeedLimit) { l.limits[b] = lim }

// SetLinear changes the linear cap of a registered body.
func (l *SpeedLimiter) SetLinear(b *Body, v float32) {
	lim, ok := l.limits[b]
	if !ok {
		lim.Angular = Unlimited
	}
	lim.Linear = v
	l.limits[b] = lim
}

// SetAngular changes the angular cap of a registered body.
func (l *SpeedLimiter) SetAngular(b *Body, v float32) {
	lim, ok := l.limits[b]
	if !ok {
		lim.Linear = Unlimited
	}
	lim.Angular = v
	l.limits[b] = lim
}

func (l *SpeedLimiter) Limit(b *Body) (SpeedLimit, bool) {
	lim, ok := l.limits[b]
	return lim, ok
}

func (l *SpeedLimiter) Remove(b *Body) { delete(l.limits, b) }

func (l *SpeedLimiter) Len() int { return len(l.limits) }

// Tick clamps every registered body in w.
func (l *SpeedLimiter) Tick(w *World, _ float32) {
	for _, b := range w.bodies {
		lim, ok := l.limits[b]
		if !ok {
			continue
		}
		if lim.Linear >= 0 {
			if v := b.linVel.Len(); v > lim.Linear {
				b.linVel = b.linVel.Mul(lim.Linear / v)
			}
		}
		if lim.Angular >= 0 {
			if v := b.angVel.Len(); v > lim.Angular {
				b.angVel = b.angVel.Mul(lim.Angular / v)
			}
		}
	}
}
