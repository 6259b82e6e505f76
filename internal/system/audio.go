package system

import (
	"github.com/orrery/orrery/internal/core/event"
)

// CuePlayer queues a named sound cue without blocking.
type CuePlayer interface {
	Request(cue string) bool
}

// Cue names looked up in the audio configuration.
const (
	CueCannon   = "cannon"
	CueHit      = "hit"
	CueSink     = "sink"
	CueBumper   = "bumper"
	CueDrain    = "drain"
	CueGameOver = "game_over"
)

// BindAudioCues plays a cue for each gameplay event that has one configured.
func BindAudioCues(bus *event.Bus, player CuePlayer, cues map[string]string) {
	play := func(name string) {
		if _, ok := cues[name]; ok {
			player.Request(name)
		}
	}
	event.Subscribe(bus, func(event.ShotFired) { play(CueCannon) })
	event.Subscribe(bus, func(event.ShipDamaged) { play(CueHit) })
	event.Subscribe(bus, func(event.ShipSunk) { play(CueSink) })
	event.Subscribe(bus, func(event.BumperHit) { play(CueBumper) })
	event.Subscribe(bus, func(event.BallDrained) { play(CueDrain) })
	event.Subscribe(bus, func(event.GameOver) { play(CueGameOver) })
}
