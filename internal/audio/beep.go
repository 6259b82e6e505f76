package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"go.uber.org/zap"
)

// SampleRate is the speaker output rate; cues recorded at other rates are
// resampled on play.
const SampleRate beep.SampleRate = 44100

type cue struct {
	buf    *beep.Buffer
	format beep.Format
}

// BeepSink decodes WAV cues up front and mixes them on the system speaker.
type BeepSink struct {
	cues map[string]cue
	log  *zap.Logger
}

// NewBeepSink decodes every cue file and initializes the speaker.
func NewBeepSink(files map[string]string, log *zap.Logger) (*BeepSink, error) {
	s := &BeepSink{cues: make(map[string]cue, len(files)), log: log}
	for name, path := range files {
		c, err := decode(path)
		if err != nil {
			return nil, fmt.Errorf("audio cue %q: %w", name, err)
		}
		s.cues[name] = c
	}
	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	log.Info("audio ready", zap.Int("cues", len(s.cues)))
	return s, nil
}

func decode(path string) (cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return cue{}, fmt.Errorf("open %s: %w", path, err)
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return cue{}, fmt.Errorf("decode %s: %w", path, err)
	}
	defer streamer.Close()
	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	return cue{buf: buf, format: format}, nil
}

func (s *BeepSink) Play(name string) error {
	c, ok := s.cues[name]
	if !ok {
		return fmt.Errorf("unknown cue %q", name)
	}
	var st beep.Streamer = c.buf.Streamer(0, c.buf.Len())
	if c.format.SampleRate != SampleRate {
		st = beep.Resample(4, c.format.SampleRate, SampleRate, st)
	}
	speaker.Play(st)
	return nil
}

// Close stops the speaker.
func (s *BeepSink) Close() {
	speaker.Close()
}

// NopSink discards cues; used when audio is disabled or headless.
type NopSink struct{}

func (NopSink) Play(string) error { return nil }
