// Package audio plays sound cues off the frame thread. The frame loop only
// enqueues cue names; one long-lived worker hands them to a sink.
package audio

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Sink plays a named cue. Play must not block for the length of the sound.
type Sink interface {
	Play(cue string) error
}

// Worker consumes a bounded queue of play requests.
type Worker struct {
	queue   chan string
	sink    Sink
	log     *zap.Logger
	dropped atomic.Uint64
	played  atomic.Uint64

	closeOnce sync.Once
}

func NewWorker(sink Sink, size int, log *zap.Logger) *Worker {
	if size <= 0 {
		size = 1
	}
	return &Worker{
		queue: make(chan string, size),
		sink:  sink,
		log:   log,
	}
}

// Request enqueues a cue without blocking. A full queue drops the cue and
// returns false.
func (w *Worker) Request(cue string) bool {
	select {
	case w.queue <- cue:
		return true
	default:
		w.dropped.Add(1)
		w.log.Debug("audio cue dropped", zap.String("cue", cue))
		return false
	}
}

// Run plays queued cues until ctx is cancelled or Close is called. Cues
// already queued at Close are still played.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cue, ok := <-w.queue:
			if !ok {
				return nil
			}
			if err := w.sink.Play(cue); err != nil {
				w.log.Warn("audio cue failed", zap.String("cue", cue), zap.Error(err))
				continue
			}
			w.played.Add(1)
		}
	}
}

// Close stops accepting work. Request must not be called afterwards.
func (w *Worker) Close() {
	w.closeOnce.Do(func() { close(w.queue) })
}

func (w *Worker) Dropped() uint64 { return w.dropped.Load() }
func (w *Worker) Played() uint64  { return w.played.Load() }
