// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ik5/audjack/audio"
)

// FrameWriter receives interleaved frames. wav.Writer implements it.
type FrameWriter interface {
	WriteFrames(samples []float32) error
}

// Recorder captures the inputs into a FrameWriter. Process interleaves each
// cycle into a ring; Run drains the ring on its own goroutine. Inputs beyond
// the configured channel count are ignored and missing ones are written as
// silence.
type Recorder struct {
	w        FrameWriter
	channels int
	ring     *Ring
	scratch  []float32
	wake     chan struct{}
	log      zerolog.Logger

	overruns atomic.Uint64
	captured atomic.Int64
	written  atomic.Int64
}

func NewRecorder(w FrameWriter, channels, sampleRate int, cfg StreamConfig) *Recorder {
	cfg = cfg.withDefaults()
	channels = max(channels, 1)
	return &Recorder{
		w:        w,
		channels: channels,
		ring:     NewRing(cfg.ringSamples(sampleRate, channels)),
		scratch:  make([]float32, cfg.MaxFrames*channels),
		wake:     make(chan struct{}, 1),
		log:      cfg.logger("recorder"),
	}
}

// Overruns counts cycles dropped because the ring was full.
func (r *Recorder) Overruns() uint64 { return r.overruns.Load() }

// Captured returns the frames queued by Process.
func (r *Recorder) Captured() int64 { return r.captured.Load() }

// Written returns the frames handed to the writer.
func (r *Recorder) Written() int64 { return r.written.Load() }

func (r *Recorder) Process(frames int, _, in [][]float32) {
	frames = min(frames, len(r.scratch)/r.channels)
	n := frames * r.channels
	if r.ring.Free() < n {
		r.overruns.Add(1)
		poke(r.wake)
		return
	}

	buf := r.scratch[:n]
	if len(in) == r.channels {
		if _, err := audio.Interleave(buf, in); err != nil {
			r.overruns.Add(1)
			return
		}
	} else {
		for f := range frames {
			for c := range r.channels {
				var v float32
				if c < len(in) {
					v = in[c][f]
				}
				buf[f*r.channels+c] = v
			}
		}
	}

	r.ring.Write(buf)
	r.captured.Add(int64(frames))
	poke(r.wake)
}

// Run writes captured frames until ctx is done, then flushes what is left.
// It does not close the writer.
func (r *Recorder) Run(ctx context.Context) error {
	buf := make([]float32, (r.ring.Cap()/2/r.channels)*r.channels)
	if len(buf) == 0 {
		buf = make([]float32, r.channels)
	}
	idle := time.NewTicker(20 * time.Millisecond)
	defer idle.Stop()

	for {
		if err := r.flush(buf); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			if err := r.flush(buf); err != nil {
				return err
			}
			r.log.Debug().Int64("frames", r.Written()).Uint64("overruns", r.Overruns()).Msg("recording finished")
			return nil
		case <-r.wake:
		case <-idle.C:
		}
	}
}

func (r *Recorder) flush(buf []float32) error {
	for {
		n := r.ring.Read(buf)
		if n == 0 {
			return nil
		}
		if err := r.w.WriteFrames(buf[:n]); err != nil {
			return fmt.Errorf("write frames: %w", err)
		}
		r.written.Add(int64(n / r.channels))
	}
}
