// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ik5/audjack/audio"
)

// Player streams an audio.Source to the outputs. A feeder goroutine started
// with Run decodes and resamples into a ring; Process only copies out of it.
// Source channel c goes to output c, repeating the source channels when
// there are more outputs.
type Player struct {
	src      audio.Source
	channels int
	ring     *Ring
	scratch  []float32
	wake     chan struct{}
	log      zerolog.Logger

	eof       atomic.Bool
	underruns atomic.Uint64
	played    atomic.Int64
	done      chan struct{}
}

// NewPlayer wraps src in a Resampler when its rate differs from
// sampleRate.
func NewPlayer(src audio.Source, sampleRate int, cfg StreamConfig) *Player {
	cfg = cfg.withDefaults()
	if src.SampleRate() != sampleRate {
		src = audio.NewResampler(src, sampleRate)
	}
	ch := src.Channels()

	return &Player{
		src:      src,
		channels: ch,
		ring:     NewRing(cfg.ringSamples(sampleRate, ch)),
		scratch:  make([]float32, cfg.MaxFrames*ch),
		wake:     make(chan struct{}, 1),
		log:      cfg.logger("player"),
		done:     make(chan struct{}),
	}
}

// Underruns counts cycles that found the ring short before the end of the
// source.
func (p *Player) Underruns() uint64 { return p.underruns.Load() }

// Played returns the frames handed to the outputs.
func (p *Player) Played() int64 { return p.played.Load() }

// Buffered returns the frames waiting in the ring.
func (p *Player) Buffered() int { return p.ring.Len() / p.channels }

// Done is closed once the whole source has been played or Run returned.
func (p *Player) Done() <-chan struct{} { return p.done }

// Run feeds the ring until the source is exhausted and played out, or ctx is
// done. It closes the source before returning.
func (p *Player) Run(ctx context.Context) error {
	defer close(p.done)
	defer p.src.Close()

	chunk := make([]float32, (p.ring.Cap()/4/p.channels)*p.channels)
	if len(chunk) == 0 {
		chunk = make([]float32, p.channels)
	}
	pending := chunk[:0]
	tail := make([]float32, 0, p.channels)
	idle := time.NewTicker(10 * time.Millisecond)
	defer idle.Stop()

	for {
		if len(pending) == 0 && !p.eof.Load() {
			// a frame split across reads is completed by the next one
			k := copy(chunk, tail)
			n, err := p.src.ReadSamples(chunk[k:])
			n += k
			pending = chunk[:n-n%p.channels]
			tail = append(tail[:0], chunk[len(pending):n]...)
			switch {
			case errors.Is(err, io.EOF):
				p.eof.Store(true)
			case err != nil:
				p.eof.Store(true)
				return fmt.Errorf("read source: %w", err)
			}
		}

		if len(pending) > 0 {
			free := p.ring.Free()
			n := p.ring.Write(pending[:min(len(pending), free-free%p.channels)])
			pending = pending[n:]
			if n > 0 {
				continue
			}
		}

		if p.eof.Load() && len(pending) == 0 && p.ring.Len() == 0 {
			p.log.Debug().Int64("frames", p.Played()).Uint64("underruns", p.Underruns()).Msg("playback finished")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.wake:
		case <-idle.C:
		}
	}
}

func (p *Player) Process(frames int, out, _ [][]float32) {
	want := min(frames, len(p.scratch)/p.channels) * p.channels
	avail := p.ring.Len()
	n := p.ring.Read(p.scratch[:min(want, avail-avail%p.channels)])
	got := n / p.channels

	if got < frames && !p.eof.Load() {
		p.underruns.Add(1)
	}
	if got > 0 {
		p.spread(got, out)
		p.played.Add(int64(got))
	}
	poke(p.wake)
}

func (p *Player) spread(frames int, out [][]float32) {
	if len(out) == p.channels {
		_, _ = audio.Deinterleave(out, p.scratch[:frames*p.channels])
		return
	}
	for o, ch := range out {
		c := o % p.channels
		for f := range frames {
			ch[f] = p.scratch[f*p.channels+c]
		}
	}
}
