// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"sync/atomic"

	"github.com/ik5/audjack/audio"
)

// Mode is the Looper state.
type Mode int32

const (
	Recording Mode = iota
	Playing
)

func (m Mode) String() string {
	if m == Playing {
		return "playing"
	}
	return "recording"
}

// Looper records the average of its inputs into a fixed take, then loops the
// take on every output once switched to playback. Switching back to recording
// discards the take.
type Looper struct {
	take   []float32
	mode   atomic.Int32
	length atomic.Int64

	// owned by the process thread
	seen Mode
	pos  int
}

// NewLooper allocates a take of capacity frames. Recording stops silently
// when the take is full.
func NewLooper(capacity int) *Looper {
	return &Looper{take: make([]float32, capacity)}
}

// Switch flips between recording and playback and returns the new mode.
func (l *Looper) Switch() Mode {
	for {
		cur := l.mode.Load()
		next := int32(Playing)
		if Mode(cur) == Playing {
			next = int32(Recording)
		}
		if l.mode.CompareAndSwap(cur, next) {
			return Mode(next)
		}
	}
}

func (l *Looper) Mode() Mode { return Mode(l.mode.Load()) }

// Len returns the recorded frames.
func (l *Looper) Len() int { return int(l.length.Load()) }

func (l *Looper) Process(frames int, out, in [][]float32) {
	mode := Mode(l.mode.Load())
	if mode != l.seen {
		l.seen = mode
		l.pos = 0
		if mode == Recording {
			l.length.Store(0)
		}
	}

	if mode == Recording {
		l.record(frames, in)
		return
	}
	l.play(frames, out)
}

func (l *Looper) record(frames int, in [][]float32) {
	if len(in) == 0 {
		return
	}
	rec := int(l.length.Load())
	n := min(frames, len(l.take)-rec)
	if n <= 0 {
		return
	}
	audio.Downmix(l.take[rec:rec+n], in)
	l.length.Store(int64(rec + n))
}

func (l *Looper) play(frames int, out [][]float32) {
	rec := int(l.length.Load())
	if rec == 0 {
		return
	}
	for i := range frames {
		v := l.take[l.pos]
		for _, ch := range out {
			ch[i] = v
		}
		l.pos++
		if l.pos >= rec {
			l.pos = 0
		}
	}
}
