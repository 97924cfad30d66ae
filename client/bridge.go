// SPDX-License-Identifier: EPL-2.0

package client

import (
	"github.com/ik5/audjack/engine"
)

// bufferBridge owns the per-channel buffers handed to the callback. Storage is
// reserved on the control thread; the process path only reslices it unless a
// cycle is longer than anything reserved so far.
type bufferBridge struct {
	outStore [][]float32
	inStore  [][]float32

	// out and in are the views passed to the callback. They are rebuilt from
	// the stores every cycle, so a callback replacing an element cannot leak
	// into the next cycle.
	out [][]float32
	in  [][]float32
}

func newBufferBridge(nOut, nIn, reserve int) *bufferBridge {
	b := &bufferBridge{
		outStore: make([][]float32, nOut),
		inStore:  make([][]float32, nIn),
		out:      make([][]float32, nOut),
		in:       make([][]float32, nIn),
	}
	b.reserve(reserve)
	return b
}

// reserve grows every channel to hold at least frames samples.
func (b *bufferBridge) reserve(frames int) {
	for _, store := range [][][]float32{b.outStore, b.inStore} {
		for i := range store {
			if cap(store[i]) < frames {
				store[i] = make([]float32, frames)
			}
		}
	}
}

// limit exposes only the first nOut and nIn channels to the callback. The
// stores keep every channel, so a start that fails can widen the views again.
// Must not run while the engine is active.
func (b *bufferBridge) limit(nOut, nIn int) {
	b.out = b.out[:min(nOut, len(b.outStore))]
	b.in = b.in[:min(nIn, len(b.inStore))]
}

// resize sets every view to frames samples and returns how many channels had
// to be reallocated because frames exceeded the reserved capacity.
func (b *bufferBridge) resize(frames int) (reallocs int) {
	for i := range b.out {
		s := b.outStore[i]
		if cap(s) < frames {
			s = make([]float32, frames)
			b.outStore[i] = s
			reallocs++
		}
		b.out[i] = s[:frames]
	}
	for i := range b.in {
		s := b.inStore[i]
		if cap(s) < frames {
			s = make([]float32, frames)
			b.inStore[i] = s
			reallocs++
		}
		b.in[i] = s[:frames]
	}
	return reallocs
}

// fill copies the engine input buffers into the input views.
func (b *bufferBridge) fill(frames uint32, ports []engine.Port) {
	for i, p := range ports {
		if i >= len(b.in) {
			return
		}
		dst := b.in[i]
		n := copy(dst, p.Buffer(frames))
		clear(dst[n:])
	}
}

func (b *bufferBridge) silence() {
	for _, ch := range b.out {
		clear(ch)
	}
}

// drain copies the output views into the engine output buffers.
func (b *bufferBridge) drain(frames uint32, ports []engine.Port) {
	for i, p := range ports {
		if i >= len(b.out) {
			return
		}
		dst := p.Buffer(frames)
		n := copy(dst, b.out[i])
		clear(dst[n:])
	}
}
