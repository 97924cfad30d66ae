// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"math/bits"
	"sync/atomic"
)

// Ring is a single-producer single-consumer float32 queue. One goroutine may
// Write while another Reads without locks; neither side allocates.
type Ring struct {
	buf  []float32
	mask uint64

	// head counts samples written, tail samples read. Both only grow.
	head atomic.Uint64
	tail atomic.Uint64
}

// NewRing returns a ring holding at least capacity samples, rounded up to a
// power of two.
func NewRing(capacity int) *Ring {
	size := uint64(1)
	if capacity > 1 {
		size = 1 << bits.Len64(uint64(capacity-1))
	}
	return &Ring{
		buf:  make([]float32, size),
		mask: size - 1,
	}
}

func (r *Ring) Cap() int { return len(r.buf) }

// Len returns the number of samples ready to read.
func (r *Ring) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Free returns the number of samples that can be written.
func (r *Ring) Free() int {
	return len(r.buf) - r.Len()
}

// Write copies as much of p as fits and returns the count. Producer only.
func (r *Ring) Write(p []float32) int {
	head := r.head.Load()
	free := len(r.buf) - int(head-r.tail.Load())
	n := min(len(p), free)
	if n == 0 {
		return 0
	}

	start := int(head & r.mask)
	k := copy(r.buf[start:], p[:n])
	copy(r.buf, p[k:n])

	r.head.Store(head + uint64(n))
	return n
}

// Read moves up to len(p) samples into p and returns the count. Consumer
// only.
func (r *Ring) Read(p []float32) int {
	tail := r.tail.Load()
	avail := int(r.head.Load() - tail)
	n := min(len(p), avail)
	if n == 0 {
		return 0
	}

	start := int(tail & r.mask)
	k := copy(p[:n], r.buf[start:])
	copy(p[k:n], r.buf)

	r.tail.Store(tail + uint64(n))
	return n
}
