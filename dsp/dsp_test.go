// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planar(channels, frames int) [][]float32 {
	out := make([][]float32, channels)
	for i := range out {
		out[i] = make([]float32, frames)
	}
	return out
}

func TestHalver(t *testing.T) {
	t.Parallel()

	in := [][]float32{{1, -0.5, 0.25}, {9, 9, 9}}
	out := planar(2, 3)
	Halver{}.Process(3, out, in)

	for _, ch := range out {
		assert.Equal(t, []float32{0.5, -0.25, 0.125}, ch)
	}
}

func TestHalver_NoInputs(t *testing.T) {
	t.Parallel()

	out := planar(1, 4)
	Halver{}.Process(4, out, nil)
	assert.Equal(t, make([]float32, 4), out[0])
}

func TestSine(t *testing.T) {
	t.Parallel()

	s := NewSine(48000, 0, 0.5)
	out := planar(2, 64)
	s.Process(64, out, nil)

	for i := range 64 {
		want := 0.5 * math.Sin(2*math.Pi*DefaultFrequency*float64(i)/48000)
		assert.InDelta(t, want, out[0][i], 1e-5, "frame %d", i)
	}
	assert.Equal(t, out[0], out[1])

	// phase carries over between cycles
	next := planar(1, 1)
	s.Process(1, next, nil)
	assert.InDelta(t, 0.5*math.Sin(2*math.Pi*DefaultFrequency*64/48000), next[0][0], 1e-5)
}

func TestLooper(t *testing.T) {
	t.Parallel()

	l := NewLooper(5)
	assert.Equal(t, Recording, l.Mode())

	out := planar(2, 3)
	l.Process(3, out, [][]float32{{1, 2, 3}, {3, 2, 1}})
	l.Process(3, out, [][]float32{{4, 5, 6}, {0, 1, 2}})
	assert.Equal(t, 5, l.Len(), "recording stops when the take is full")
	assert.Equal(t, make([]float32, 3), out[0], "recording leaves outputs silent")

	require.Equal(t, Playing, l.Switch())
	l.Process(3, out, nil)
	assert.Equal(t, []float32{2, 2, 2}, out[0])
	assert.Equal(t, out[0], out[1])

	l.Process(3, out, nil)
	assert.Equal(t, []float32{2, 3, 2}, out[0], "take wraps at its end")

	require.Equal(t, Recording, l.Switch())
	l.Process(3, planar(1, 3), [][]float32{{7, 7, 7}})
	assert.Equal(t, 3, l.Len(), "switching back starts a new take")
}

func TestLooper_PlayEmptyTake(t *testing.T) {
	t.Parallel()

	l := NewLooper(8)
	l.Switch()
	out := planar(1, 4)
	l.Process(4, out, nil)
	assert.Equal(t, make([]float32, 4), out[0])
	assert.Equal(t, "playing", l.Mode().String())
}

func TestLooper_DoesNotAllocate(t *testing.T) {
	l := NewLooper(1 << 16)
	in := planar(2, 256)
	out := planar(2, 256)

	allocs := testing.AllocsPerRun(100, func() { l.Process(256, out, in) })
	assert.Zero(t, allocs)

	l.Switch()
	allocs = testing.AllocsPerRun(100, func() { l.Process(256, out, in) })
	assert.Zero(t, allocs)
}
