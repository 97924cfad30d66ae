// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audjack/internal/audiotest"
)

func TestDownmix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels [][]float32
		want     []float32
	}{
		{"none", nil, []float32{0, 0, 0}},
		{"mono copies", [][]float32{{0.1, 0.2, 0.3}}, []float32{0.1, 0.2, 0.3}},
		{"stereo averages", [][]float32{{1, 0, -1}, {0, 0, 1}}, []float32{0.5, 0, 0}},
		{"short channel is silence", [][]float32{{1, 1, 1}, {1}}, []float32{1, 0.5, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dst := []float32{9, 9, 9}
			Downmix(dst, tt.channels)
			assert.InDeltaSlice(t, tt.want, dst, 1e-6)
		})
	}
}

func TestDownmix_DoesNotAllocate(t *testing.T) {
	dst := make([]float32, 256)
	channels := [][]float32{make([]float32, 256), make([]float32, 256)}

	allocs := testing.AllocsPerRun(50, func() { Downmix(dst, channels) })
	assert.Zero(t, allocs)
}

func TestInterleaveRoundTrip(t *testing.T) {
	t.Parallel()

	planar := [][]float32{{1, 2, 3}, {10, 20, 30}}
	inter := make([]float32, 6)

	n, err := Interleave(inter, planar)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, []float32{1, 10, 2, 20, 3, 30}, inter)

	back := [][]float32{make([]float32, 3), make([]float32, 3)}
	frames, err := Deinterleave(back, inter)
	require.NoError(t, err)
	assert.Equal(t, 3, frames)
	assert.Equal(t, planar, back)
}

func TestInterleave_Errors(t *testing.T) {
	t.Parallel()

	_, err := Interleave(make([]float32, 4), [][]float32{{1, 2}, {1}})
	assert.ErrorIs(t, err, ErrChannelMismatch)

	_, err = Deinterleave([][]float32{make([]float32, 2), make([]float32, 2)}, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidDstSize)

	n, err := Interleave(make([]float32, 3), [][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 2, n, "dst holds only one whole frame")
}

func TestMonoMixer(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(8000, 2, 4, func(frame, channel int) float32 {
		if channel == 0 {
			return 1
		}
		return float32(frame) / 4
	})
	m := NewMonoMixer(src)
	assert.Equal(t, 1, m.Channels())
	assert.Equal(t, 8000, m.SampleRate())

	dst := make([]float32, 8)
	n, err := m.ReadSamples(dst)
	assert.ErrorIs(t, err, io.EOF)
	require.Equal(t, 4, n)
	assert.InDeltaSlice(t, []float32{0.5, 0.625, 0.75, 0.875}, dst[:n], 1e-6)

	require.NoError(t, m.Close())
	assert.True(t, src.Closed())
}

func TestMonoMixer_MonoPassThrough(t *testing.T) {
	t.Parallel()

	m := NewMonoMixer(audiotest.NewConstantSource(8000, 1, 3, 0.25))
	dst := make([]float32, 3)
	n, _ := m.ReadSamples(dst)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float32{0.25, 0.25, 0.25}, dst)
}
