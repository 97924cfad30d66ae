// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePCM struct {
	format *goaudio.Format
	data   []int
	pos    int
	err    error
}

func (f *fakePCM) Format() *goaudio.Format { return f.format }

func (f *fakePCM) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := copy(buf.Data, f.data[f.pos:])
	f.pos += n
	return n, nil
}

func TestIntSource_Normalizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bitDepth int
		data     []int
		want     []float32
	}{
		{"16 bit", 16, []int{0, 16384, -32768}, []float32{0, 0.5, -1}},
		{"24 bit", 24, []int{4194304, -8388608}, []float32{0.5, -1}},
		{"8 bit", 8, []int{64, -128}, []float32{0.5, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := NewIntSource(&fakePCM{
				format: &goaudio.Format{NumChannels: 1, SampleRate: 8000},
				data:   tt.data,
			}, tt.bitDepth)

			dst := make([]float32, 16)
			n, err := src.ReadSamples(dst)
			assert.ErrorIs(t, err, io.EOF, "short read marks the end")
			require.Equal(t, len(tt.want), n)
			assert.InDeltaSlice(t, tt.want, dst[:n], 1e-6)

			n, err = src.ReadSamples(dst)
			assert.Zero(t, n)
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestIntSource_Metadata(t *testing.T) {
	t.Parallel()

	src := NewIntSource(&fakePCM{format: &goaudio.Format{NumChannels: 2, SampleRate: 44100}}, 16)
	assert.Equal(t, 2, src.Channels())
	assert.Equal(t, 44100, src.SampleRate())
	assert.Equal(t, 4096, src.BufSize())
	assert.NoError(t, src.Close())

	n, err := src.ReadSamples(nil)
	assert.Zero(t, n)
	assert.NoError(t, err)
	assert.Equal(t, 4096, src.BufSize())

	_, _ = src.ReadSamples(make([]float32, 64))
	assert.Equal(t, 64, src.BufSize())
}

func TestIntSource_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("truncated chunk")
	src := NewIntSource(&fakePCM{format: &goaudio.Format{NumChannels: 1, SampleRate: 8000}, err: boom}, 16)
	_, err := src.ReadSamples(make([]float32, 4))
	assert.ErrorIs(t, err, boom)
}
