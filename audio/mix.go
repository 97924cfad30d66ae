// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// Downmix writes the average of the planar channels into dst. Only the first
// len(dst) frames are mixed; channels shorter than dst are treated as
// silence past their end. It does not allocate.
func Downmix(dst []float32, channels [][]float32) {
	clear(dst)
	if len(channels) == 0 {
		return
	}

	for _, ch := range channels {
		n := min(len(ch), len(dst))
		for i := range n {
			dst[i] += ch[i]
		}
	}

	if len(channels) == 1 {
		return
	}
	inv := 1 / float32(len(channels))
	for i := range dst {
		dst[i] *= inv
	}
}

// Interleave packs planar channels into dst frame by frame and returns the
// number of samples written. All channels must have the same length.
func Interleave(dst []float32, channels [][]float32) (int, error) {
	if len(channels) == 0 {
		return 0, nil
	}
	frames := len(channels[0])
	for _, ch := range channels[1:] {
		if len(ch) != frames {
			return 0, ErrChannelMismatch
		}
	}

	n := len(channels)
	frames = min(frames, len(dst)/n)
	for f := range frames {
		base := f * n
		for c, ch := range channels {
			dst[base+c] = ch[f]
		}
	}
	return frames * n, nil
}

// Deinterleave spreads interleaved samples over the planar channels and
// returns the number of frames written.
func Deinterleave(channels [][]float32, src []float32) (int, error) {
	n := len(channels)
	if n == 0 {
		return 0, nil
	}
	if len(src)%n != 0 {
		return 0, ErrInvalidDstSize
	}

	frames := len(src) / n
	for _, ch := range channels {
		frames = min(frames, len(ch))
	}
	for f := range frames {
		base := f * n
		for c, ch := range channels {
			ch[f] = src[base+c]
		}
	}
	return frames, nil
}

// MonoMixer is a Source that averages every frame of src into one channel.
type MonoMixer struct {
	src Source
	tmp []float32
}

func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{
		src: src,
		tmp: make([]float32, 4096),
	}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) BufSize() int    { return m.src.BufSize() }

func (m *MonoMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	channels := m.src.Channels()
	if channels == 1 {
		return m.src.ReadSamples(dst)
	}

	need := len(dst) * channels
	if cap(m.tmp) < need {
		m.tmp = make([]float32, max(need, 8192))
	}
	n, err := m.src.ReadSamples(m.tmp[:need])
	if n == 0 {
		return 0, err
	}

	frames := n / channels
	inv := 1 / float32(channels)
	for f := range frames {
		var sum float32
		for _, s := range m.tmp[f*channels : (f+1)*channels] {
			sum += s
		}
		dst[f] = sum * inv
	}
	return frames, err
}
