// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"io"
	"math"
)

// MockSource generates audio for tests. It satisfies audio.Source without
// importing the audio package.
type MockSource struct {
	sampleRate int
	channels   int
	frames     int
	generated  int
	closed     bool
	waveform   func(frame, channel int) float32
}

// NewMockSource creates a source of frames frames whose samples come from
// waveform.
func NewMockSource(sampleRate, channels, frames int, waveform func(frame, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		waveform:   waveform,
	}
}

func NewSilentSource(sampleRate, channels, frames int) *MockSource {
	return NewConstantSource(sampleRate, channels, frames, 0)
}

func NewSineSource(sampleRate, channels, frames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(frame, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

func NewConstantSource(sampleRate, channels, frames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(int, int) float32 {
		return value
	})
}

// NewRampSource yields frame/1000 plus channel, so every sample is distinct
// and its origin can be read back.
func NewRampSource(sampleRate, channels, frames int) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(frame, channel int) float32 {
		return float32(channel) + float32(frame)/1000
	})
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed }

// Reset rewinds the source.
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.generated >= m.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/m.channels, m.frames-m.generated)
	for f := range n {
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.waveform(m.generated+f, ch)
		}
	}
	m.generated += n

	if m.generated >= m.frames {
		return n * m.channels, io.EOF
	}
	return n * m.channels, nil
}

// ShortReads hands out at most limit samples per read, so frames end up
// split across reads the way byte-oriented decoders can split them.
type ShortReads struct {
	*MockSource

	limit int
	buf   []float32
	eof   bool
}

func NewShortReads(src *MockSource, limit int) *ShortReads {
	return &ShortReads{MockSource: src, limit: limit}
}

func (s *ShortReads) ReadSamples(dst []float32) (int, error) {
	if len(s.buf) == 0 {
		if s.eof {
			return 0, io.EOF
		}
		tmp := make([]float32, 16*s.channels)
		n, err := s.MockSource.ReadSamples(tmp)
		switch {
		case errors.Is(err, io.EOF):
			s.eof = true
		case err != nil:
			return 0, err
		}
		s.buf = tmp[:n]
	}

	n := copy(dst[:min(len(dst), s.limit)], s.buf)
	s.buf = s.buf[n:]
	if s.eof && len(s.buf) == 0 {
		return n, io.EOF
	}
	return n, nil
}
