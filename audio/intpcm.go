// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"

	goaudio "github.com/go-audio/audio"
)

// PCMReader is the part of the go-audio wav and aiff decoders IntSource
// reads from.
type PCMReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// IntSource adapts a go-audio integer PCM decoder to Source.
type IntSource struct {
	dec      PCMReader
	format   *goaudio.Format
	bitDepth int
	buf      *goaudio.IntBuffer
}

func NewIntSource(dec PCMReader, bitDepth int) *IntSource {
	return &IntSource{
		dec:      dec,
		format:   dec.Format(),
		bitDepth: bitDepth,
	}
}

func (s *IntSource) SampleRate() int { return s.format.SampleRate }
func (s *IntSource) Channels() int   { return s.format.NumChannels }
func (s *IntSource) Close() error    { return nil }

func (s *IntSource) BufSize() int {
	if s.buf != nil {
		return cap(s.buf.Data)
	}
	return 4096
}

func (s *IntSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.buf == nil || cap(s.buf.Data) < len(dst) {
		s.buf = &goaudio.IntBuffer{
			Data:           make([]int, len(dst)),
			Format:         s.format,
			SourceBitDepth: s.bitDepth,
		}
	}
	s.buf.Data = s.buf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.buf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	for i, v := range s.buf.Data[:n] {
		dst[i] = IntToFloat32(v, s.bitDepth)
	}
	if n < len(dst) && err == nil {
		return n, io.EOF
	}
	return n, err
}
