// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/audjack/audio"
)

// oggReader is the part of oggvorbis.Reader the source uses.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type source struct {
	dec oggReader
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return s.dec.Channels() }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 }

// ReadSamples decodes whole frames into dst. oggvorbis reads straight into
// the caller's interleaved buffer, so no copy is needed.
func (s *source) ReadSamples(dst []float32) (int, error) {
	ch := s.dec.Channels()
	whole := len(dst) - len(dst)%ch
	if whole == 0 {
		return 0, nil
	}
	return s.dec.Read(dst[:whole])
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return &source{dec: dec}, nil
}
