// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// DefaultFrequency is the tone used when NewSine gets a zero frequency.
const DefaultFrequency = 440.0

// Sine writes a continuous sine tone to every output.
type Sine struct {
	amp   float32
	step  float64
	phase float64
}

// NewSine returns a generator for freq Hz at sampleRate with peak amplitude
// amp.
func NewSine(sampleRate uint32, freq float64, amp float32) *Sine {
	if freq == 0 {
		freq = DefaultFrequency
	}
	return &Sine{
		amp:  amp,
		step: 2 * math.Pi * freq / float64(sampleRate),
	}
}

func (s *Sine) Process(frames int, out, _ [][]float32) {
	for i := range frames {
		v := s.amp * float32(math.Sin(s.phase))
		for _, ch := range out {
			ch[i] = v
		}
		s.phase += s.step
		if s.phase >= 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
}
