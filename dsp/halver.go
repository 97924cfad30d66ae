// SPDX-License-Identifier: EPL-2.0

package dsp

// Halver sends input channel 0 at half amplitude to every output.
type Halver struct{}

func (Halver) Process(frames int, out, in [][]float32) {
	if len(in) == 0 {
		return
	}
	src := in[0][:frames]
	for _, ch := range out {
		for i, s := range src {
			ch[i] = 0.5 * s
		}
	}
}
