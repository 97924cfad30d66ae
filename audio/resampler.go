// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// Resampler streams from src to a target sample rate using cubic
// interpolation. It works on interleaved samples and keeps the channel count.
// A one-pole low-pass filter is applied to the source when downsampling.
type Resampler struct {
	src      Source
	rate     int
	step     float64 // source frames per output frame
	channels int

	// hist holds the frames at t-1, t0, t+1, t+2 around pos.
	hist   [4][]float32
	real   [4]bool
	pos    float64
	primed bool

	chunk []float32
	off   int
	avail int
	tail  []float32 // partial frame left over from the previous read
	eof   bool

	lowpass bool
	alpha   float32
	state   []float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	step := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:      src,
		rate:     dstRate,
		step:     step,
		channels: channels,
		chunk:    make([]float32, channels*1024),
		tail:     make([]float32, 0, channels),
		lowpass:  step > 1,
		alpha:    0.5,
		state:    make([]float32, channels),
	}
	for i := range r.hist {
		r.hist[i] = make([]float32, channels)
	}
	return r
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// pull reads the next source frame into dst. It reports false at the end of
// the stream.
func (r *Resampler) pull(dst []float32) (bool, error) {
	for r.off >= r.avail {
		if r.eof {
			return false, nil
		}
		k := copy(r.chunk, r.tail)
		n, err := r.src.ReadSamples(r.chunk[k:])
		whole := k + n - (k+n)%r.channels
		r.tail = append(r.tail[:0], r.chunk[whole:k+n]...)
		r.off, r.avail = 0, whole
		switch {
		case errors.Is(err, io.EOF):
			r.eof = true
		case err != nil:
			return false, fmt.Errorf("%w", err)
		case n == 0:
			return false, io.ErrNoProgress
		}
	}

	copy(dst, r.chunk[r.off:r.off+r.channels])
	r.off += r.channels

	if r.lowpass {
		for c := range dst {
			dst[c] = r.alpha*dst[c] + (1-r.alpha)*r.state[c]
			r.state[c] = dst[c]
		}
	}
	return true, nil
}

func (r *Resampler) prime() error {
	ok, err := r.pull(r.hist[1])
	if err != nil || !ok {
		return err
	}
	if r.lowpass {
		// restart the filter from the first frame to avoid a fade-in
		copy(r.state, r.hist[1])
	}
	copy(r.hist[0], r.hist[1])
	r.real[0], r.real[1] = true, true

	for i := 2; i < 4; i++ {
		ok, err := r.pull(r.hist[i])
		if err != nil {
			return err
		}
		if !ok {
			copy(r.hist[i], r.hist[i-1])
		}
		r.real[i] = ok
	}
	return nil
}

// advance shifts the history by one source frame.
func (r *Resampler) advance() error {
	h0 := r.hist[0]
	copy(r.hist[:3], r.hist[1:])
	copy(r.real[:3], r.real[1:])
	r.hist[3] = h0

	ok, err := r.pull(r.hist[3])
	if err != nil {
		return err
	}
	if !ok {
		copy(r.hist[3], r.hist[2])
	}
	r.real[3] = ok
	return nil
}

// ReadSamples produces interleaved samples at the target rate. len(dst) must
// be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		r.primed = true
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	frames := len(dst) / r.channels
	written := 0
	for written < frames {
		for r.pos >= 1 {
			r.pos--
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}
		if !r.real[1] {
			return written * r.channels, io.EOF
		}

		x := float32(r.pos)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			out[c] = CubicInterpolate(r.hist[0][c], r.hist[1][c], r.hist[2][c], r.hist[3][c], x)
		}
		written++
		r.pos += r.step
	}
	return written * r.channels, nil
}
