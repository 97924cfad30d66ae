// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/audjack/audio"
)

// Writer encodes interleaved float32 frames as 16-bit PCM WAV. The header
// sizes are patched on Close, so the destination must be seekable.
type Writer struct {
	enc      *wav.Encoder
	buf      *goaudio.IntBuffer
	channels int
	frames   int64
	closer   io.Closer
	closed   bool
}

func NewWriter(w io.WriteSeeker, sampleRate, channels int) *Writer {
	return &Writer{
		enc:      wav.NewEncoder(w, sampleRate, 16, channels, formatPCM),
		channels: channels,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}
}

// Create opens path for writing. Close also closes the file.
func Create(path string, sampleRate, channels int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	w := NewWriter(f, sampleRate, channels)
	w.closer = f
	return w, nil
}

// WriteFrames appends interleaved samples.
func (w *Writer) WriteFrames(samples []float32) error {
	if w.closed {
		return ErrWriterClosed
	}
	if len(samples)%w.channels != 0 {
		return ErrFrameSize
	}
	if len(samples) == 0 {
		return nil
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		w.buf.Data[i] = int(audio.Float32ToInt16(s))
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("%w", err)
	}
	w.frames += int64(len(samples) / w.channels)
	return nil
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int64 { return w.frames }

func (w *Writer) Channels() int { return w.channels }

func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.enc.Close()
	if w.closer != nil {
		err = errors.Join(err, w.closer.Close())
	}
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
