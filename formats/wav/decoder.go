// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/ik5/audjack/audio"
)

const formatPCM = 1

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	if dec.WavAudioFormat != formatPCM {
		return nil, fmt.Errorf("format tag %d: %w", dec.WavAudioFormat, ErrOnlyPCMSupported)
	}
	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%d bits: %w", dec.BitDepth, ErrUnsupportedBitDepth)
	}
	if f := dec.Format(); f == nil || f.NumChannels == 0 {
		return nil, ErrUnsupportedWavLayout
	}

	return audio.NewIntSource(dec, int(dec.BitDepth)), nil
}
