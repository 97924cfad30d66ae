// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"

	"github.com/ik5/audjack/audio"
)

// Decoder reads integer PCM AIFF at 8, 16, 24 or 32 bits.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%d bits: %w", dec.BitDepth, ErrUnsupportedBitDepth)
	}
	if f := dec.Format(); f == nil || f.NumChannels == 0 {
		return nil, ErrUnsupportedAiffLayout
	}

	return audio.NewIntSource(dec, int(dec.BitDepth)), nil
}
