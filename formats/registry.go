// SPDX-License-Identifier: EPL-2.0

// Package formats wires the bundled decoders into an audio.Registry.
package formats

import (
	"github.com/ik5/audjack/audio"
	"github.com/ik5/audjack/formats/aiff"
	"github.com/ik5/audjack/formats/mp3"
	"github.com/ik5/audjack/formats/vorbis"
	"github.com/ik5/audjack/formats/wav"
)

// NewRegistry returns a registry with every bundled decoder, keyed by format
// name and common file extensions.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{}, "wave")
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{}, "oga", "vorbis")
	r.Register("aiff", aiff.Decoder{}, "aif", "aifc")
	return r
}
