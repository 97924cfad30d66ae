// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile           = errors.New("not a WAV file")
	ErrUnsupportedWavLayout = errors.New("unsupported WAV layout")
	ErrOnlyPCMSupported     = errors.New("only integer PCM WAV is supported")
	ErrUnsupportedBitDepth  = errors.New("unsupported bit depth")
	ErrFrameSize            = errors.New("sample count must be a multiple of channels")
	ErrWriterClosed         = errors.New("writer closed")
)
