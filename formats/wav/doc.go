// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes WAV files on top of github.com/go-audio/wav.
//
// Decoder accepts integer PCM at 8, 16, 24 or 32 bits with any channel
// count and sample rate. Readers that cannot seek are buffered in memory
// first, since go-audio needs an io.ReadSeeker.
//
// Writer produces 16-bit PCM from interleaved float32 frames:
//
//	w, err := wav.Create("take.wav", 48000, 2)
//	if err != nil {
//	    return err
//	}
//	if err := w.WriteFrames(frames); err != nil {
//	    return err
//	}
//	return w.Close()
package wav
