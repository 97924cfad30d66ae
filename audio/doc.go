// SPDX-License-Identifier: EPL-2.0

// Package audio provides the sample plumbing shared by decoders and the
// ready-made callbacks.
//
// # Sources
//
// A Source is a pull stream of interleaved float32 samples in [-1, 1]. File
// decoders in the formats packages produce Sources; Resampler and MonoMixer
// wrap them:
//
//	src, err := registry.Open("take.wav")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//	at48k := audio.NewResampler(src, 48000)
//
// ReadSamples returns io.EOF once the stream is finished, possibly together
// with the last samples.
//
// # Planar buffers
//
// Engine callbacks see one buffer per channel. Interleave and Deinterleave
// convert between that layout and Source frames, and Downmix averages
// channels in place. None of them allocate, so they can run on the
// real-time thread.
//
// # Format registry
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{}, ".wave")
//	dec, format, err := registry.Lookup("take.WAVE")
package audio
