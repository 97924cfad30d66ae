// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF files with github.com/go-audio/aiff.
//
// Integer PCM at 8, 16, 24 or 32 bits is supported, any channel count and
// sample rate. The decoder buffers non-seekable readers in memory.
//
//	src, err := aiff.Decoder{}.Decode(file)
//	if err != nil {
//	    return err
//	}
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
package aiff
