// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1 Layer III streams with
// github.com/hajimehoshi/go-mp3.
//
// go-mp3 always yields interleaved 16-bit stereo, so every Source from this
// package reports two channels regardless of the file. Mono files come out
// with the same signal on both channels.
package mp3
