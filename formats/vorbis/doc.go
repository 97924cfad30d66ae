// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams with github.com/jfreymuth/oggvorbis.
//
// The source keeps the channel count and sample rate of the stream and
// decodes straight into the caller's buffer.
package vorbis
