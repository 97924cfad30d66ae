// SPDX-License-Identifier: EPL-2.0

// Package dsp holds ready-made client callbacks.
//
// Halver, Sine and Looper are self-contained. Player and Recorder cross the
// real-time boundary through a Ring: their Process methods only copy to or
// from the ring, and a Run method on an ordinary goroutine does the decoding
// or file writing. Run should be started before the client so the ring is
// primed.
//
// Process methods never allocate or lock.
package dsp
