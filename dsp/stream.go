// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultBuffer is the ring depth used when StreamConfig.Buffer is zero.
const DefaultBuffer = 500 * time.Millisecond

// StreamConfig sizes the ring between a real-time callback and its feeder
// goroutine.
type StreamConfig struct {
	// MaxFrames is the largest cycle the callback must handle without
	// allocating. Defaults to 4096.
	MaxFrames int
	// Buffer is the ring depth.
	Buffer time.Duration
	Logger *zerolog.Logger
}

func (c StreamConfig) withDefaults() StreamConfig {
	if c.MaxFrames <= 0 {
		c.MaxFrames = 4096
	}
	if c.Buffer <= 0 {
		c.Buffer = DefaultBuffer
	}
	return c
}

// ringSamples returns the ring size for rate and channels, never less than
// two full cycles.
func (c StreamConfig) ringSamples(rate, channels int) int {
	frames := int(c.Buffer.Seconds() * float64(rate))
	return max(frames, 2*c.MaxFrames) * channels
}

func (c StreamConfig) logger(component string) zerolog.Logger {
	if c.Logger == nil {
		return zerolog.Nop()
	}
	return c.Logger.With().Str("component", component).Logger()
}

// poke wakes the goroutine on the other side of a ring without blocking.
func poke(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
