// SPDX-License-Identifier: EPL-2.0

package client

import (
	"github.com/rs/zerolog"

	"github.com/ik5/audjack/internal/logging"
)

// DefaultMaxFrames is the per-channel capacity reserved at Open when neither
// the engine period nor WithMaxFrames asks for more.
const DefaultMaxFrames = 4096

// Option configures a Client.
type Option func(*options)

type options struct {
	logger    zerolog.Logger
	maxFrames int
	onDegrade func(Degradation)
}

func defaultOptions() options {
	return options{
		logger:    logging.Default(),
		maxFrames: DefaultMaxFrames,
	}
}

// WithLogger sets the logger. A "component" field is added to it.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMaxFrames reserves channel buffers for up to n frames so cycles up to
// that size never allocate.
func WithMaxFrames(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxFrames = n
		}
	}
}

// WithDegradationHandler registers fn to be called from Start for every
// direction whose port count was reduced to match the available hardware.
func WithDegradationHandler(fn func(Degradation)) Option {
	return func(o *options) { o.onDegrade = fn }
}
