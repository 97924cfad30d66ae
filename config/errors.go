// SPDX-License-Identifier: EPL-2.0

package config

import "errors"

var (
	ErrInvalidPortCount = errors.New("port count must not be negative")
	ErrInvalidMaxFrames = errors.New("max_frames must be positive")
	ErrInvalidMode      = errors.New("unknown demo mode")
	ErrMissingFile      = errors.New("demo mode needs a file")
	ErrInvalidFrequency = errors.New("frequency must be positive")
	ErrInvalidEnv       = errors.New("invalid environment override")
)
