// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	ErrServerUnreachable = errors.New("audio server unreachable")
	ErrNameConflict      = errors.New("client name not unique")
	ErrPortRegistration  = errors.New("port registration failed")
	ErrNoSuchPort        = errors.New("no such port")
	ErrConnect           = errors.New("port connection failed")
	ErrActivate          = errors.New("activation failed")
	ErrClosed            = errors.New("engine handle closed")
	ErrUnavailable       = errors.New("engine backend not available in this build")
)
