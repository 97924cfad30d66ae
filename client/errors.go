// SPDX-License-Identifier: EPL-2.0

package client

import (
	"errors"
	"fmt"
)

var (
	ErrNotOpen          = errors.New("client not open")
	ErrAlreadyOpen      = errors.New("client already open")
	ErrAlreadyStarted   = errors.New("client already started")
	ErrNilCallback      = errors.New("callback is nil")
	ErrInvalidPortCount = errors.New("port count must not be negative")
	ErrCallbackPanic    = errors.New("callback panicked")
	ErrProcessFault     = errors.New("process cycle fault")
)

// ClientError is the single error kind returned by Client operations.
// Op names the lifecycle step, Msg describes what failed and Err, when set,
// is the underlying cause.
type ClientError struct {
	Op  string
	Msg string
	Err error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return e.Op + ": " + e.Msg
}

func (e *ClientError) Unwrap() error { return e.Err }

func newError(op, msg string, err error) *ClientError {
	return &ClientError{Op: op, Msg: msg, Err: err}
}
