// SPDX-License-Identifier: EPL-2.0

package client

// State is a Client lifecycle stage.
type State int32

const (
	StateUnopened State = iota
	StateOpen
	StateStarted
	StateStopped
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// opened reports whether the engine connection is held in s.
func (s State) opened() bool {
	return s == StateOpen || s == StateStarted || s == StateStopped
}
