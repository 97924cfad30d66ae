// SPDX-License-Identifier: EPL-2.0

package engine

// Direction is the flow of a port as seen by the engine.
// An Output port produces samples, an Input port consumes them.
type Direction int

const (
	Output Direction = iota
	Input
)

func (d Direction) String() string {
	switch d {
	case Output:
		return "output"
	case Input:
		return "input"
	default:
		return "unknown"
	}
}

// Opposite returns the direction a peer port must have to be connected to d.
func (d Direction) Opposite() Direction {
	if d == Output {
		return Input
	}
	return Output
}

// Process hook return values.
const (
	StatusOK      = 0
	StatusFailure = 1
)

// ProcessHook is invoked by the engine once per cycle on its real-time thread.
type ProcessHook func(frames uint32) int

// ShutdownHook is invoked when the engine drops the client.
type ShutdownHook func(reason string)

// Port is a registered client port.
type Port interface {
	// Name returns the full "client:port" name.
	Name() string
	// Buffer returns the engine memory for the current cycle.
	// The slice must not be retained past the cycle that obtained it.
	Buffer(frames uint32) []float32
}

// Handle is an open connection to the engine.
type Handle interface {
	// Name returns the client name assigned by the engine.
	Name() string

	RegisterPort(name string, dir Direction) (Port, error)
	UnregisterPort(p Port) error

	// PhysicalPorts lists hardware-backed ports whose own flow is dir, in
	// engine order. Input ports are playback sinks, Output ports are capture
	// sources.
	PhysicalPorts(dir Direction) ([]string, error)

	// Connect links src (an output) to dst (an input). Connecting an already
	// connected pair succeeds.
	Connect(src, dst string) error

	SetProcessHook(hook ProcessHook) error
	OnShutdown(hook ShutdownHook)

	Activate() error
	// Deactivate returns once the process hook can no longer be invoked.
	Deactivate() error

	SampleRate() uint32
	BufferSize() uint32
	SetBufferSize(frames uint32) error

	Close() error
}

// Engine opens client connections. An empty serverName selects the default
// server.
type Engine interface {
	Connect(clientName, serverName string) (Handle, error)
}
