// SPDX-License-Identifier: EPL-2.0

package client

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ik5/audjack/engine"
	"github.com/ik5/audjack/internal/logging"
)

// lifeline tracks the engine connection of one Open. Done is closed when the
// engine drops the client.
type lifeline struct {
	done   chan struct{}
	once   sync.Once
	reason atomic.Pointer[string]
}

func newLifeline() *lifeline {
	return &lifeline{done: make(chan struct{})}
}

func (l *lifeline) cut(reason string) {
	l.once.Do(func() {
		l.reason.Store(&reason)
		close(l.done)
	})
}

// Client is a connection to an audio engine with a fixed set of ports and a
// user callback. Control methods are safe for concurrent use; the callback
// runs on the engine thread.
type Client struct {
	eng  engine.Engine
	opts options
	log  zerolog.Logger

	state atomic.Int32
	life  atomic.Pointer[lifeline]

	mu     sync.Mutex
	name   string
	server string
	reqOut int
	reqIn  int
	handle engine.Handle
	ports  *PortSet
	bridge *bufferBridge
	disp   *dispatcher
	plan   ConnectionPlan
}

// New returns an unopened client bound to eng.
func New(eng engine.Engine, opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		eng:  eng,
		opts: o,
		log:  logging.Component(o.logger, "client"),
	}
	c.life.Store(newLifeline())
	return c
}

// Dial creates a client and opens it.
func Dial(eng engine.Engine, nOut, nIn int, name, server string, opts ...Option) (*Client, error) {
	c := New(eng, opts...)
	if err := c.Open(nOut, nIn, name, server); err != nil {
		return nil, err
	}
	return c, nil
}

// State returns the lifecycle stage.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// Open connects to the server and registers nOut output and nIn input ports.
// An empty server selects the default one. Open is allowed on a new or a
// closed client.
func (c *Client) Open(nOut, nIn int, name, server string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st := c.State(); st != StateUnopened && st != StateClosed {
		return newError("open", "client already open", ErrAlreadyOpen)
	}
	if nOut < 0 || nIn < 0 {
		return newError("open", fmt.Sprintf("invalid port counts %d/%d", nOut, nIn), ErrInvalidPortCount)
	}

	h, err := c.eng.Connect(name, server)
	if err != nil {
		msg := "client failed to open"
		switch {
		case errors.Is(err, engine.ErrServerUnreachable):
			msg = "could not connect to audio server"
		case errors.Is(err, engine.ErrNameConflict):
			msg = fmt.Sprintf("client name %q already in use", name)
		}
		c.log.Error().Err(err).Str("name", name).Str("server", server).Msg(msg)
		return newError("open", msg, err)
	}
	if assigned := h.Name(); assigned != name {
		c.log.Info().Str("requested", name).Str("assigned", assigned).
			Msg("server assigned a different client name")
	}

	life := newLifeline()
	h.OnShutdown(func(reason string) {
		c.log.Error().Str("reason", reason).Msg("engine shut the client down")
		life.cut(reason)
	})

	ports, err := registerPorts(h, nOut, nIn)
	if err != nil {
		_ = h.Close()
		c.log.Error().Err(err).Msg("port registration failed")
		return err
	}

	reserve := max(int(h.BufferSize()), c.opts.maxFrames)
	c.bridge = newBufferBridge(nOut, nIn, reserve)
	c.disp = newDispatcher(c.bridge)
	c.handle = h
	c.ports = ports
	c.name = h.Name()
	c.server = server
	c.reqOut, c.reqIn = nOut, nIn
	c.plan = ConnectionPlan{
		RequestedOutputs: nOut,
		RequestedInputs:  nIn,
		AcceptedOutputs:  nOut,
		AcceptedInputs:   nIn,
	}
	c.life.Store(life)
	c.setState(StateOpen)

	c.log.Info().
		Str("name", c.name).
		Int("outputs", nOut).
		Int("inputs", nIn).
		Uint32("sample_rate", h.SampleRate()).
		Uint32("buffer_size", h.BufferSize()).
		Msg("client opened")
	return nil
}

// Start installs cb, negotiates hardware connections and activates the
// client. Ports beyond the number of physical ports in their direction are
// unregistered and reported as a Degradation, not as an error.
func (c *Client) Start(cb Callback) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case StateOpen, StateStopped:
	case StateStarted:
		return newError("start", "client already started", ErrAlreadyStarted)
	default:
		return newError("start", "client not open", ErrNotOpen)
	}
	if cb == nil {
		return newError("start", "callback is nil", ErrNilCallback)
	}

	neg := &negotiator{h: c.handle, ports: c.ports, log: c.log}
	plan, degraded, err := neg.plan(c.reqOut, c.reqIn)
	if err != nil {
		return err
	}

	// Until the client is active and connected nothing is unregistered, so a
	// failed start leaves the port set as it was.
	c.disp.bind(c.ports, plan.AcceptedOutputs, plan.AcceptedInputs)
	c.disp.setCallback(cb)
	undo := func() {
		c.disp.setCallback(nil)
		c.disp.bind(c.ports, c.ports.Len(engine.Output), c.ports.Len(engine.Input))
	}

	if err := c.handle.SetProcessHook(c.disp.process); err != nil {
		undo()
		return newError("start", "could not install process hook", err)
	}
	if err := c.handle.Activate(); err != nil {
		undo()
		return newError("start", "could not activate client", err)
	}
	if err := neg.apply(plan); err != nil {
		_ = c.handle.Deactivate()
		undo()
		c.log.Error().Err(err).Msg("connecting to physical ports failed")
		return err
	}
	neg.trim(plan, degraded)

	c.plan = plan
	c.setState(StateStarted)
	c.log.Info().
		Int("outputs", plan.AcceptedOutputs).
		Int("inputs", plan.AcceptedInputs).
		Int("connections", len(plan.Connections)).
		Msg("client started")

	if c.opts.onDegrade != nil {
		for _, d := range degraded {
			c.opts.onDegrade(d)
		}
	}
	return nil
}

// Stop deactivates a started client. It is a no-op in any other state.
func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != StateStarted {
		return nil
	}
	if err := c.handle.Deactivate(); err != nil {
		return newError("stop", "could not deactivate client", err)
	}
	c.disp.setCallback(nil)
	c.setState(StateStopped)
	c.log.Info().Msg("client stopped")
	return nil
}

// Close deactivates the client, releases its ports and disconnects from the
// server. It is idempotent and safe on a client that never opened.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.State()
	if !st.opened() {
		return nil
	}

	var errs []error
	if st == StateStarted {
		if err := c.handle.Deactivate(); err != nil {
			errs = append(errs, err)
		}
	}
	c.disp.setCallback(nil)
	if err := c.ports.release(); err != nil {
		errs = append(errs, err)
	}
	if err := c.handle.Close(); err != nil {
		errs = append(errs, err)
	}

	c.handle = nil
	c.ports = nil
	c.setState(StateClosed)
	c.log.Info().Str("name", c.name).Msg("client closed")

	if len(errs) > 0 {
		return newError("close", "client did not close cleanly", errors.Join(errs...))
	}
	return nil
}

// IsOpen reports whether the client holds an engine connection.
func (c *Client) IsOpen() bool {
	return c.State().opened()
}

// Name returns the client name assigned by the server.
func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// SampleRate returns the engine sample rate in Hz.
func (c *Client) SampleRate() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.State().opened() {
		return 0, newError("sample rate", "client not open", ErrNotOpen)
	}
	return c.handle.SampleRate(), nil
}

// BufferSize returns the engine period in frames.
func (c *Client) BufferSize() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.State().opened() {
		return 0, newError("buffer size", "client not open", ErrNotOpen)
	}
	return c.handle.BufferSize(), nil
}

// SetBufferSize asks the engine for a new period and returns the period in
// effect afterwards, which may differ from frames.
func (c *Client) SetBufferSize(frames uint32) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.State().opened() {
		return 0, newError("buffer size", "client not open", ErrNotOpen)
	}
	if err := c.handle.SetBufferSize(frames); err != nil {
		return c.handle.BufferSize(), newError("buffer size",
			fmt.Sprintf("engine rejected buffer size %d", frames), err)
	}

	got := c.handle.BufferSize()
	if c.State() != StateStarted {
		c.bridge.reserve(int(got))
	}
	c.log.Debug().Uint32("requested", frames).Uint32("buffer_size", got).Msg("buffer size changed")
	return got, nil
}

// NumOutputPorts returns the number of registered output ports, 0 when not
// open.
func (c *Client) NumOutputPorts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ports.Len(engine.Output)
}

// NumInputPorts returns the number of registered input ports, 0 when not
// open.
func (c *Client) NumInputPorts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ports.Len(engine.Input)
}

// RequestedOutputs returns the output count passed to the last Open.
func (c *Client) RequestedOutputs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reqOut
}

// RequestedInputs returns the input count passed to the last Open.
func (c *Client) RequestedInputs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reqIn
}

// Ports returns the registered ports, nil when not open.
func (c *Client) Ports() *PortSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ports
}

// Plan returns the connection plan of the last Start. Before the first Start
// it lists no connections and reports the requested counts as accepted.
func (c *Client) Plan() ConnectionPlan {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plan
}

// Done is closed when the engine shuts the client down.
func (c *Client) Done() <-chan struct{} {
	return c.life.Load().done
}

// ShutdownReason returns the reason given by the engine, empty while the
// client is still connected.
func (c *Client) ShutdownReason() string {
	if r := c.life.Load().reason.Load(); r != nil {
		return *r
	}
	return ""
}

// LastError returns the most recent fault on the process path, nil if none.
func (c *Client) LastError() error {
	c.mu.Lock()
	d := c.disp
	c.mu.Unlock()

	if d == nil {
		return nil
	}
	return d.lastError()
}

// Stats returns the process-path counters of the current connection.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	d := c.disp
	c.mu.Unlock()

	if d == nil {
		return Stats{}
	}
	return d.stats()
}
