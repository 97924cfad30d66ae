// SPDX-License-Identifier: EPL-2.0

package sim

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ik5/audjack/engine"
)

// ErrNotActive is returned by Cycle when the client is not activated.
var ErrNotActive = errors.New("client not active")

// Port is a simulated client port backed by engine-owned memory.
type Port struct {
	name string
	dir  engine.Direction
	buf  []float32
}

func (p *Port) Name() string { return p.name }

// Direction reports the port flow.
func (p *Port) Direction() engine.Direction { return p.dir }

// Buffer implements engine.Port. The memory persists between cycles the way a
// real server reuses its port buffers.
func (p *Port) Buffer(frames uint32) []float32 {
	n := int(frames)
	if cap(p.buf) < n {
		grown := make([]float32, n)
		copy(grown, p.buf)
		p.buf = grown
	}
	return p.buf[:n]
}

// Handle is a simulated client connection. It implements engine.Handle.
type Handle struct {
	eng  *Engine
	name string

	// cycleMu is held for the duration of a cycle and by Deactivate, so
	// deactivation waits for an in-flight cycle.
	cycleMu sync.Mutex

	mu         sync.Mutex
	ports      map[string]*Port
	hook       engine.ProcessHook
	shutdown   engine.ShutdownHook
	active     bool
	closed     bool
	closeCount int
	frame      uint64
}

func (h *Handle) Name() string { return h.name }

func (h *Handle) RegisterPort(name string, dir engine.Direction) (engine.Port, error) {
	size := h.eng.BufferSize()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, engine.ErrClosed
	}
	if f := h.eng.cfg.Faults.RegisterPort; f != "" && f == name {
		return nil, fmt.Errorf("%s: %w", name, engine.ErrPortRegistration)
	}

	full := h.name + ":" + name
	if _, dup := h.ports[full]; dup {
		return nil, fmt.Errorf("%s already registered: %w", full, engine.ErrPortRegistration)
	}

	p := &Port{
		name: full,
		dir:  dir,
		buf:  make([]float32, size),
	}
	h.ports[full] = p
	return p, nil
}

func (h *Handle) UnregisterPort(p engine.Port) error {
	if p == nil {
		return engine.ErrNoSuchPort
	}

	h.eng.mu.Lock()
	defer h.eng.mu.Unlock()
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.ports[p.Name()]; !ok {
		return fmt.Errorf("%s: %w", p.Name(), engine.ErrNoSuchPort)
	}
	delete(h.ports, p.Name())
	h.eng.dropConnections(p.Name())
	return nil
}

func (h *Handle) PhysicalPorts(dir engine.Direction) ([]string, error) {
	if h.isClosed() {
		return nil, engine.ErrClosed
	}
	if dir == engine.Input {
		return slices.Clone(h.eng.cfg.Sinks), nil
	}
	return slices.Clone(h.eng.cfg.Sources), nil
}

func (h *Handle) Connect(src, dst string) error {
	e := h.eng
	e.mu.Lock()
	defer e.mu.Unlock()

	if h.isClosed() {
		return engine.ErrClosed
	}
	if f := e.cfg.Faults.ConnectPort; f != "" && (f == src || f == dst) {
		return fmt.Errorf("%s -> %s: %w", src, dst, engine.ErrConnect)
	}

	srcDir, ok := e.portDirection(src)
	if !ok {
		return fmt.Errorf("%s: %w", src, engine.ErrNoSuchPort)
	}
	dstDir, ok := e.portDirection(dst)
	if !ok {
		return fmt.Errorf("%s: %w", dst, engine.ErrNoSuchPort)
	}
	if srcDir != engine.Output || dstDir != engine.Input {
		return fmt.Errorf("%s -> %s: flow mismatch: %w", src, dst, engine.ErrConnect)
	}

	e.connections[connection{src: src, dst: dst}] = struct{}{}
	return nil
}

func (h *Handle) SetProcessHook(hook engine.ProcessHook) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return engine.ErrClosed
	}
	if h.active {
		return errors.New("cannot replace process hook while active")
	}
	h.hook = hook
	return nil
}

func (h *Handle) OnShutdown(hook engine.ShutdownHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shutdown = hook
}

func (h *Handle) Activate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return engine.ErrClosed
	}
	if h.eng.cfg.Faults.Activate {
		return engine.ErrActivate
	}
	h.active = true
	return nil
}

func (h *Handle) Deactivate() error {
	h.cycleMu.Lock()
	defer h.cycleMu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = false
	return nil
}

func (h *Handle) SampleRate() uint32 { return h.eng.cfg.SampleRate }

func (h *Handle) BufferSize() uint32 { return h.eng.BufferSize() }

func (h *Handle) SetBufferSize(frames uint32) error {
	if h.eng.cfg.Faults.SetBufferSize {
		return errors.New("buffer size change rejected")
	}
	if frames == 0 {
		return errors.New("buffer size must be positive")
	}

	h.eng.mu.Lock()
	defer h.eng.mu.Unlock()
	h.eng.bufferSize = frames
	return nil
}

func (h *Handle) Close() error {
	_ = h.Deactivate()

	e := h.eng
	e.mu.Lock()
	defer e.mu.Unlock()
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return engine.ErrClosed
	}
	h.closed = true
	h.closeCount++

	for name := range h.ports {
		e.dropConnections(name)
	}
	clear(h.ports)
	if e.clients[h.name] == h {
		delete(e.clients, h.name)
	}
	e.log.Debug().Str("client", h.name).Msg("client closed")
	return nil
}

// Cycle runs one process cycle synchronously and returns the hook status.
func (h *Handle) Cycle(frames uint32) (int, error) {
	h.cycleMu.Lock()
	defer h.cycleMu.Unlock()

	h.mu.Lock()
	closed, active, hook := h.closed, h.active, h.hook
	h.mu.Unlock()

	if closed {
		return 0, engine.ErrClosed
	}
	if !active || hook == nil {
		return 0, ErrNotActive
	}

	h.eng.routeCaptures(h, frames)
	status := hook(frames)
	h.eng.routePlayback(h, frames)

	h.mu.Lock()
	h.frame += uint64(frames)
	h.mu.Unlock()
	return status, nil
}

// Port returns the client port with the given short name, or nil.
func (h *Handle) Port(short string) *Port {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ports[h.name+":"+short]
}

// PortNames returns the full names of all registered ports, sorted.
func (h *Handle) PortNames() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.ports))
	for name := range h.ports {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Active reports whether the client is activated.
func (h *Handle) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// CloseCount reports how many times Close released the handle.
func (h *Handle) CloseCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeCount
}

func (h *Handle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// BufferSize returns the current engine period.
func (e *Engine) BufferSize() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bufferSize
}

func (e *Engine) routeCaptures(h *Handle, frames uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range e.connections {
		buf, physical := e.sources[c.src]
		if !physical {
			continue
		}
		dst, own := h.ports[c.dst]
		if !own {
			continue
		}
		if cap(buf) < int(frames) {
			buf = make([]float32, frames)
		}
		buf = buf[:frames]
		e.sources[c.src] = buf
		e.source(c.src, h.frame, buf)
		copy(dst.Buffer(frames), buf)
	}
}

func (e *Engine) routePlayback(h *Handle, frames uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h.mu.Lock()
	defer h.mu.Unlock()

	fed := make(map[string]bool)
	for c := range e.connections {
		src, own := h.ports[c.src]
		if !own || !e.isPhysical(c.dst, engine.Input) {
			continue
		}
		sink := e.sinks[c.dst]
		if cap(sink) < int(frames) {
			sink = make([]float32, frames)
		}
		sink = sink[:frames]
		if !fed[c.dst] {
			clear(sink)
			fed[c.dst] = true
		}
		for i, s := range src.Buffer(frames) {
			sink[i] += s
		}
		e.sinks[c.dst] = sink
	}
}
