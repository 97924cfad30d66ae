// SPDX-License-Identifier: EPL-2.0

package sim

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ik5/audjack/engine"
)

// Defaults used when the matching Config field is zero.
const (
	DefaultServerName = "default"
	DefaultSampleRate = 48000
	DefaultBufferSize = 256
)

// SourceFunc produces capture data for a physical source port. frame is the
// engine frame counter at the start of the cycle.
type SourceFunc func(port string, frame uint64, buf []float32)

// Tone returns a SourceFunc feeding every capture port the same sine of freq
// Hz at the engine sample rate.
func (e *Engine) Tone(freq float64, amp float32) SourceFunc {
	step := 2 * math.Pi * freq / float64(e.cfg.SampleRate)
	return func(_ string, frame uint64, buf []float32) {
		for i := range buf {
			buf[i] = amp * float32(math.Sin(step*float64(frame+uint64(i))))
		}
	}
}

// Faults makes individual setup steps fail.
type Faults struct {
	// RegisterPort is the short name of a port whose registration fails.
	RegisterPort string
	// ConnectPort is a port name (client or physical) whose connections fail.
	ConnectPort   string
	Activate      bool
	SetBufferSize bool
}

// Config describes the simulated server.
type Config struct {
	ServerName string
	SampleRate uint32
	BufferSize uint32

	// Sources are physical capture ports, Sinks are physical playback ports.
	// A nil slice selects two ports, an empty slice selects none.
	Sources []string
	Sinks   []string

	// Down makes every Connect fail as if no server was running.
	Down bool
	// ExactNames rejects duplicate client names instead of renaming.
	ExactNames bool

	Faults Faults
	Logger *zerolog.Logger
}

// CapturePorts returns n physical source names in JACK style.
func CapturePorts(n int) []string {
	return systemPorts("capture", n)
}

// PlaybackPorts returns n physical sink names in JACK style.
func PlaybackPorts(n int) []string {
	return systemPorts("playback", n)
}

func systemPorts(kind string, n int) []string {
	names := make([]string, n)
	for i := range n {
		names[i] = fmt.Sprintf("system:%s_%d", kind, i+1)
	}
	return names
}

type connection struct {
	src, dst string
}

// Engine is an in-process implementation of engine.Engine.
type Engine struct {
	cfg Config
	log zerolog.Logger

	mu          sync.Mutex
	bufferSize  uint32
	clients     map[string]*Handle
	connections map[connection]struct{}
	sinks       map[string][]float32
	sources     map[string][]float32
	source      SourceFunc
}

// New creates a simulated engine.
func New(cfg Config) *Engine {
	if cfg.ServerName == "" {
		cfg.ServerName = DefaultServerName
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.Sources == nil {
		cfg.Sources = CapturePorts(2)
	}
	if cfg.Sinks == nil {
		cfg.Sinks = PlaybackPorts(2)
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("component", "sim").Logger()
	}

	e := &Engine{
		cfg:         cfg,
		log:         log,
		bufferSize:  cfg.BufferSize,
		clients:     make(map[string]*Handle),
		connections: make(map[connection]struct{}),
		sinks:       make(map[string][]float32, len(cfg.Sinks)),
		sources:     make(map[string][]float32, len(cfg.Sources)),
	}
	for _, name := range cfg.Sinks {
		e.sinks[name] = make([]float32, cfg.BufferSize)
	}
	for _, name := range cfg.Sources {
		e.sources[name] = make([]float32, cfg.BufferSize)
	}
	return e
}

// SetSource installs the generator for physical capture ports.
func (e *Engine) SetSource(fn SourceFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = fn
}

// Connect implements engine.Engine.
func (e *Engine) Connect(clientName, serverName string) (engine.Handle, error) {
	if e.cfg.Down {
		return nil, fmt.Errorf("connect to %q: %w", e.cfg.ServerName, engine.ErrServerUnreachable)
	}
	if serverName != "" && serverName != e.cfg.ServerName {
		return nil, fmt.Errorf("connect to %q: %w", serverName, engine.ErrServerUnreachable)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	name := clientName
	if _, taken := e.clients[name]; taken {
		if e.cfg.ExactNames {
			return nil, fmt.Errorf("client %q: %w", clientName, engine.ErrNameConflict)
		}
		for i := 1; ; i++ {
			name = fmt.Sprintf("%s-%02d", clientName, i)
			if _, taken := e.clients[name]; !taken {
				break
			}
		}
	}

	h := &Handle{
		eng:   e,
		name:  name,
		ports: make(map[string]*Port),
	}
	e.clients[name] = h
	e.log.Debug().Str("client", name).Msg("client connected")
	return h, nil
}

// Client returns the handle registered under name, or nil.
func (e *Engine) Client(name string) *Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clients[name]
}

// Connections returns every connection as src/dst pairs in sorted order.
func (e *Engine) Connections() [][2]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([][2]string, 0, len(e.connections))
	for c := range e.connections {
		out = append(out, [2]string{c.src, c.dst})
	}
	slices.SortFunc(out, func(a, b [2]string) int {
		if a[0] != b[0] {
			if a[0] < b[0] {
				return -1
			}
			return 1
		}
		if a[1] < b[1] {
			return -1
		}
		if a[1] > b[1] {
			return 1
		}
		return 0
	})
	return out
}

// SinkBuffer returns a copy of what reached a physical sink in the last cycle.
func (e *Engine) SinkBuffer(name string) []float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.sinks[name])
}

// Shutdown drops every client, invoking their shutdown hooks.
func (e *Engine) Shutdown(reason string) {
	e.mu.Lock()
	handles := make([]*Handle, 0, len(e.clients))
	for _, h := range e.clients {
		handles = append(handles, h)
	}
	e.mu.Unlock()

	for _, h := range handles {
		_ = h.Deactivate()
		h.mu.Lock()
		hook := h.shutdown
		h.mu.Unlock()
		if hook != nil {
			hook(reason)
		}
	}
}

// Run drives every active client at the configured period until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	period := time.Duration(float64(e.bufferSize) / float64(e.cfg.SampleRate) * float64(time.Second))
	e.mu.Unlock()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			frames := e.bufferSize
			handles := make([]*Handle, 0, len(e.clients))
			for _, h := range e.clients {
				handles = append(handles, h)
			}
			e.mu.Unlock()

			for _, h := range handles {
				_, _ = h.Cycle(frames)
			}
		}
	}
}

func (e *Engine) isPhysical(name string, dir engine.Direction) bool {
	if dir == engine.Input {
		_, ok := e.sinks[name]
		return ok
	}
	_, ok := e.sources[name]
	return ok
}

// portDirection resolves a port name to its flow; caller holds e.mu.
func (e *Engine) portDirection(name string) (engine.Direction, bool) {
	if _, ok := e.sinks[name]; ok {
		return engine.Input, true
	}
	if _, ok := e.sources[name]; ok {
		return engine.Output, true
	}
	for _, h := range e.clients {
		h.mu.Lock()
		p, ok := h.ports[name]
		h.mu.Unlock()
		if ok {
			return p.dir, true
		}
	}
	return 0, false
}

func (e *Engine) dropConnections(port string) {
	for c := range e.connections {
		if c.src == port || c.dst == port {
			delete(e.connections, c)
		}
	}
}
