// SPDX-License-Identifier: EPL-2.0

//go:build jack

package jackengine

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/xthexder/go-jack"

	"github.com/ik5/audjack/engine"
)

// EnvServer is read by libjack to pick the server when none is given.
const EnvServer = "JACK_DEFAULT_SERVER"

// jack_connect reports an existing connection as EEXIST.
const errExist = 17

// serverMu serializes client opens that change EnvServer.
var serverMu sync.Mutex

// Engine connects to a running JACK server.
type Engine struct{}

// New returns the JACK engine.
func New() *Engine {
	return &Engine{}
}

// Available reports whether the package was built with JACK support.
func Available() bool { return true }

func (e *Engine) Connect(clientName, serverName string) (engine.Handle, error) {
	serverMu.Lock()
	defer serverMu.Unlock()

	if serverName != "" {
		prev, had := os.LookupEnv(EnvServer)
		_ = os.Setenv(EnvServer, serverName)
		defer func() {
			if had {
				_ = os.Setenv(EnvServer, prev)
			} else {
				_ = os.Unsetenv(EnvServer)
			}
		}()
	}

	c, status := jack.ClientOpen(clientName, jack.NoStartServer)
	if c == nil {
		if status&jack.NameNotUnique != 0 {
			return nil, fmt.Errorf("client %q (status 0x%x): %w", clientName, status, engine.ErrNameConflict)
		}
		return nil, fmt.Errorf("server %q (status 0x%x): %w", serverName, status, engine.ErrServerUnreachable)
	}
	return &handle{c: c}, nil
}

type port struct {
	p *jack.Port
}

func (p *port) Name() string { return p.p.GetName() }

// Buffer reinterprets the engine memory in place. jack.AudioSample is a
// float32.
func (p *port) Buffer(frames uint32) []float32 {
	samples := p.p.GetBuffer(frames)
	if len(samples) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&samples[0])), len(samples))
}

type handle struct {
	c *jack.Client
}

func (h *handle) Name() string { return h.c.GetName() }

func (h *handle) RegisterPort(name string, dir engine.Direction) (engine.Port, error) {
	flags := uint64(jack.PortIsOutput)
	if dir == engine.Input {
		flags = jack.PortIsInput
	}
	p := h.c.PortRegister(name, jack.DEFAULT_AUDIO_TYPE, flags, 0)
	if p == nil {
		return nil, fmt.Errorf("%s: %w", name, engine.ErrPortRegistration)
	}
	return &port{p: p}, nil
}

func (h *handle) UnregisterPort(p engine.Port) error {
	jp, ok := p.(*port)
	if !ok || jp == nil {
		return engine.ErrNoSuchPort
	}
	if code := h.c.PortUnregister(jp.p); code != 0 {
		return fmt.Errorf("unregister %s: status %d", jp.Name(), code)
	}
	return nil
}

// PhysicalPorts lists hardware ports whose own flow is dir: Input lists the
// playback sinks, Output the capture sources.
func (h *handle) PhysicalPorts(dir engine.Direction) ([]string, error) {
	flags := uint64(jack.PortIsPhysical)
	if dir == engine.Input {
		flags |= jack.PortIsInput
	} else {
		flags |= jack.PortIsOutput
	}
	return h.c.GetPorts("", jack.DEFAULT_AUDIO_TYPE, flags), nil
}

func (h *handle) Connect(src, dst string) error {
	switch code := h.c.Connect(src, dst); code {
	case 0, errExist:
		return nil
	default:
		return fmt.Errorf("%s -> %s: status %d: %w", src, dst, code, engine.ErrConnect)
	}
}

func (h *handle) SetProcessHook(hook engine.ProcessHook) error {
	if code := h.c.SetProcessCallback(func(frames uint32) int { return hook(frames) }); code != 0 {
		return fmt.Errorf("set process callback: status %d", code)
	}
	return nil
}

func (h *handle) OnShutdown(hook engine.ShutdownHook) {
	h.c.OnShutdown(func() { hook("jack server shut down") })
}

func (h *handle) Activate() error {
	if code := h.c.Activate(); code != 0 {
		return fmt.Errorf("status %d: %w", code, engine.ErrActivate)
	}
	return nil
}

func (h *handle) Deactivate() error {
	if code := h.c.Deactivate(); code != 0 {
		return fmt.Errorf("deactivate: status %d", code)
	}
	return nil
}

func (h *handle) SampleRate() uint32 { return h.c.GetSampleRate() }

func (h *handle) BufferSize() uint32 { return h.c.GetBufferSize() }

func (h *handle) SetBufferSize(frames uint32) error {
	if code := h.c.SetBufferSize(frames); code != 0 {
		return fmt.Errorf("set buffer size %d: status %d", frames, code)
	}
	return nil
}

func (h *handle) Close() error {
	if code := h.c.Close(); code != 0 {
		return fmt.Errorf("close: status %d", code)
	}
	return nil
}
