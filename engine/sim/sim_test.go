// SPDX-License-Identifier: EPL-2.0

package sim

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audjack/engine"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	h, err := e.Connect("lister", "")
	require.NoError(t, err)

	assert.EqualValues(t, DefaultSampleRate, h.SampleRate())
	assert.EqualValues(t, DefaultBufferSize, h.BufferSize())

	sinks, err := h.PhysicalPorts(engine.Input)
	require.NoError(t, err)
	assert.Equal(t, []string{"system:playback_1", "system:playback_2"}, sinks)

	sources, err := h.PhysicalPorts(engine.Output)
	require.NoError(t, err)
	assert.Equal(t, []string{"system:capture_1", "system:capture_2"}, sources)
}

func TestNew_EmptyHardware(t *testing.T) {
	t.Parallel()

	e := New(Config{Sources: []string{}, Sinks: []string{}})
	h, err := e.Connect("lister", "")
	require.NoError(t, err)

	sinks, err := h.PhysicalPorts(engine.Input)
	require.NoError(t, err)
	assert.Empty(t, sinks)
}

func TestConnect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		server  string
		wantErr error
	}{
		{"default server", Config{}, "", nil},
		{"named server", Config{ServerName: "studio"}, "studio", nil},
		{"wrong server", Config{}, "studio", engine.ErrServerUnreachable},
		{"down", Config{Down: true}, "", engine.ErrServerUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, err := New(tt.cfg).Connect("c", tt.server)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, h)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "c", h.Name())
		})
	}
}

func TestConnect_RenamesDuplicates(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	names := make([]string, 3)
	for i := range names {
		h, err := e.Connect("dup", "")
		require.NoError(t, err)
		names[i] = h.Name()
	}
	assert.Equal(t, []string{"dup", "dup-01", "dup-02"}, names)
}

func TestConnect_ExactNames(t *testing.T) {
	t.Parallel()

	e := New(Config{ExactNames: true})
	_, err := e.Connect("only", "")
	require.NoError(t, err)

	_, err = e.Connect("only", "")
	assert.ErrorIs(t, err, engine.ErrNameConflict)
}

func TestRegisterPort(t *testing.T) {
	t.Parallel()

	e := New(Config{Faults: Faults{RegisterPort: "broken"}})
	h, err := e.Connect("ports", "")
	require.NoError(t, err)

	p, err := h.RegisterPort("output1", engine.Output)
	require.NoError(t, err)
	assert.Equal(t, "ports:output1", p.Name())
	assert.Len(t, p.Buffer(DefaultBufferSize), DefaultBufferSize)

	_, err = h.RegisterPort("output1", engine.Output)
	assert.ErrorIs(t, err, engine.ErrPortRegistration)

	_, err = h.RegisterPort("broken", engine.Input)
	assert.ErrorIs(t, err, engine.ErrPortRegistration)

	require.NoError(t, h.UnregisterPort(p))
	assert.ErrorIs(t, h.UnregisterPort(p), engine.ErrNoSuchPort)
}

func TestConnectPorts_FlowChecks(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	h, err := e.Connect("flow", "")
	require.NoError(t, err)
	_, err = h.RegisterPort("output1", engine.Output)
	require.NoError(t, err)
	_, err = h.RegisterPort("input1", engine.Input)
	require.NoError(t, err)

	require.NoError(t, h.Connect("flow:output1", "system:playback_1"))
	require.NoError(t, h.Connect("flow:output1", "system:playback_1"), "reconnect is not an error")
	require.NoError(t, h.Connect("system:capture_1", "flow:input1"))

	assert.ErrorIs(t, h.Connect("system:playback_1", "flow:output1"), engine.ErrConnect)
	assert.ErrorIs(t, h.Connect("flow:nowhere", "system:playback_1"), engine.ErrNoSuchPort)

	assert.Equal(t, [][2]string{
		{"flow:output1", "system:playback_1"},
		{"system:capture_1", "flow:input1"},
	}, e.Connections())
}

func TestConnectPorts_Fault(t *testing.T) {
	t.Parallel()

	e := New(Config{Faults: Faults{ConnectPort: "system:playback_2"}})
	h, err := e.Connect("faulty", "")
	require.NoError(t, err)
	_, err = h.RegisterPort("output1", engine.Output)
	require.NoError(t, err)

	assert.NoError(t, h.Connect("faulty:output1", "system:playback_1"))
	assert.ErrorIs(t, h.Connect("faulty:output1", "system:playback_2"), engine.ErrConnect)
}

func TestCycle_RequiresActivation(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	hh, err := e.Connect("idle", "")
	require.NoError(t, err)
	h := hh.(*Handle)

	_, err = h.Cycle(32)
	assert.ErrorIs(t, err, ErrNotActive)

	require.NoError(t, h.SetProcessHook(func(uint32) int { return engine.StatusFailure }))
	require.NoError(t, h.Activate())
	assert.Error(t, h.SetProcessHook(func(uint32) int { return engine.StatusOK }))

	status, err := h.Cycle(32)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusFailure, status)

	require.NoError(t, h.Close())
	_, err = h.Cycle(32)
	assert.ErrorIs(t, err, engine.ErrClosed)
	assert.ErrorIs(t, h.Close(), engine.ErrClosed)
	assert.Equal(t, 1, h.CloseCount())
}

func TestCycle_Routing(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	e.SetSource(func(port string, frame uint64, buf []float32) {
		for i := range buf {
			buf[i] = float32(frame) + float32(i)
		}
	})

	hh, err := e.Connect("loop", "")
	require.NoError(t, err)
	h := hh.(*Handle)

	out, err := h.RegisterPort("output1", engine.Output)
	require.NoError(t, err)
	in, err := h.RegisterPort("input1", engine.Input)
	require.NoError(t, err)

	require.NoError(t, h.SetProcessHook(func(frames uint32) int {
		copy(out.Buffer(frames), in.Buffer(frames))
		return engine.StatusOK
	}))
	require.NoError(t, h.Activate())
	require.NoError(t, h.Connect("system:capture_1", "loop:input1"))
	require.NoError(t, h.Connect("loop:output1", "system:playback_1"))
	require.NoError(t, h.Connect("loop:output1", "system:playback_2"))

	_, err = h.Cycle(4)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 2, 3}, e.SinkBuffer("system:playback_1"))
	assert.Equal(t, []float32{0, 1, 2, 3}, e.SinkBuffer("system:playback_2"))

	_, err = h.Cycle(4)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 5, 6, 7}, e.SinkBuffer("system:playback_1"))
}

func TestCycle_SumsClientsIntoSink(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	var handles []*Handle
	for _, v := range []float32{0.25, 0.5} {
		hh, err := e.Connect("mix", "")
		require.NoError(t, err)
		h := hh.(*Handle)
		p, err := h.RegisterPort("output1", engine.Output)
		require.NoError(t, err)
		require.NoError(t, h.SetProcessHook(func(frames uint32) int {
			buf := p.Buffer(frames)
			for i := range buf {
				buf[i] = v
			}
			return engine.StatusOK
		}))
		require.NoError(t, h.Activate())
		require.NoError(t, h.Connect(p.Name(), "system:playback_1"))
		handles = append(handles, h)
	}

	_, err := handles[0].Cycle(2)
	require.NoError(t, err)
	_, err = handles[1].Cycle(2)
	require.NoError(t, err)

	// each client clears the sinks it feeds, so the last cycle wins
	assert.Equal(t, []float32{0.5, 0.5}, e.SinkBuffer("system:playback_1"))
}

func TestDeactivate_WaitsForCycle(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	hh, err := e.Connect("slow", "")
	require.NoError(t, err)
	h := hh.(*Handle)

	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	require.NoError(t, h.SetProcessHook(func(uint32) int {
		close(entered)
		<-release
		finished.Store(true)
		return engine.StatusOK
	}))
	require.NoError(t, h.Activate())

	go func() { _, _ = h.Cycle(8) }()
	<-entered

	done := make(chan struct{})
	go func() {
		_ = h.Deactivate()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Deactivate returned during a cycle")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-done
	assert.True(t, finished.Load())
	assert.False(t, h.Active())
}

func TestShutdown_InvokesHooks(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	hh, err := e.Connect("victim", "")
	require.NoError(t, err)
	h := hh.(*Handle)
	require.NoError(t, h.SetProcessHook(func(uint32) int { return engine.StatusOK }))
	require.NoError(t, h.Activate())

	var reason string
	h.OnShutdown(func(r string) { reason = r })
	e.Shutdown("bye")

	assert.Equal(t, "bye", reason)
	assert.False(t, h.Active())
}

func TestSetBufferSize(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	h, err := e.Connect("period", "")
	require.NoError(t, err)

	require.NoError(t, h.SetBufferSize(1024))
	assert.EqualValues(t, 1024, h.BufferSize())
	assert.Error(t, h.SetBufferSize(0))

	faulty := New(Config{Faults: Faults{SetBufferSize: true}})
	fh, err := faulty.Connect("period", "")
	require.NoError(t, err)
	assert.Error(t, fh.SetBufferSize(512))
}

func TestRun_DrivesActiveClients(t *testing.T) {
	t.Parallel()

	e := New(Config{SampleRate: 48000, BufferSize: 48})
	hh, err := e.Connect("ticker", "")
	require.NoError(t, err)
	h := hh.(*Handle)

	var cycles atomic.Int64
	require.NoError(t, h.SetProcessHook(func(uint32) int {
		cycles.Add(1)
		return engine.StatusOK
	}))
	require.NoError(t, h.Activate())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return cycles.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestTone(t *testing.T) {
	t.Parallel()

	e := New(Config{SampleRate: 8000})
	tone := e.Tone(1000, 0.5)

	first := make([]float32, 8)
	tone("system:capture_1", 0, first)
	assert.InDelta(t, 0, first[0], 1e-6)
	assert.InDelta(t, 0.5, first[2], 1e-6, "a quarter period in")
	assert.InDelta(t, -0.5, first[6], 1e-6)

	// the phase follows the frame counter
	next := make([]float32, 1)
	tone("system:capture_2", 2, next)
	assert.InDelta(t, first[2], next[0], 1e-6)
}
