// SPDX-License-Identifier: EPL-2.0

package client

import (
	"fmt"
	"sync/atomic"

	"github.com/ik5/audjack/engine"
)

// Stats are process-path counters. They are safe to read at any time.
type Stats struct {
	// Cycles is the number of process cycles run.
	Cycles uint64
	// Frames is the number of frames processed over all cycles.
	Frames uint64
	// Faults counts cycles in which the callback or the bridge panicked.
	Faults uint64
	// Reallocations counts channel buffers grown on the process path.
	Reallocations uint64
	// LastFrames is the length of the most recent cycle.
	LastFrames uint32
}

type callbackRef struct {
	cb Callback
}

type fault struct {
	err error
}

// dispatcher is the process hook installed on the engine handle. It bridges
// engine buffers to the user callback and never lets a panic escape onto the
// engine thread.
type dispatcher struct {
	bridge *bufferBridge
	outs   []engine.Port
	ins    []engine.Port

	cb      atomic.Pointer[callbackRef]
	lastErr atomic.Pointer[fault]

	cycles     atomic.Uint64
	frames     atomic.Uint64
	faults     atomic.Uint64
	reallocs   atomic.Uint64
	lastFrames atomic.Uint32
}

func newDispatcher(b *bufferBridge) *dispatcher {
	return &dispatcher{bridge: b}
}

// bind snapshots the first nOut and nIn port handles and limits the bridge to
// the same channels. Must not run while the engine is active.
func (d *dispatcher) bind(ports *PortSet, nOut, nIn int) {
	outs := ports.handles(engine.Output)
	ins := ports.handles(engine.Input)
	d.outs = outs[:min(nOut, len(outs))]
	d.ins = ins[:min(nIn, len(ins))]
	d.bridge.limit(len(d.outs), len(d.ins))
}

func (d *dispatcher) setCallback(cb Callback) {
	if cb == nil {
		d.cb.Store(nil)
		return
	}
	d.cb.Store(&callbackRef{cb: cb})
}

// process runs one cycle: copy inputs in, zero outputs, run the callback,
// copy outputs out.
func (d *dispatcher) process(nframes uint32) (status int) {
	defer func() {
		if r := recover(); r != nil {
			d.recordFault(fmt.Errorf("%w: %v", ErrProcessFault, r))
			status = engine.StatusFailure
		}
	}()

	frames := int(nframes)
	if n := d.bridge.resize(frames); n > 0 {
		d.reallocs.Add(uint64(n))
	}
	d.bridge.fill(nframes, d.ins)
	d.bridge.silence()

	if ref := d.cb.Load(); ref != nil {
		if !d.invoke(ref.cb, frames) {
			d.bridge.silence()
		}
	}

	d.bridge.drain(nframes, d.outs)

	d.cycles.Add(1)
	d.frames.Add(uint64(nframes))
	d.lastFrames.Store(nframes)
	return engine.StatusOK
}

// invoke calls the callback and reports false if it panicked.
func (d *dispatcher) invoke(cb Callback, frames int) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.recordFault(fmt.Errorf("%w: %v", ErrCallbackPanic, r))
			ok = false
		}
	}()
	cb.Process(frames, d.bridge.out, d.bridge.in)
	return true
}

func (d *dispatcher) recordFault(err error) {
	d.faults.Add(1)
	d.lastErr.Store(&fault{err: err})
}

func (d *dispatcher) lastError() error {
	if f := d.lastErr.Load(); f != nil {
		return f.err
	}
	return nil
}

func (d *dispatcher) stats() Stats {
	return Stats{
		Cycles:        d.cycles.Load(),
		Frames:        d.frames.Load(),
		Faults:        d.faults.Load(),
		Reallocations: d.reallocs.Load(),
		LastFrames:    d.lastFrames.Load(),
	}
}
