// SPDX-License-Identifier: EPL-2.0

// Package engine defines the contract between audjack and a real-time audio
// server.
//
// A server (JACK, or the in-process simulator in engine/sim) owns the hardware,
// schedules processing and hands out raw per-port sample memory once per cycle.
// The client package only ever talks to a server through the interfaces in this
// package:
//
//	eng := sim.New(sim.Config{})
//	h, err := eng.Connect("demo", "")
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
// # Directions
//
// Direction describes the flow of a port from the engine's point of view.
// A client Output port is connected to a physical Input port (a playback sink)
// and a client Input port is fed from a physical Output port (a capture source).
//
// # Buffers
//
// Port.Buffer returns engine-owned memory that is only valid for the cycle in
// which it was obtained. Callers copy in and out of it and never keep the slice.
//
// # Backends
//
//   - engine/sim: deterministic in-process engine used by tests and the demo
//   - engine/jackengine: JACK via github.com/xthexder/go-jack (build tag "jack")
package engine
