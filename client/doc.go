// SPDX-License-Identifier: EPL-2.0

// Package client wraps an audio engine connection behind a small lifecycle:
// Open registers ports, Start installs a Callback and connects the ports to
// hardware, Stop deactivates and Close releases everything.
//
// # Lifecycle
//
//	unopened --Open--> open --Start--> started --Stop--> stopped
//	                                     ^                  |
//	                                     +------Start-------+
//
// Close is valid from every state and moves the client to closed, from which
// Open may be called again. Close on a closed or unopened client does
// nothing.
//
// # Ports
//
// Output ports are named output1..outputN and input ports input1..inputN.
// On Start, client output i is connected to physical playback port i and
// physical capture port i to client input i. When the hardware has fewer
// ports than requested the surplus ports are unregistered before activation.
// The reduction is logged as a warning, recorded in Plan and passed to the
// handler set with WithDegradationHandler. It is never an error.
//
// # Process cycle
//
// Each cycle the engine input buffers are copied into the callback's input
// channels, the output channels are zeroed, the callback runs and the output
// channels are copied to the engine. Channel storage is reserved at Open for
// the larger of the engine period and WithMaxFrames, so cycles within that
// size do not allocate. A callback panic is recovered: the cycle's outputs
// are silenced, the fault is counted in Stats and kept as LastError, and the
// engine keeps running.
//
// # Shutdown
//
// When the engine drops the client, Done is closed and ShutdownReason
// reports why. The process is never terminated by this package.
package client
