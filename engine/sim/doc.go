// SPDX-License-Identifier: EPL-2.0

// Package sim is an in-process audio engine. It implements the engine
// contract without a server, which makes it the test double for package
// client and the backend of the demo when no JACK server is available.
//
// Cycles are driven either synchronously with Handle.Cycle or on a ticker
// with Engine.Run. Physical capture data comes from a SourceFunc; whatever
// clients write to connected outputs is summed into the physical sinks and
// can be read back with SinkBuffer.
//
// Faults in Config make individual setup steps fail so error paths can be
// exercised.
package sim
