// SPDX-License-Identifier: EPL-2.0

package client

// Callback is implemented by application DSP code.
//
// Process runs once per engine cycle on the real-time thread. out and in hold
// one channel buffer per negotiated port, each exactly frames samples long.
// Output buffers are zeroed before every call; in holds the samples the engine
// delivered for this cycle. Implementations fill out in place and must not
// block, allocate unboundedly or retain the slices past the call.
type Callback interface {
	Process(frames int, out, in [][]float32)
}

// CallbackFunc adapts a plain function to Callback.
type CallbackFunc func(frames int, out, in [][]float32)

func (f CallbackFunc) Process(frames int, out, in [][]float32) {
	f(frames, out, in)
}
