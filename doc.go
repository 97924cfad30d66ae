// SPDX-License-Identifier: EPL-2.0

// Package audjack connects application DSP code to a callback-driven audio
// server such as JACK.
//
// The server calls into the process every period with raw port buffers.
// audjack hides that behind a plain Go callback that receives one []float32
// per output and input channel:
//
//	type Callback interface {
//		Process(frames int, out, in [][]float32)
//	}
//
// # Packages
//
//   - client: the Client lifecycle, port negotiation and the process bridge
//   - engine: the contract a server backend implements
//   - engine/sim: an in-process engine for tests and demos
//   - engine/jackengine: the JACK backend (build tag "jack")
//   - dsp: ready-made callbacks (Halver, Sine, Looper, Player, Recorder)
//   - audio, formats: decoding and resampling of audio files
//   - config, metrics: profiles and Prometheus collectors
//
// # Quick Start
//
// Run opens a client, starts the callback and blocks until the context is
// cancelled:
//
//	eng := jackengine.New()
//	err := audjack.Run(ctx, eng, audjack.Params{
//		Name:    "halver",
//		Outputs: 2,
//		Inputs:  1,
//	}, dsp.Halver{})
//
// Clients asking for more ports than the hardware has keep only as many as
// can be connected; see client.ConnectionPlan.
//
// For finer control use client.Client directly:
//
//	c, err := client.Dial(eng, 2, 1, "halver", "")
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	if err := c.Start(dsp.Halver{}); err != nil {
//		return err
//	}
//	<-ctx.Done()
package audjack
