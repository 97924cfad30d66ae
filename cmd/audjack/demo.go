// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ik5/audjack/audio"
	"github.com/ik5/audjack/client"
	"github.com/ik5/audjack/config"
	"github.com/ik5/audjack/dsp"
	"github.com/ik5/audjack/formats/wav"
	"github.com/ik5/audjack/metrics"
)

// loopSeconds is the longest take the loop demo records.
const loopSeconds = 30

// demo is one runnable mode of the CLI.
type demo struct {
	cb client.Callback

	// worker runs beside the client until ctx is done. Optional.
	worker func(ctx context.Context) error
	// finished is closed when the demo ended on its own. Optional.
	finished <-chan struct{}
	// cleanup runs after the client and the worker stopped. Optional.
	cleanup func() error
}

type demoEnv struct {
	profile  config.Profile
	rate     uint32
	channels int
	formats  *audio.Registry
	registry prometheus.Registerer
	control  io.Reader
	log      zerolog.Logger
}

func newDemo(env demoEnv) (*demo, error) {
	p := env.profile
	stream := dsp.StreamConfig{MaxFrames: p.MaxFrames, Logger: &env.log}

	switch p.Demo.Mode {
	case config.ModeHalve:
		return &demo{cb: dsp.Halver{}}, nil

	case config.ModeSine:
		return &demo{cb: dsp.NewSine(env.rate, p.Demo.Frequency, p.Demo.Amplitude)}, nil

	case config.ModeLoop:
		l := dsp.NewLooper(int(env.rate) * loopSeconds)
		d := &demo{cb: l}
		if env.control != nil {
			d.worker = func(ctx context.Context) error {
				switchOnEnter(ctx, env.control, l, env.log)
				return nil
			}
		}
		return d, nil

	case config.ModePlay:
		src, err := env.formats.Open(p.Demo.File)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", p.Demo.File, err)
		}
		pl := dsp.NewPlayer(src, int(env.rate), stream)
		if env.registry != nil {
			if err := metrics.RegisterPlayer(env.registry, p.Demo.File, pl); err != nil {
				_ = src.Close()
				return nil, err
			}
		}
		return &demo{
			cb:       pl,
			finished: pl.Done(),
			worker: func(ctx context.Context) error {
				if err := pl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			},
		}, nil

	case config.ModeRecord:
		channels := max(env.channels, 1)
		w, err := wav.Create(p.Demo.File, int(env.rate), channels)
		if err != nil {
			return nil, err
		}
		r := dsp.NewRecorder(w, channels, int(env.rate), stream)
		if env.registry != nil {
			if err := metrics.RegisterRecorder(env.registry, p.Demo.File, r); err != nil {
				_ = w.Close()
				return nil, err
			}
		}
		return &demo{
			cb:     r,
			worker: r.Run,
			cleanup: func() error {
				env.log.Info().
					Str("file", p.Demo.File).
					Int64("frames", r.Written()).
					Uint64("overruns", r.Overruns()).
					Msg("recording saved")
				return w.Close()
			},
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", config.ErrInvalidMode, p.Demo.Mode)
}

// start runs the worker on its own goroutine. The returned function cancels
// it, waits for it and runs the cleanup.
func (d *demo) start(ctx context.Context) (stop func() error) {
	if d.worker == nil {
		return d.finish
	}

	ctx, cancel := context.WithCancel(ctx)
	errc := make(chan error, 1)
	go func() { errc <- d.worker(ctx) }()

	return func() error {
		cancel()
		return errors.Join(<-errc, d.finish())
	}
}

func (d *demo) finish() error {
	if d.cleanup == nil {
		return nil
	}
	return d.cleanup()
}

// switchOnEnter flips the looper between recording and playback on every
// line read from r.
func switchOnEnter(ctx context.Context, r io.Reader, l *dsp.Looper, log zerolog.Logger) {
	lines := make(chan struct{})
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info().Msg("recording, press enter to play the take back")
	for {
		select {
		case <-ctx.Done():
			return
		case <-lines:
			mode := l.Switch()
			log.Info().Stringer("mode", mode).Int("take_frames", l.Len()).Msg("looper switched")
		}
	}
}
