// SPDX-License-Identifier: EPL-2.0

// Command audjack runs one of the demo clients against a JACK server or the
// simulated engine.
//
//	audjack -mode halve -outputs 2 -inputs 1
//	audjack -mode sine -frequency 220
//	audjack -mode play -file song.ogg
//	audjack -mode record -inputs 2 -file take.wav
//	audjack -mode loop
//
// Settings come from the -config YAML profile, then AUDJACK_* variables,
// then flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ik5/audjack"
	"github.com/ik5/audjack/client"
	"github.com/ik5/audjack/config"
	"github.com/ik5/audjack/engine"
	"github.com/ik5/audjack/engine/jackengine"
	"github.com/ik5/audjack/engine/sim"
	"github.com/ik5/audjack/formats"
	"github.com/ik5/audjack/internal/logging"
	"github.com/ik5/audjack/metrics"
)

func main() {
	if err := run(os.Args[1:]); err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "audjack:", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	config  string
	engine  string
	profile config.Profile
	set     map[string]bool
}

func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags
	p := &f.profile

	fs := flag.NewFlagSet("audjack", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "YAML profile")
	fs.StringVar(&f.engine, "engine", "", "engine: jack or sim (default jack when built with it)")
	fs.StringVar(&p.Name, "name", "", "client name")
	fs.StringVar(&p.Server, "server", "", "server name")
	fs.IntVar(&p.Outputs, "outputs", 0, "output ports")
	fs.IntVar(&p.Inputs, "inputs", 0, "input ports")
	fs.IntVar(&p.MaxFrames, "max-frames", 0, "largest cycle handled without allocating")
	fs.StringVar(&p.LogLevel, "log-level", "", "log level")
	fs.StringVar(&p.MetricsAddr, "metrics", "", "serve Prometheus metrics on this address")
	fs.StringVar(&p.Demo.Mode, "mode", "", "demo: "+strings.Join(config.Modes, ", "))
	fs.StringVar(&p.Demo.File, "file", "", "file to play or record")
	fs.Float64Var(&p.Demo.Frequency, "frequency", 0, "sine frequency in Hz")
	var bufferSize uint
	fs.UintVar(&bufferSize, "buffer-size", 0, "engine period in frames")

	if err := fs.Parse(args); err != nil {
		return f, err
	}
	p.BufferSize = uint32(bufferSize)

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// apply copies the flags given on the command line over prof.
func (f cliFlags) apply(prof *config.Profile) {
	p := f.profile
	for name, set := range map[string]func(){
		"name":        func() { prof.Name = p.Name },
		"server":      func() { prof.Server = p.Server },
		"outputs":     func() { prof.Outputs = p.Outputs },
		"inputs":      func() { prof.Inputs = p.Inputs },
		"max-frames":  func() { prof.MaxFrames = p.MaxFrames },
		"buffer-size": func() { prof.BufferSize = p.BufferSize },
		"log-level":   func() { prof.LogLevel = p.LogLevel },
		"metrics":     func() { prof.MetricsAddr = p.MetricsAddr },
		"mode":        func() { prof.Demo.Mode = p.Demo.Mode },
		"file":        func() { prof.Demo.File = p.Demo.File },
		"frequency":   func() { prof.Demo.Frequency = p.Demo.Frequency },
	} {
		if f.set[name] {
			set()
		}
	}
}

// load builds the profile from the file, the environment and the flags, in
// that order, and validates only the merged result.
func (f cliFlags) load() (config.Profile, error) {
	prof, err := config.Read(f.config)
	if err != nil {
		return prof, err
	}
	f.apply(&prof)
	return prof, prof.Validate()
}

func run(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	prof, err := f.load()
	if err != nil {
		return err
	}

	log := logging.New(os.Stderr, prof.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eng, err := pickEngine(ctx, f.engine, log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	if prof.MetricsAddr != "" {
		srv := serveMetrics(prof.MetricsAddr, reg, log)
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer scancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	var stopDemo func() error
	build := func(c *client.Client) (client.Callback, error) {
		rate, err := c.SampleRate()
		if err != nil {
			return nil, err
		}
		d, err := newDemo(demoEnv{
			profile:  prof,
			rate:     rate,
			channels: c.NumInputPorts(),
			formats:  formats.NewRegistry(),
			registry: reg,
			control:  os.Stdin,
			log:      log,
		})
		if err != nil {
			return nil, err
		}
		stopDemo = d.start(ctx)
		if d.finished != nil {
			go func() {
				select {
				case <-d.finished:
					cancel()
				case <-ctx.Done():
				}
			}()
		}
		return d.cb, nil
	}

	params := audjack.Params{
		Name:       prof.Name,
		Server:     prof.Server,
		Outputs:    prof.Outputs,
		Inputs:     prof.Inputs,
		BufferSize: prof.BufferSize,
		OnStart: func(c *client.Client) error {
			log.Info().
				Str("mode", prof.Demo.Mode).
				Str("client", c.Name()).
				Int("outputs", c.NumOutputPorts()).
				Int("inputs", c.NumInputPorts()).
				Msg("running, interrupt to stop")
			return metrics.Register(reg, c)
		},
	}

	err = audjack.RunWith(ctx, eng, params, build,
		client.WithLogger(log),
		client.WithMaxFrames(prof.MaxFrames),
		client.WithDegradationHandler(func(d client.Degradation) {
			log.Warn().Stringer("degradation", d).Msg("running with fewer ports")
		}),
	)
	if stopDemo != nil {
		err = errors.Join(err, stopDemo())
	}
	return err
}

// pickEngine returns the named engine. The simulated one is driven on its
// own goroutine until ctx is done and feeds a quiet 220 Hz tone into its
// capture ports.
func pickEngine(ctx context.Context, name string, log zerolog.Logger) (engine.Engine, error) {
	if name == "" {
		name = "sim"
		if jackengine.Available() {
			name = "jack"
		}
	}

	switch name {
	case "jack":
		return jackengine.New(), nil
	case "sim":
		eng := sim.New(sim.Config{Logger: &log})
		eng.SetSource(eng.Tone(220, 0.25))
		go eng.Run(ctx)
		return eng, nil
	}
	return nil, fmt.Errorf("unknown engine %q", name)
}

func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")
	return srv
}
