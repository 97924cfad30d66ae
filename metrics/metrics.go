// SPDX-License-Identifier: EPL-2.0

// Package metrics exposes client and stream counters to Prometheus.
//
// Every collector is a CounterFunc or GaugeFunc reading atomics at scrape
// time, so nothing on the process path touches Prometheus.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ik5/audjack/client"
	"github.com/ik5/audjack/dsp"
)

// Namespace prefixes every metric name.
const Namespace = "audjack"

// Register adds the process-path counters and port gauges of c to reg. The
// series carry a "client" label holding c.Name(), so register after Open.
func Register(reg prometheus.Registerer, c *client.Client) error {
	labels := prometheus.Labels{"client": c.Name()}
	stat := func(pick func(client.Stats) uint64) func() float64 {
		return func() float64 { return float64(pick(c.Stats())) }
	}

	return register(reg,
		counter(labels, "cycles_total", "Process cycles run.",
			stat(func(s client.Stats) uint64 { return s.Cycles })),
		counter(labels, "frames_total", "Frames processed over all cycles.",
			stat(func(s client.Stats) uint64 { return s.Frames })),
		counter(labels, "faults_total", "Cycles in which the callback panicked.",
			stat(func(s client.Stats) uint64 { return s.Faults })),
		counter(labels, "reallocations_total", "Channel buffers grown on the process path.",
			stat(func(s client.Stats) uint64 { return s.Reallocations })),
		gauge(labels, "last_cycle_frames", "Length of the most recent cycle.",
			func() float64 { return float64(c.Stats().LastFrames) }),
		gauge(labels, "output_ports", "Output ports kept after negotiation.",
			func() float64 { return float64(c.NumOutputPorts()) }),
		gauge(labels, "input_ports", "Input ports kept after negotiation.",
			func() float64 { return float64(c.NumInputPorts()) }),
		gauge(labels, "degraded", "1 when fewer ports were kept than requested.",
			func() float64 {
				if c.Plan().Degraded() {
					return 1
				}
				return 0
			}),
	)
}

// RegisterPlayer adds the playback counters of p under the given name.
func RegisterPlayer(reg prometheus.Registerer, name string, p *dsp.Player) error {
	labels := prometheus.Labels{"stream": name}
	return register(reg,
		counter(labels, "player_underruns_total", "Cycles that found the playback ring short.",
			func() float64 { return float64(p.Underruns()) }),
		counter(labels, "player_frames_total", "Frames handed to the outputs.",
			func() float64 { return float64(p.Played()) }),
		gauge(labels, "player_buffered_frames", "Frames waiting in the playback ring.",
			func() float64 { return float64(p.Buffered()) }),
	)
}

// RegisterRecorder adds the capture counters of r under the given name.
func RegisterRecorder(reg prometheus.Registerer, name string, r *dsp.Recorder) error {
	labels := prometheus.Labels{"stream": name}
	return register(reg,
		counter(labels, "recorder_overruns_total", "Cycles dropped because the capture ring was full.",
			func() float64 { return float64(r.Overruns()) }),
		counter(labels, "recorder_captured_frames_total", "Frames queued by the process path.",
			func() float64 { return float64(r.Captured()) }),
		counter(labels, "recorder_written_frames_total", "Frames handed to the writer.",
			func() float64 { return float64(r.Written()) }),
	)
}

func counter(labels prometheus.Labels, name, help string, fn func() float64) prometheus.Collector {
	return prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   Namespace,
		Name:        name,
		Help:        help,
		ConstLabels: labels,
	}, fn)
}

func gauge(labels prometheus.Labels, name, help string, fn func() float64) prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   Namespace,
		Name:        name,
		Help:        help,
		ConstLabels: labels,
	}, fn)
}

// register adds all collectors, unregistering the ones already added when
// one fails.
func register(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for i, c := range cs {
		if err := reg.Register(c); err != nil {
			var errs []error
			errs = append(errs, fmt.Errorf("register collector %d: %w", i, err))
			for _, done := range cs[:i] {
				if !reg.Unregister(done) {
					errs = append(errs, errors.New("unregister collector"))
				}
			}
			return errors.Join(errs...)
		}
	}
	return nil
}
