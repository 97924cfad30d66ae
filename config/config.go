// SPDX-License-Identifier: EPL-2.0

// Package config loads client profiles from YAML and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Demo modes understood by cmd/audjack.
const (
	ModeHalve  = "halve"
	ModeSine   = "sine"
	ModeLoop   = "loop"
	ModePlay   = "play"
	ModeRecord = "record"
)

// Modes lists the demo modes in display order.
var Modes = []string{ModeHalve, ModeSine, ModeLoop, ModePlay, ModeRecord}

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "AUDJACK_"

// Profile describes one client and the demo it runs.
type Profile struct {
	Name        string `yaml:"name"`
	Server      string `yaml:"server"`
	Outputs     int    `yaml:"outputs"`
	Inputs      int    `yaml:"inputs"`
	MaxFrames   int    `yaml:"max_frames"`
	BufferSize  uint32 `yaml:"buffer_size"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
	Demo        Demo   `yaml:"demo"`
}

// Demo selects what the CLI does once the client is started.
type Demo struct {
	Mode      string  `yaml:"mode"`
	File      string  `yaml:"file"`
	Frequency float64 `yaml:"frequency"`
	Amplitude float32 `yaml:"amplitude"`
}

// Default returns the profile of the original demo client: one halving
// output fed by one input.
func Default() Profile {
	return Profile{
		Name:      "audjack",
		Outputs:   1,
		Inputs:    1,
		MaxFrames: 4096,
		LogLevel:  "info",
		Demo: Demo{
			Mode:      ModeHalve,
			Frequency: 440,
			Amplitude: 0.5,
		},
	}
}

// Load is Read followed by Validate.
func Load(path string) (Profile, error) {
	p, err := Read(path)
	if err != nil {
		return p, err
	}
	return p, p.Validate()
}

// Read reads the profile at path over the defaults and applies AUDJACK_*
// overrides. The result is not validated, so callers can layer more
// overrides first. An empty path skips the file.
func Read(path string) (Profile, error) {
	p := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return p, fmt.Errorf("config %s: %w", path, err)
		case err != nil:
			return p, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(data, &p); err != nil {
			return p, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := p.ApplyEnv(os.LookupEnv); err != nil {
		return p, err
	}
	return p, nil
}

// Parse decodes YAML into p. Keys missing from data keep their value and
// unknown keys are rejected.
func Parse(data []byte, p *Profile) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from AUDJACK_NAME, AUDJACK_SERVER,
// AUDJACK_OUTPUTS, AUDJACK_INPUTS, AUDJACK_MAX_FRAMES, AUDJACK_BUFFER_SIZE,
// AUDJACK_LOG_LEVEL, AUDJACK_METRICS_ADDR, AUDJACK_MODE, AUDJACK_FILE and
// AUDJACK_FREQUENCY.
func (p *Profile) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	strs := map[string]*string{
		"NAME":         &p.Name,
		"SERVER":       &p.Server,
		"LOG_LEVEL":    &p.LogLevel,
		"METRICS_ADDR": &p.MetricsAddr,
		"MODE":         &p.Demo.Mode,
		"FILE":         &p.Demo.File,
	}
	for key, dst := range strs {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"OUTPUTS":    &p.Outputs,
		"INPUTS":     &p.Inputs,
		"MAX_FRAMES": &p.MaxFrames,
	}
	for key, dst := range ints {
		v, ok := get(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", ErrInvalidEnv, EnvPrefix, key, v)
		}
		*dst = n
	}

	if v, ok := get("BUFFER_SIZE"); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: %sBUFFER_SIZE=%q", ErrInvalidEnv, EnvPrefix, v)
		}
		p.BufferSize = uint32(n)
	}
	if v, ok := get("FREQUENCY"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sFREQUENCY=%q", ErrInvalidEnv, EnvPrefix, v)
		}
		p.Demo.Frequency = f
	}
	return nil
}

// Validate checks the profile for values no client can be opened with.
func (p Profile) Validate() error {
	if p.Outputs < 0 || p.Inputs < 0 {
		return fmt.Errorf("%w: outputs=%d inputs=%d", ErrInvalidPortCount, p.Outputs, p.Inputs)
	}
	if p.MaxFrames <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxFrames, p.MaxFrames)
	}

	switch p.Demo.Mode {
	case ModePlay, ModeRecord:
		if p.Demo.File == "" {
			return fmt.Errorf("%w: %s", ErrMissingFile, p.Demo.Mode)
		}
	case ModeSine:
		if p.Demo.Frequency <= 0 {
			return fmt.Errorf("%w: %v", ErrInvalidFrequency, p.Demo.Frequency)
		}
	default:
		if !slices.Contains(Modes, p.Demo.Mode) {
			return fmt.Errorf("%w: %q", ErrInvalidMode, p.Demo.Mode)
		}
	}
	return nil
}
