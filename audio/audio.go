// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry maps format keys ("wav", "mp3", "ogg") to decoders.
type Registry struct {
	mu      sync.RWMutex
	codecs  map[string]Decoder
	aliases map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		codecs:  make(map[string]Decoder),
		aliases: make(map[string]string),
	}
}

// Register adds d under format. Extra names, usually file extensions, resolve
// to the same decoder in Lookup.
func (r *Registry) Register(format string, d Decoder, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	format = strings.ToLower(format)
	r.codecs[format] = d
	for _, a := range aliases {
		r.aliases[strings.ToLower(strings.TrimPrefix(a, "."))] = format
	}
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.codecs[strings.ToLower(format)]
	return d, ok
}

// Lookup picks a decoder by the extension of path.
func (r *Registry) Lookup(path string) (Decoder, string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return nil, "", fmt.Errorf("%s: no file extension: %w", path, ErrUnknownFormat)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	format := ext
	if alias, ok := r.aliases[ext]; ok {
		format = alias
	}
	d, ok := r.codecs[format]
	if !ok {
		return nil, "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	return d, format, nil
}

// Formats lists the registered format keys in sorted order.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Open decodes the file at path. Closing the returned Source closes the file.
func (r *Registry) Open(path string) (Source, error) {
	d, _, err := r.Lookup(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	src, err := d.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &fileSource{Source: src, f: f}, nil
}

type fileSource struct {
	Source
	f *os.File
}

func (s *fileSource) Close() error {
	return errors.Join(s.Source.Close(), s.f.Close())
}
