// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audjack/internal/audiotest"
)

type stubDecoder struct {
	src Source
	err error
}

func (d stubDecoder) Decode(io.Reader) (Source, error) {
	return d.src, d.err
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	wav := stubDecoder{}
	ogg := stubDecoder{err: errors.New("ogg")}
	r.Register("wav", wav, ".wave")
	r.Register("ogg", ogg, "oga")

	tests := []struct {
		path       string
		wantFormat string
		wantErr    error
	}{
		{"take.wav", "wav", nil},
		{"dir/TAKE.WAV", "wav", nil},
		{"take.wave", "wav", nil},
		{"song.oga", "ogg", nil},
		{"song.flac", "", ErrUnknownFormat},
		{"README", "", ErrUnknownFormat},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			_, format, err := r.Lookup(tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}

func TestRegistry_GetAndFormats(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("MP3", stubDecoder{})
	r.Register("aiff", stubDecoder{}, "aif")

	_, ok := r.Get("mp3")
	assert.True(t, ok)
	_, ok = r.Get("flac")
	assert.False(t, ok)

	assert.Equal(t, []string{"aiff", "mp3"}, r.Formats())
}

func TestRegistry_Open(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "tone.test")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o600))

	mock := audiotest.NewSilentSource(8000, 1, 10)
	r := NewRegistry()
	r.Register("test", stubDecoder{src: mock})

	src, err := r.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, src.SampleRate())
	require.NoError(t, src.Close())
	assert.True(t, mock.Closed())

	_, err = r.Open(filepath.Join(dir, "missing.test"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := NewRegistry()
	bad.Register("test", stubDecoder{err: errors.New("corrupt")})
	_, err = bad.Open(path)
	assert.ErrorContains(t, err, "corrupt")
}
