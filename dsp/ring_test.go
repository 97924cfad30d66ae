// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRing_RoundsUp(t *testing.T) {
	t.Parallel()

	for in, want := range map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 1000: 1024, 1024: 1024} {
		assert.Equal(t, want, NewRing(in).Cap(), "capacity %d", in)
	}
}

func TestRing_WrapAround(t *testing.T) {
	t.Parallel()

	r := NewRing(4)
	assert.Equal(t, 3, r.Write([]float32{1, 2, 3}))

	out := make([]float32, 2)
	require.Equal(t, 2, r.Read(out))
	assert.Equal(t, []float32{1, 2}, out)

	assert.Equal(t, 3, r.Write([]float32{4, 5, 6, 7}), "only free space is written")
	assert.Equal(t, 4, r.Len())
	assert.Zero(t, r.Free())
	assert.Zero(t, r.Write([]float32{8}))

	all := make([]float32, 8)
	n := r.Read(all)
	assert.Equal(t, []float32{3, 4, 5, 6}, all[:n])
	assert.Zero(t, r.Read(all))
}

func TestRing_ConcurrentTransfer(t *testing.T) {
	t.Parallel()

	const total = 100_000
	r := NewRing(256)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		chunk := make([]float32, 37)
		next := 0
		for next < total {
			n := min(len(chunk), total-next)
			for i := range n {
				chunk[i] = float32(next + i)
			}
			next += r.Write(chunk[:n])
		}
	}()

	got := 0
	buf := make([]float32, 53)
	for got < total {
		n := r.Read(buf)
		for i := range n {
			if buf[i] != float32(got+i) {
				t.Fatalf("sample %d = %v", got+i, buf[i])
			}
		}
		got += n
	}
	wg.Wait()
}
