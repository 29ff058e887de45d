package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type rampSource struct {
	calls []int
	next  float32
}

func (s *rampSource) Process(dst []float32) {
	s.calls = append(s.calls, len(dst)/2)
	for i := range dst {
		dst[i] = s.next
		s.next++
	}
}

func TestStreamReaderSplitsLargeReads(t *testing.T) {
	t.Parallel()
	src := &rampSource{}
	r := NewStreamReader(src)
	frames := MaxBlockFrames*2 + 10
	p := make([]byte, frames*8+3)
	n, err := r.Read(p)
	require.NoError(t, err)
	require.Equal(t, frames*8, n)
	require.Equal(t, []int{MaxBlockFrames, MaxBlockFrames, 10}, src.calls)
	require.Equal(t, int64(frames), r.Frames())

	for i := 0; i < frames*2; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		require.Equal(t, float32(i), got)
	}
}

func TestStreamReaderShortRead(t *testing.T) {
	t.Parallel()
	r := NewStreamReader(&rampSource{})
	n, err := r.Read(make([]byte, 7))
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestStreamReaderNeverEnds(t *testing.T) {
	t.Parallel()
	src := &rampSource{}
	r := NewStreamReader(src)
	for i := 0; i < 3; i++ {
		n, err := r.Read(make([]byte, 64))
		require.NoError(t, err)
		require.Equal(t, 64, n)
	}
	require.Equal(t, int64(24), r.Frames())
}
