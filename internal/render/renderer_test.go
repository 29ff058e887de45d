package render

import (
	"context"
	"testing"

	"github.com/cbegin/reorch-go/internal/drum"
	"github.com/cbegin/reorch-go/internal/msgq"
	"github.com/cbegin/reorch-go/internal/param"
	"github.com/cbegin/reorch-go/internal/trigger"
	"github.com/stretchr/testify/require"
)

const rate = 48000

func firstNonZero(buf []float32) int {
	for i := 0; i+1 < len(buf); i += 2 {
		if buf[i] != 0 {
			return i / 2
		}
	}
	return -1
}

func TestRendererSilentWithoutEvents(t *testing.T) {
	t.Parallel()
	r := New(rate, DefaultParams())
	buf := make([]float32, 512*2)
	r.Process(buf)
	require.Equal(t, -1, firstNonZero(buf))
	require.Equal(t, int64(512), r.Frames())
	require.InDelta(t, 512.0/rate, r.Now(), 1e-12)
}

func TestRendererAppliesEventAtItsSample(t *testing.T) {
	t.Parallel()
	r := New(rate, DefaultParams())
	at := 100.0 / rate
	require.True(t, r.Queue().TryPush(trigger.Hit(at, drum.Hat, drum.Tone{})))

	buf := make([]float32, 512*2)
	r.Process(buf)
	// the hat is noise through a filter so the first sample of the hit is non-zero
	require.Equal(t, 100, firstNonZero(buf))
	require.Zero(t, r.Pending())
}

func TestRendererKeepsFutureEventsPending(t *testing.T) {
	t.Parallel()
	r := New(rate, DefaultParams())
	require.True(t, r.Queue().TryPush(trigger.Hit(1.0, drum.Kick, drum.Tone{})))
	buf := make([]float32, 256*2)
	r.Process(buf)
	require.Equal(t, 1, r.Pending())
	require.Equal(t, -1, firstNonZero(buf))
}

func TestRendererAppliesPastEventsImmediately(t *testing.T) {
	t.Parallel()
	r := New(rate, DefaultParams())
	buf := make([]float32, 256*2)
	r.Process(buf)
	require.True(t, r.Queue().TryPush(trigger.Hit(0, drum.Snare, drum.Tone{})))
	r.Process(buf)
	require.Equal(t, 0, firstNonZero(buf))
}

func TestRendererOrdersOutOfOrderEvents(t *testing.T) {
	t.Parallel()
	r := New(rate, DefaultParams())
	q := r.Queue()
	require.True(t, q.TryPush(trigger.Off(0.002, 1)))
	require.True(t, q.TryPush(trigger.On(0.001, 1, 220)))
	buf := make([]float32, 96*2)
	r.Process(buf)
	require.Equal(t, 1, r.Mixer().Voices().ActiveVoiceCount())
	require.Equal(t, 1, r.Pending())
	r.Process(buf)
	require.Zero(t, r.Pending())
}

func TestRendererParamEventsReachVoicesAndBus(t *testing.T) {
	t.Parallel()
	r := New(rate, DefaultParams())
	q := r.Queue()
	require.True(t, q.TryPush(trigger.Set(0, param.Cutoff, 500)))
	require.True(t, q.TryPush(trigger.Set(0, param.BusCeiling, 0.7)))
	require.True(t, q.TryPush(trigger.Set(0, param.Tempo, 90)))
	r.Process(make([]float32, 2))
	require.Equal(t, 500.0, r.Mixer().Voices().Params().Cutoff)
	require.Equal(t, 0.7, r.Bus().Params().Ceiling)
	require.Equal(t, uint64(1), r.Ignored())
}

func TestRendererPendingOverflowStaysQueued(t *testing.T) {
	t.Parallel()
	p := DefaultParams()
	p.PendingSize = 2
	r := New(rate, p)
	for i := 0; i < 5; i++ {
		require.True(t, r.Queue().TryPush(trigger.Hit(10, drum.Hat, drum.Tone{})))
	}
	r.Process(make([]float32, 2))
	require.Equal(t, 2, r.Pending())
	require.Equal(t, 3, r.Queue().Len())
}

func TestRendererEarlierEventDisplacesLatestPending(t *testing.T) {
	t.Parallel()
	p := DefaultParams()
	p.PendingSize = 2
	r := New(rate, p)
	require.True(t, r.Queue().TryPush(trigger.Hit(0.005, drum.Hat, drum.Tone{})))
	require.True(t, r.Queue().TryPush(trigger.Hit(0.006, drum.Hat, drum.Tone{})))
	require.True(t, r.Queue().TryPush(trigger.Hit(0, drum.Kick, drum.Tone{})))

	r.Process(make([]float32, 64*2))
	require.Zero(t, r.Queue().Len())
	require.Equal(t, 1, r.Mixer().Drums().ActiveCount())
	require.Equal(t, 2, r.Pending())

	r.Process(make([]float32, 512*2))
	require.Zero(t, r.Pending())
	require.Equal(t, 3, r.Mixer().Drums().ActiveCount())
}

func TestMasterGainAndTap(t *testing.T) {
	t.Parallel()
	r := New(rate, DefaultParams())
	var tapped int
	r.SetSampleTap(func(b []float32) { tapped += len(b) })
	r.SetMasterGain(-1)
	require.Zero(t, r.MasterGain())
	require.True(t, r.Queue().TryPush(trigger.Hit(0, drum.Kick, drum.Tone{})))
	buf := make([]float32, 64*2)
	r.Process(buf)
	require.Equal(t, -1, firstNonZero(buf))
	require.Equal(t, 128, tapped)
}

func TestSinkBlockingAndDropping(t *testing.T) {
	t.Parallel()
	ring := msgq.New[trigger.Event](1)
	var ids trigger.IDs

	drop := NewDroppingSink(ring, &ids)
	drop.Send(trigger.Off(0, 1))
	drop.Send(trigger.Off(0, 2))
	require.Equal(t, uint64(1), drop.Dropped())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	block := NewSink(ctx, ring, &ids)
	block.Send(trigger.Off(0, 3))
	require.Equal(t, uint64(1), block.Dropped())

	require.Equal(t, 1, drop.NewVoices(1))
	require.Equal(t, 2, block.NewVoices(1))
}

func BenchmarkRendererProcess(b *testing.B) {
	r := New(rate, DefaultParams())
	buf := make([]float32, 512*2)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		now := r.Now()
		r.Queue().TryPush(trigger.Hit(now, drum.Snare, drum.Tone{}))
		r.Queue().TryPush(trigger.On(now, i+1, 220))
		r.Queue().TryPush(trigger.Off(now+0.005, i+1))
		r.Process(buf)
	}
}
