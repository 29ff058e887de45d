package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/cbegin/reorch-go/internal/signal"
	"github.com/stretchr/testify/require"
)

const rate = 44100

// clickTrain places n short unit bursts, one every hops*512 samples.
func clickTrain(n, hops int) []float64 {
	spacing := hops * 512
	out := make([]float64, n*spacing+2048)
	for k := 0; k < n; k++ {
		start := k*spacing + 100
		for i := 0; i < 32; i++ {
			out[start+i] = 1
		}
	}
	return out
}

func sine(freq float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
	}
	return out
}

func TestSilentBufferHasNoOnsetsAndDefaultTempo(t *testing.T) {
	t.Parallel()
	buf, err := signal.New(make([]float64, rate*2), rate)
	require.NoError(t, err)
	res, err := Analyze(context.Background(), buf, DefaultConfig())
	require.NoError(t, err)
	require.Empty(t, res.Onsets)
	require.Empty(t, res.Pitches)
	require.Equal(t, 120, res.BPM)
	require.InDelta(t, 2.0, res.Duration, 1e-9)
}

func TestShortBufferDegrades(t *testing.T) {
	t.Parallel()
	buf, err := signal.New([]float64{1, -1, 1}, rate)
	require.NoError(t, err)
	res, err := Analyze(context.Background(), buf, DefaultConfig())
	require.NoError(t, err)
	require.Empty(t, res.Onsets)
	require.Equal(t, 120, res.BPM)
}

func TestClickTrainOnsetsAndTempo(t *testing.T) {
	t.Parallel()
	const clicks = 12
	samples := clickTrain(clicks, 43)
	onsets := DetectOnsets(samples, rate, DefaultConfig())
	require.GreaterOrEqual(t, len(onsets), clicks-1)
	for i := 1; i < len(onsets); i++ {
		require.Greater(t, onsets[i].Time, onsets[i-1].Time)
	}
	require.Equal(t, 0.0, onsets[0].Time)
	// each click straddles two windows; only the earlier one fires
	require.InDelta(t, 42*512.0/rate, onsets[1].Time, 1e-9)
	require.InDelta(t, 43*512.0/rate, onsets[2].Time-onsets[1].Time, 1e-9)

	require.Equal(t, 120, EstimateTempo(onsets, DefaultConfig()))
}

func TestTempoFoldsOctaves(t *testing.T) {
	t.Parallel()
	mk := func(period float64) []Onset {
		var o []Onset
		for i := 0; i < 6; i++ {
			o = append(o, Onset{Time: float64(i) * period})
		}
		return o
	}
	cfg := DefaultConfig()
	require.Equal(t, 100, EstimateTempo(mk(1.2), cfg))  // 50 doubles to 100
	require.Equal(t, 100, EstimateTempo(mk(0.3), cfg))  // 200 halves to 100
	require.Equal(t, 120, EstimateTempo(mk(0.125), cfg)) // 480 halves twice
	require.Equal(t, 120, EstimateTempo(mk(0.5)[:1], cfg))
}

func TestTempoUsesLowerQuartileInterval(t *testing.T) {
	t.Parallel()
	times := []float64{0, 0.5, 1.0, 1.5, 2.5, 3.5}
	var o []Onset
	for _, tm := range times {
		o = append(o, Onset{Time: tm})
	}
	// IOIs sorted: .5 .5 .5 1 1 -> index 1 -> 0.5s
	require.Equal(t, 120, EstimateTempo(o, DefaultConfig()))
}

func TestTempoStaysInRangeForDegeneratePeriods(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	for _, period := range []float64{1e-6, 1e3, 1e6} {
		bpm := EstimateTempo([]Onset{{Time: 0}, {Time: period}}, cfg)
		require.GreaterOrEqual(t, bpm, 60, "period %v", period)
		require.LessOrEqual(t, bpm, 180, "period %v", period)
	}
}

func TestPitchTrackerOnSines(t *testing.T) {
	t.Parallel()
	tr := NewTracker(rate, DefaultConfig())
	for _, f := range []float64{110, 220, 330, 440} {
		got, ok := tr.Estimate(sine(f, 4096), 0)
		require.True(t, ok, "f=%v", f)
		// the shrinking overlap pulls the raw maximum towards shorter lags
		require.InEpsilon(t, f, got, 0.02, "f=%v", f)
	}
}

func TestPitchTrackerPrefersStrongestPeriod(t *testing.T) {
	t.Parallel()
	mix := sine(200, 4096)
	for i, s := range sine(100, 4096) {
		mix[i] += 0.1 * s
	}
	got, ok := NewTracker(rate, DefaultConfig()).Estimate(mix, 0)
	require.True(t, ok)
	require.InEpsilon(t, 200, got, 0.02)
}

func TestPitchTrackerPeakPickingWithinOneLag(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.PeakPicking = true
	tr := NewTracker(rate, cfg)
	for _, f := range []float64{110, 220, 330, 440} {
		got, ok := tr.Estimate(sine(f, 4096), 0)
		require.True(t, ok, "f=%v", f)
		tol := f * f / rate * 1.05
		require.InDelta(t, f, got, tol, "f=%v", f)
	}
	_, ok := tr.Estimate(make([]float64, 4096), 0)
	require.False(t, ok)
}

func TestPitchTrackerRejectsShortAndSilent(t *testing.T) {
	t.Parallel()
	tr := NewTracker(rate, DefaultConfig())
	_, ok := tr.Estimate(sine(220, 1000), 0)
	require.False(t, ok)
	_, ok = tr.Estimate(sine(220, 4096), 3500)
	require.False(t, ok)
	_, ok = tr.Estimate(make([]float64, 4096), 0)
	require.False(t, ok)
	_, ok = tr.Estimate(sine(220, 4096), -1)
	require.False(t, ok)
}

func TestAnalyzeTonalBursts(t *testing.T) {
	t.Parallel()
	// 220 Hz bursts every 43 hops separated by silence
	spacing := 43 * 512
	samples := make([]float64, 6*spacing+4096)
	for k := 0; k < 6; k++ {
		start := k*spacing + 100
		for i := 0; i < 6000; i++ {
			samples[start+i] = math.Sin(2 * math.Pi * 220 * float64(i) / rate)
		}
	}
	buf, err := signal.New(samples, rate)
	require.NoError(t, err)
	res, err := Analyze(context.Background(), buf, DefaultConfig())
	require.NoError(t, err)
	require.NotEmpty(t, res.Onsets)
	require.NotEmpty(t, res.Pitches)
	for _, p := range res.Pitches {
		require.InEpsilon(t, 220, p.F0, 0.02)
	}
	require.Greater(t, res.Onsets[0].Centroid, 100.0)
	require.Less(t, res.Onsets[0].Centroid, 2000.0)
}

func TestAnalyzeHonoursCancellation(t *testing.T) {
	t.Parallel()
	buf, err := signal.New(clickTrain(4, 43), rate)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Analyze(ctx, buf, DefaultConfig())
	require.ErrorIs(t, err, context.Canceled)
}

func TestSpectralCentroidOfSine(t *testing.T) {
	t.Parallel()
	c := spectralCentroid(sine(1000, 2048), 0, 1024, rate)
	require.InDelta(t, 1000, c, 100)
}
