package reorch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cbegin/reorch-go/internal/analysis"
	"github.com/cbegin/reorch-go/internal/sequencer"
)

// energyAt is the mean square of the left channel over [from, from+seconds).
func energyAt(out []float32, rate int, from, seconds float64) float64 {
	start := int(from * float64(rate))
	n := int(seconds * float64(rate))
	sum := 0.0
	for i := start; i < start+n && i*2 < len(out); i++ {
		v := float64(out[i*2])
		sum += v * v
	}
	return sum / float64(n)
}

func TestRenderPatternDefault(t *testing.T) {
	t.Parallel()
	out, err := RenderPattern(sequencer.DefaultPattern(), 1, WithConfig(testConfig()))
	require.NoError(t, err)
	require.Len(t, out, testRate*2)

	require.Greater(t, peak(out), 0.05)
	require.LessOrEqual(t, peak(out), 0.9)
	for i := 0; i+1 < len(out); i += 2 {
		require.Equal(t, out[i], out[i+1], "mono source is doubled to both channels")
	}
	// the hat is noise, so it is audible from the very first sample
	require.NotZero(t, out[0])
}

func TestRenderPatternIsDeterministic(t *testing.T) {
	t.Parallel()
	a, err := RenderPattern(sequencer.DefaultPattern(), 0.5, WithConfig(testConfig()))
	require.NoError(t, err)
	b, err := RenderPattern(sequencer.DefaultPattern(), 0.5, WithConfig(testConfig()))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestRenderPatternPlacesHitsOnSteps(t *testing.T) {
	t.Parallel()
	var p sequencer.Pattern
	p.Snare[4] = true // beat 2 at 120 BPM is 0.5 s
	out, err := RenderPattern(p, 1, WithConfig(testConfig()))
	require.NoError(t, err)
	require.Zero(t, energyAt(out, testRate, 0, 0.49))
	require.Greater(t, energyAt(out, testRate, 0.5, 0.05), 1e-4)
}

func TestRenderEmptyPatternIsSilent(t *testing.T) {
	t.Parallel()
	out, err := RenderPattern(sequencer.Pattern{}, 0.25, WithConfig(testConfig()))
	require.NoError(t, err)
	require.Zero(t, peak(out))
}

func TestRenderPatternDefaultDuration(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.SampleRate = 1000
	out, err := RenderPattern(sequencer.Pattern{}, 0, WithConfig(cfg))
	require.NoError(t, err)
	require.Len(t, out, int(DefaultRenderSeconds*1000)*2)
}

func TestRenderAnalysisReference(t *testing.T) {
	t.Parallel()
	res := &analysis.Result{
		BPM:      120,
		Onsets:   []analysis.Onset{{Time: 0}, {Time: 0.5}},
		Pitches:  []analysis.Pitch{{Time: 0, F0: 220}},
		Duration: 1,
	}
	out, err := RenderAnalysis(res, 0, WithConfig(testConfig()))
	require.NoError(t, err)
	require.Len(t, out, testRate*2)

	// kick plus a 220 Hz note from 0, a hat at 0.5 s
	require.Greater(t, energyAt(out, testRate, 0, 0.1), 1e-3)
	require.Greater(t, energyAt(out, testRate, 0.5, 0.02), 1e-5)
	require.Less(t, energyAt(out, testRate, 0.9, 0.1), 1e-6)
}

func TestRenderAnalysisWithoutResult(t *testing.T) {
	t.Parallel()
	_, err := RenderAnalysis(nil, 1, WithConfig(testConfig()))
	require.ErrorIs(t, err, ErrNoAnalysis)
}

func TestRenderAnalysisPitchesAreAudible(t *testing.T) {
	t.Parallel()
	drumsOnly := &analysis.Result{BPM: 120, Onsets: []analysis.Onset{{Time: 0.6}}, Duration: 1}
	withNote := &analysis.Result{
		BPM:      120,
		Onsets:   []analysis.Onset{{Time: 0.6}},
		Pitches:  []analysis.Pitch{{Time: 0.6, F0: 330}},
		Duration: 1,
	}
	a, err := RenderAnalysis(drumsOnly, 0, WithConfig(testConfig()))
	require.NoError(t, err)
	b, err := RenderAnalysis(withNote, 0, WithConfig(testConfig()))
	require.NoError(t, err)
	ea := energyAt(a, testRate, 0.6, 0.15)
	eb := energyAt(b, testRate, 0.6, 0.15)
	require.Greater(t, eb, ea)
	require.False(t, math.IsNaN(eb))
}
