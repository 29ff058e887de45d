package analysis

import (
	"context"
	"fmt"

	"github.com/cbegin/reorch-go/internal/signal"
)

// Result is the complete description of an analyzed buffer.
type Result struct {
	BPM        int     `json:"bpm" yaml:"bpm"`
	Onsets     []Onset `json:"onsets" yaml:"onsets"`
	Pitches    []Pitch `json:"pitches" yaml:"pitches"`
	SampleRate int     `json:"sampleRate" yaml:"sampleRate"`
	Duration   float64 `json:"duration" yaml:"duration"`
}

// SecondsPerBeat is 60/BPM.
func (r *Result) SecondsPerBeat() float64 {
	if r.BPM <= 0 {
		return 0.5
	}
	return 60 / float64(r.BPM)
}

func (r *Result) String() string {
	return fmt.Sprintf("%d BPM, %d onsets, %d pitches over %.2fs", r.BPM, len(r.Onsets), len(r.Pitches), r.Duration)
}

// Analyze runs onset detection, tempo estimation and pitch tracking on buf. It only fails
// when ctx is cancelled.
func Analyze(ctx context.Context, buf signal.Buffer, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	samples := buf.Samples()
	rate := buf.SampleRate()

	onsets := DetectOnsets(samples, rate, cfg)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &Result{
		BPM:        EstimateTempo(onsets, cfg),
		Onsets:     onsets,
		SampleRate: rate,
		Duration:   buf.Duration(),
	}

	tr := NewTracker(rate, cfg)
	for i := range onsets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o := &onsets[i]
		if cfg.SpectrumSize > 0 {
			o.Centroid = spectralCentroid(samples, o.Sample, cfg.SpectrumSize, rate)
		}
		f0, ok := tr.Estimate(samples, o.Sample)
		if !ok || f0 < cfg.AcceptMinHz || f0 > cfg.AcceptMaxHz {
			continue
		}
		res.Pitches = append(res.Pitches, Pitch{Time: o.Time, F0: f0})
	}
	return res, nil
}
