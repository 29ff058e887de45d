package analysis

import (
	"math"

	"golang.org/x/exp/slices"
)

// Onset marks a window whose energy jumped above the running average.
type Onset struct {
	Time   float64 `json:"time" yaml:"time"`
	Sample int     `json:"sample" yaml:"sample"`
	Energy float64 `json:"energy" yaml:"energy"`
	// Centroid is the spectral centroid in Hz of the audio following the onset.
	Centroid float64 `json:"centroid,omitempty" yaml:"centroid,omitempty"`
}

// DetectOnsets scans fixed windows of samples for sudden energy rises.
func DetectOnsets(samples []float64, sampleRate int, cfg Config) []Onset {
	cfg = cfg.withDefaults()
	var onsets []Onset
	w := cfg.WindowSize
	prev := 0.0
	for p := 0; p+w < len(samples); p += cfg.HopSize {
		e := meanSquare(samples[p : p+w])
		if e-prev > cfg.OnsetThreshold {
			onsets = append(onsets, Onset{
				Time:   float64(p) / float64(sampleRate),
				Sample: p,
				Energy: e,
			})
		}
		prev = cfg.Smoothing*e + (1-cfg.Smoothing)*prev
	}
	return onsets
}

func meanSquare(win []float64) float64 {
	sum := 0.0
	for _, s := range win {
		sum += s * s
	}
	return sum / float64(len(win))
}

// maxOctaveSteps bounds the doubling/halving loops for degenerate periods.
const maxOctaveSteps = 32

// EstimateTempo derives a BPM from inter-onset intervals, folded by octaves into
// [MinBPM, MaxBPM]. Fewer than two onsets give DefaultBPM.
func EstimateTempo(onsets []Onset, cfg Config) int {
	cfg = cfg.withDefaults()
	if len(onsets) < 2 {
		return cfg.DefaultBPM
	}
	iois := make([]float64, 0, len(onsets)-1)
	for i := 1; i < len(onsets); i++ {
		if d := onsets[i].Time - onsets[i-1].Time; d > 0 {
			iois = append(iois, d)
		}
	}
	if len(iois) == 0 {
		return cfg.DefaultBPM
	}
	slices.Sort(iois)
	period := iois[int(float64(len(iois))*cfg.IOIPercentile)]

	raw := 60 / period
	bpm := math.Round(raw)
	if bpm <= 0 {
		bpm = raw
	}
	for i := 0; bpm < cfg.MinBPM && i < maxOctaveSteps; i++ {
		bpm *= 2
	}
	for i := 0; bpm > cfg.MaxBPM && i < maxOctaveSteps; i++ {
		bpm /= 2
	}
	bpm = math.Round(bpm)
	bpm = math.Max(cfg.MinBPM, math.Min(cfg.MaxBPM, bpm))
	return int(bpm)
}
