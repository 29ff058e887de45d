package analysis

import "math"

// Pitch is a fundamental frequency estimate at an onset.
type Pitch struct {
	Time float64 `json:"time" yaml:"time"`
	F0   float64 `json:"f0" yaml:"f0"`
}

// Tracker estimates a single fundamental per window by time-domain autocorrelation over
// lags [rate/PitchMaxHz, rate/PitchMinHz).
type Tracker struct {
	cfg    Config
	minLag int
	maxLag int
	rate   float64
	acf    []float64
}

func NewTracker(sampleRate int, cfg Config) *Tracker {
	cfg = cfg.withDefaults()
	minLag := int(math.Floor(float64(sampleRate) / cfg.PitchMaxHz))
	if minLag < 1 {
		minLag = 1
	}
	maxLag := int(math.Floor(float64(sampleRate) / cfg.PitchMinHz))
	return &Tracker{
		cfg:    cfg,
		minLag: minLag,
		maxLag: maxLag,
		rate:   float64(sampleRate),
		acf:    make([]float64, maxLag+1),
	}
}

// Estimate returns the fundamental of the window starting at start, or false when the
// window is too short or shows no periodicity.
func (t *Tracker) Estimate(samples []float64, start int) (float64, bool) {
	if start < 0 || start >= len(samples) {
		return 0, false
	}
	n := len(samples) - start
	if n > t.cfg.PitchWindow {
		n = t.cfg.PitchWindow
	}
	if n < t.cfg.MinPitchWindow {
		return 0, false
	}
	win := samples[start : start+n]

	hi := t.maxLag
	if hi > n-1 {
		hi = n - 1
	}
	if t.cfg.PeakPicking {
		return t.firstPeak(win, hi)
	}

	// the lag with the largest dot product wins, the shortest one on ties
	best, bestLag := 0.0, 0
	for lag := t.minLag; lag < hi; lag++ {
		sum := 0.0
		for i := 0; i < n-lag; i++ {
			sum += win[i] * win[i+lag]
		}
		if sum > best {
			best, bestLag = sum, lag
		}
	}
	if bestLag == 0 {
		return 0, false
	}
	return t.rate / float64(bestLag), true
}

// firstPeak normalizes each lag by its overlap and climbs from the shortest lag reaching
// PeakRatio of the maximum to its local peak.
func (t *Tracker) firstPeak(win []float64, hi int) (float64, bool) {
	n := len(win)
	best := 0.0
	for lag := t.minLag; lag < hi; lag++ {
		sum := 0.0
		for i := 0; i < n-lag; i++ {
			sum += win[i] * win[i+lag]
		}
		v := sum / float64(n-lag)
		t.acf[lag] = v
		if v > best {
			best = v
		}
	}
	if best <= 0 {
		return 0, false
	}

	threshold := best * t.cfg.PeakRatio
	lag := t.minLag
	for lag < hi && t.acf[lag] < threshold {
		lag++
	}
	for lag+1 < hi && t.acf[lag+1] > t.acf[lag] {
		lag++
	}
	if lag >= hi {
		return 0, false
	}
	return t.rate / float64(lag), true
}

// TrackPitches estimates a pitch at every onset and keeps those inside the accepted
// frequency band.
func TrackPitches(samples []float64, sampleRate int, onsets []Onset, cfg Config) []Pitch {
	tr := NewTracker(sampleRate, cfg)
	var out []Pitch
	for _, o := range onsets {
		f0, ok := tr.Estimate(samples, o.Sample)
		if !ok || f0 < tr.cfg.AcceptMinHz || f0 > tr.cfg.AcceptMaxHz {
			continue
		}
		out = append(out, Pitch{Time: o.Time, F0: f0})
	}
	return out
}
