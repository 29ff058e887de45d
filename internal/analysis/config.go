// Package analysis extracts onsets, tempo and monophonic pitch from a signal buffer.
package analysis

// Config tunes every stage of the analysis.
type Config struct {
	WindowSize     int     `yaml:"windowSize"`
	HopSize        int     `yaml:"hopSize"`
	OnsetThreshold float64 `yaml:"onsetThreshold"`
	// Smoothing is the weight of the newest window in the running energy average.
	Smoothing float64 `yaml:"smoothing"`

	IOIPercentile float64 `yaml:"ioiPercentile"`
	MinBPM        float64 `yaml:"minBPM"`
	MaxBPM        float64 `yaml:"maxBPM"`
	DefaultBPM    int     `yaml:"defaultBPM"`

	PitchMinHz     float64 `yaml:"pitchMinHz"`
	PitchMaxHz     float64 `yaml:"pitchMaxHz"`
	PitchWindow    int     `yaml:"pitchWindow"`
	MinPitchWindow int     `yaml:"minPitchWindow"`
	AcceptMinHz    float64 `yaml:"acceptMinHz"`
	AcceptMaxHz    float64 `yaml:"acceptMaxHz"`
	// PeakPicking normalizes each lag by its overlap and takes the first peak reaching
	// PeakRatio of the maximum, instead of the lag with the largest raw dot product.
	PeakPicking bool    `yaml:"peakPicking"`
	PeakRatio   float64 `yaml:"peakRatio"`

	// SpectrumSize is the FFT length used for the per-onset centroid. 0 disables it.
	SpectrumSize int `yaml:"spectrumSize"`
}

func DefaultConfig() Config {
	return Config{
		WindowSize:     1024,
		HopSize:        512,
		OnsetThreshold: 0.005,
		Smoothing:      0.9,
		IOIPercentile:  0.25,
		MinBPM:         60,
		MaxBPM:         180,
		DefaultBPM:     120,
		PitchMinHz:     40,
		PitchMaxHz:     500,
		PitchWindow:    2048,
		MinPitchWindow: 1024,
		AcceptMinHz:    40,
		AcceptMaxHz:    1000,
		PeakRatio:      0.9,
		SpectrumSize:   1024,
	}
}

// withDefaults replaces unusable values by their defaults.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WindowSize <= 0 {
		c.WindowSize = d.WindowSize
	}
	if c.HopSize <= 0 {
		c.HopSize = d.HopSize
	}
	if c.Smoothing <= 0 || c.Smoothing > 1 {
		c.Smoothing = d.Smoothing
	}
	if c.IOIPercentile < 0 || c.IOIPercentile >= 1 {
		c.IOIPercentile = d.IOIPercentile
	}
	if c.MinBPM <= 0 || c.MaxBPM < 2*c.MinBPM {
		c.MinBPM, c.MaxBPM = d.MinBPM, d.MaxBPM
	}
	if c.DefaultBPM <= 0 {
		c.DefaultBPM = d.DefaultBPM
	}
	if c.PitchMinHz <= 0 || c.PitchMaxHz <= c.PitchMinHz {
		c.PitchMinHz, c.PitchMaxHz = d.PitchMinHz, d.PitchMaxHz
	}
	if c.PitchWindow <= 0 {
		c.PitchWindow = d.PitchWindow
	}
	if c.MinPitchWindow <= 0 {
		c.MinPitchWindow = d.MinPitchWindow
	}
	if c.AcceptMaxHz <= c.AcceptMinHz {
		c.AcceptMinHz, c.AcceptMaxHz = d.AcceptMinHz, d.AcceptMaxHz
	}
	if c.PeakRatio <= 0 || c.PeakRatio > 1 {
		c.PeakRatio = d.PeakRatio
	}
	if c.SpectrumSize < 0 {
		c.SpectrumSize = 0
	}
	return c
}
