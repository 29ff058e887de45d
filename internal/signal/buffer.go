// Package signal holds the immutable mono sample buffer that analysis runs on.
package signal

import (
	"errors"
	"math"
)

var (
	ErrEmpty      = errors.New("signal: no samples")
	ErrSampleRate = errors.New("signal: sample rate must be positive")
	ErrChannels   = errors.New("signal: channel count must be positive")
)

// Buffer is a mono sample sequence normalized so that its peak magnitude is at most 1.
type Buffer struct {
	samples    []float64
	sampleRate int
	gain       float64
}

// New copies samples and scales them by 1/peak. A silent input keeps unit gain.
func New(samples []float64, sampleRate int) (Buffer, error) {
	if sampleRate <= 0 {
		return Buffer{}, ErrSampleRate
	}
	if len(samples) == 0 {
		return Buffer{}, ErrEmpty
	}
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	gain := 1.0
	if peak > 0 && !math.IsInf(peak, 0) {
		gain = 1 / peak
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s * gain
	}
	return Buffer{samples: out, sampleRate: sampleRate, gain: gain}, nil
}

// FromChannels builds a buffer from the first channel of a decoded multichannel signal.
func FromChannels(channels [][]float64, sampleRate int) (Buffer, error) {
	if len(channels) == 0 {
		return Buffer{}, ErrEmpty
	}
	return New(channels[0], sampleRate)
}

// FromInterleaved extracts channel 0 from interleaved float32 frames.
func FromInterleaved(frames []float32, numChannels int, sampleRate int) (Buffer, error) {
	if numChannels <= 0 {
		return Buffer{}, ErrChannels
	}
	n := len(frames) / numChannels
	mono := make([]float64, n)
	for i := 0; i < n; i++ {
		mono[i] = float64(frames[i*numChannels])
	}
	return New(mono, sampleRate)
}

// Samples returns the normalized samples. Callers must not modify the slice.
func (b Buffer) Samples() []float64 { return b.samples }

func (b Buffer) SampleRate() int { return b.sampleRate }

func (b Buffer) Len() int { return len(b.samples) }

// Gain is the factor that was applied during normalization.
func (b Buffer) Gain() float64 { return b.gain }

// Duration is the length in seconds.
func (b Buffer) Duration() float64 {
	if b.sampleRate <= 0 {
		return 0
	}
	return float64(len(b.samples)) / float64(b.sampleRate)
}
