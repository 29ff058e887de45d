package analysis

import (
	"math/cmplx"

	"github.com/maddyblue/go-dsp/fft"
	"github.com/maddyblue/go-dsp/window"
)

// spectralCentroid returns the magnitude-weighted mean frequency of size samples starting
// at start, Hann windowed. Windows running past the end are zero padded.
func spectralCentroid(samples []float64, start, size, sampleRate int) float64 {
	if size <= 0 || start >= len(samples) {
		return 0
	}
	frame := make([]float64, size)
	copy(frame, samples[start:])
	window.Apply(frame, window.Hann)

	spec := fft.FFTReal(frame)
	bins := len(spec)/2 + 1
	binHz := float64(sampleRate) / float64(size)
	var num, den float64
	for k := 0; k < bins; k++ {
		mag := cmplx.Abs(spec[k])
		num += float64(k) * binHz * mag
		den += mag
	}
	if den == 0 {
		return 0
	}
	return num / den
}
