package drum

import "math"

// biquad is a direct form I filter with RBJ cookbook coefficients normalized by a0.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

func newBandPass(sampleRate, freq, q float64) biquad {
	w0, alpha := rbjPrewarp(sampleRate, freq, q)
	cosw := math.Cos(w0)
	a0 := 1 + alpha
	return biquad{
		b0: alpha / a0,
		b1: 0,
		b2: -alpha / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

func newHighPass(sampleRate, freq, q float64) biquad {
	w0, alpha := rbjPrewarp(sampleRate, freq, q)
	cosw := math.Cos(w0)
	a0 := 1 + alpha
	return biquad{
		b0: (1 + cosw) / 2 / a0,
		b1: -(1 + cosw) / a0,
		b2: (1 + cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

func rbjPrewarp(sampleRate, freq, q float64) (w0, alpha float64) {
	nyq := sampleRate / 2
	freq = math.Max(10, math.Min(freq, nyq*0.99))
	if q <= 0 {
		q = 1
	}
	w0 = 2 * math.Pi * freq / sampleRate
	alpha = math.Sin(w0) / (2 * q)
	return w0, alpha
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}
