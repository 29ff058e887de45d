package effects

import (
	"math"

	"github.com/cbegin/reorch-go/internal/param"
)

type BusParams struct {
	InputGain  float64 `yaml:"inputGain"`
	Drive      float64 `yaml:"drive"`
	Ceiling    float64 `yaml:"ceiling"`
	OutputGain float64 `yaml:"outputGain"`
	DCCoeff    float64 `yaml:"dcCoeff"`
	// CeilingRatio is the slope applied to the part of the signal above Ceiling.
	CeilingRatio float64 `yaml:"ceilingRatio"`
	GlideFrames  int     `yaml:"glideFrames"`
}

func DefaultBusParams() BusParams {
	return BusParams{
		InputGain:    1,
		Drive:        0.10,
		Ceiling:      0.95,
		OutputGain:   1,
		DCCoeff:      0.995,
		CeilingRatio: 0.25,
	}
}

// Clamped forces every field into its range.
func (p BusParams) Clamped() BusParams {
	c := func(n param.Name, v float64) float64 {
		r, _ := param.Lookup(n)
		return r.Clamp(v)
	}
	p.InputGain = c(param.BusInputGain, p.InputGain)
	p.Drive = c(param.BusDrive, p.Drive)
	p.Ceiling = c(param.BusCeiling, p.Ceiling)
	p.OutputGain = c(param.BusOutputGain, p.OutputGain)
	p.DCCoeff = c(param.BusDCCoeff, p.DCCoeff)
	p.CeilingRatio = param.Clamp(p.CeilingRatio, 0, 1)
	if p.GlideFrames < 0 {
		p.GlideFrames = 0
	}
	return p
}

// Bus is the output stage: input gain, DC blocker, tanh drive, soft ceiling and output
// gain, with independent filter memory per channel.
type Bus struct {
	params BusParams

	inGain  param.Smoother
	drive   param.Smoother
	ceiling param.Smoother
	outGain param.Smoother
	coeff   param.Smoother

	prevX [2]float64
	prevY [2]float64
}

func NewBus(params BusParams) *Bus {
	params = params.Clamped()
	return &Bus{
		params:  params,
		inGain:  param.NewSmoother(params.InputGain),
		drive:   param.NewSmoother(params.Drive),
		ceiling: param.NewSmoother(params.Ceiling),
		outGain: param.NewSmoother(params.OutputGain),
		coeff:   param.NewSmoother(params.DCCoeff),
	}
}

func (b *Bus) Params() BusParams { return b.params }

// SetParam changes a bus parameter without touching filter memory. It reports false for
// names that are not bus parameters.
func (b *Bus) SetParam(name param.Name, value float64) bool {
	r, ok := param.Lookup(name)
	if !ok {
		return false
	}
	value = r.Clamp(value)
	glide := b.params.GlideFrames
	switch name {
	case param.BusInputGain:
		b.params.InputGain = value
		b.inGain.Target(value, glide)
	case param.BusDrive:
		b.params.Drive = value
		b.drive.Target(value, glide)
	case param.BusCeiling:
		b.params.Ceiling = value
		b.ceiling.Target(value, glide)
	case param.BusOutputGain:
		b.params.OutputGain = value
		b.outGain.Target(value, glide)
	case param.BusDCCoeff:
		b.params.DCCoeff = value
		b.coeff.Target(value, glide)
	default:
		return false
	}
	return true
}

func (b *Bus) Process(l, r float32) (float32, float32) {
	inGain := b.inGain.Next()
	shape := 1 + 10*b.drive.Next()
	ceiling := b.ceiling.Next()
	outGain := b.outGain.Next()
	coeff := b.coeff.Next()

	out := [2]float64{float64(l), float64(r)}
	for ch := range out {
		x := out[ch] * inGain
		y := x - b.prevX[ch] + coeff*b.prevY[ch]
		b.prevX[ch] = x
		b.prevY[ch] = y

		y = math.Tanh(y * shape)
		if a := math.Abs(y); a > ceiling {
			y = math.Copysign(ceiling+(a-ceiling)*b.params.CeilingRatio, y)
		}
		out[ch] = y * outGain
	}
	return float32(out[0]), float32(out[1])
}

// FilterState returns the DC blocker memory of channel ch.
func (b *Bus) FilterState(ch int) (prevX, prevY float64) {
	return b.prevX[ch], b.prevY[ch]
}

func (b *Bus) Reset() {
	b.prevX = [2]float64{}
	b.prevY = [2]float64{}
}
