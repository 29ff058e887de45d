package drum

import "math"

const (
	twoPi = math.Pi * 2

	kickFloor  = 0.001
	noiseFloor = 0.0001
	kickDrive  = 3.0
	// kickSweep is the share of the hit over which the kick pitch falls.
	kickSweep = 0.9
)

type Params struct {
	Polyphony  int
	MasterGain float64
	Kit        Kit
}

func DefaultParams() Params {
	return Params{Polyphony: 32, MasterGain: 1, Kit: DefaultKit()}
}

type hit struct {
	kind   Kind
	tone   Tone
	frames int
	pos    int
	phase  float64
	filter biquad
	// per-sample multipliers for the exponential ramps
	ampStep   float64
	amp       float64
	pitchStep float64
	pitch     float64
	sweep     int
}

// Engine mixes every sounding hit. It belongs to the render domain.
type Engine struct {
	sampleRate float64
	params     Params
	hits       []hit
	noise      uint32
}

func New(sampleRate int, params Params) *Engine {
	if params.Polyphony <= 0 {
		params.Polyphony = 32
	}
	params.Kit = params.Kit.WithDefaults()
	return &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
		hits:       make([]hit, 0, params.Polyphony),
		noise:      0x9E3779B9,
	}
}

func (e *Engine) Kit() Kit { return e.params.Kit }

// Trigger starts a hit of kind using the kit tone overlaid with override.
func (e *Engine) Trigger(kind Kind, override Tone) {
	tone := e.params.Kit.Tone(kind).Merge(override)
	if tone.Duration <= 0 || tone.Gain <= 0 {
		return
	}
	frames := int(math.Round(tone.Duration * e.sampleRate))
	if frames < 1 {
		frames = 1
	}
	floor := noiseFloor
	if kind == Kick {
		floor = kickFloor
	}
	h := hit{
		kind:    kind,
		tone:    tone,
		frames:  frames,
		amp:     tone.Gain,
		ampStep: math.Pow(floor/tone.Gain, 1/float64(frames)),
	}
	switch kind {
	case Kick:
		h.pitch = tone.PitchStart
		h.sweep = int(float64(frames) * kickSweep)
		if h.sweep < 1 {
			h.sweep = 1
		}
		h.pitchStep = 1
		if tone.PitchStart > 0 && tone.PitchEnd > 0 {
			h.pitchStep = math.Pow(tone.PitchEnd/tone.PitchStart, 1/float64(h.sweep))
		}
	case Snare:
		h.filter = newBandPass(e.sampleRate, tone.Freq, tone.Q)
	case Hat:
		h.filter = newHighPass(e.sampleRate, tone.Freq, tone.Q)
	}
	e.hits = append(e.hits, h)
}

// Render produces the next mono sample and retires finished hits.
func (e *Engine) Render() float64 {
	if len(e.hits) == 0 {
		return 0
	}
	out := 0.0
	n := 0
	for i := range e.hits {
		h := &e.hits[i]
		out += e.renderHit(h)
		h.pos++
		if h.pos < h.frames {
			e.hits[n] = *h
			n++
		}
	}
	e.hits = e.hits[:n]
	return out * e.params.MasterGain
}

func (e *Engine) renderHit(h *hit) float64 {
	var s float64
	switch h.kind {
	case Kick:
		s = math.Tanh(kickDrive * math.Sin(h.phase))
		h.phase += twoPi * h.pitch / e.sampleRate
		if h.phase >= twoPi {
			h.phase -= twoPi
		}
		if h.pos < h.sweep {
			h.pitch *= h.pitchStep
		}
	default:
		s = h.filter.process(e.nextNoise())
	}
	s *= h.amp
	h.amp *= h.ampStep
	return s
}

// nextNoise is a xorshift32 white noise source in [-1, 1).
func (e *Engine) nextNoise() float64 {
	x := e.noise
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	e.noise = x
	return float64(x)/float64(math.MaxUint32)*2 - 1
}

func (e *Engine) ActiveCount() int { return len(e.hits) }

// Reset silences every hit.
func (e *Engine) Reset() { e.hits = e.hits[:0] }
