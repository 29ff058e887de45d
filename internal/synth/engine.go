// Package synth is the polyphonic voice synthesizer: a phase-modulated saw through a
// brightness tilt and a tanh drive, shaped by a linear ADSR envelope per voice.
package synth

import (
	"math"

	"github.com/cbegin/reorch-go/internal/param"
)

const twoPi = math.Pi * 2

type Params struct {
	Polyphony int     `yaml:"polyphony"`
	Cutoff    float64 `yaml:"cutoff"`
	MaxCutoff float64 `yaml:"maxCutoff"`
	Attack    float64 `yaml:"attack"`
	Decay     float64 `yaml:"decay"`
	Sustain   float64 `yaml:"sustain"`
	Release   float64 `yaml:"release"`
	FMDepth   float64 `yaml:"fmDepth"`
	Drive     float64 `yaml:"drive"`
	Gain      float64 `yaml:"gain"`
	// GlideFrames is how many samples a live cutoff/fmDepth/drive/gain change takes.
	GlideFrames int `yaml:"glideFrames"`
}

func DefaultParams() Params {
	return Params{
		Polyphony: 32,
		Cutoff:    2000,
		MaxCutoff: 12000,
		Attack:    0.01,
		Decay:     0.15,
		Sustain:   0.6,
		Release:   0.25,
		FMDepth:   0,
		Drive:     0,
		Gain:      1,
	}
}

// ModernParams is the brighter lead preset.
func ModernParams() Params {
	p := DefaultParams()
	p.Cutoff = 2200
	p.Attack = 0.015
	p.Decay = 0.160
	p.Sustain = 0.62
	p.Release = 0.28
	p.FMDepth = 25
	p.Drive = 0.10
	return p
}

// Clamped returns p with every field forced into its parameter range.
func (p Params) Clamped() Params {
	c := func(n param.Name, v float64) float64 {
		r, _ := param.Lookup(n)
		return r.Clamp(v)
	}
	p.Cutoff = c(param.Cutoff, p.Cutoff)
	p.Attack = c(param.Attack, p.Attack)
	p.Decay = c(param.Decay, p.Decay)
	p.Sustain = c(param.Sustain, p.Sustain)
	p.Release = c(param.Release, p.Release)
	p.FMDepth = c(param.FMDepth, p.FMDepth)
	p.Drive = c(param.Drive, p.Drive)
	p.Gain = c(param.Gain, p.Gain)
	if p.MaxCutoff <= 0 {
		p.MaxCutoff = 12000
	}
	if p.Polyphony <= 0 {
		p.Polyphony = 32
	}
	if p.GlideFrames < 0 {
		p.GlideFrames = 0
	}
	return p
}

type envState int

const (
	envAttack envState = iota
	envDecay
	envSustain
	envRelease
	envOff
)

type voice struct {
	id    int
	freq  float64
	phase float64
	state envState
	// elapsed samples in the current stage
	t int
}

// Engine renders every active voice. All methods belong to the render domain.
type Engine struct {
	sampleRate float64
	params     Params
	voices     []voice

	cutoff  param.Smoother
	fmDepth param.Smoother
	drive   param.Smoother
	gain    param.Smoother
}

func New(sampleRate int, params Params) *Engine {
	params = params.Clamped()
	return &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
		voices:     make([]voice, 0, params.Polyphony),
		cutoff:     param.NewSmoother(params.Cutoff),
		fmDepth:    param.NewSmoother(params.FMDepth),
		drive:      param.NewSmoother(params.Drive),
		gain:       param.NewSmoother(params.Gain),
	}
}

func (e *Engine) Params() Params { return e.params }

// NoteOn starts voice id at freq Hz. An id that is already sounding restarts from the
// attack stage with the new frequency.
func (e *Engine) NoteOn(id int, freq float64) {
	for i := range e.voices {
		if e.voices[i].id == id {
			e.voices[i] = voice{id: id, freq: freq, state: envAttack}
			return
		}
	}
	e.voices = append(e.voices, voice{id: id, freq: freq, state: envAttack})
}

// NoteOff moves voice id into release. Unknown ids are ignored.
func (e *Engine) NoteOff(id int) {
	for i := range e.voices {
		v := &e.voices[i]
		if v.id == id && v.state != envRelease && v.state != envOff {
			v.state = envRelease
			v.t = 0
		}
	}
}

// SetParam applies a voice parameter, clamped to its range. It reports false for bus or
// unknown parameters.
func (e *Engine) SetParam(name param.Name, value float64) bool {
	r, ok := param.Lookup(name)
	if !ok || name.IsBus() {
		return false
	}
	value = r.Clamp(value)
	glide := e.params.GlideFrames
	switch name {
	case param.Cutoff:
		e.params.Cutoff = value
		e.cutoff.Target(value, glide)
	case param.FMDepth:
		e.params.FMDepth = value
		e.fmDepth.Target(value, glide)
	case param.Drive:
		e.params.Drive = value
		e.drive.Target(value, glide)
	case param.Gain:
		e.params.Gain = value
		e.gain.Target(value, glide)
	case param.Attack:
		e.params.Attack = value
	case param.Decay:
		e.params.Decay = value
	case param.Sustain:
		e.params.Sustain = value
	case param.Release:
		e.params.Release = value
	default:
		return false
	}
	return true
}

// Render produces the next mono sample and drops voices whose release has finished.
func (e *Engine) Render() float64 {
	cutoff := e.cutoff.Next()
	fm := e.fmDepth.Next()
	drive := e.drive.Next()
	gain := e.gain.Next()
	if len(e.voices) == 0 {
		return 0
	}
	tilt := math.Min(0.99, cutoff/e.params.MaxCutoff)
	shape := 1 + 10*drive
	step := twoPi / e.sampleRate
	fmStep := fm / e.sampleRate

	out := 0.0
	n := 0
	for i := range e.voices {
		v := &e.voices[i]
		env := e.envelope(v)
		if v.state == envOff {
			continue
		}
		s := (v.phase/math.Pi - 1) * env
		s = (1-tilt)*s + tilt*0.5*s
		out += math.Tanh(s * shape)

		// fmDepth bends the increment
		v.phase += v.freq*step + fmStep*math.Sin(v.phase)
		if v.phase >= twoPi || v.phase < 0 {
			v.phase = math.Mod(v.phase, twoPi)
			if v.phase < 0 {
				v.phase += twoPi
			}
		}
		v.t++
		e.voices[n] = *v
		n++
	}
	e.voices = e.voices[:n]
	return out * gain
}

// envelope returns the current level and advances stage transitions.
func (e *Engine) envelope(v *voice) float64 {
	p := &e.params
	t := float64(v.t) / e.sampleRate
	for {
		switch v.state {
		case envAttack:
			if t < p.Attack {
				return t / p.Attack
			}
			v.state = envDecay
			v.t = int(math.Round((t - p.Attack) * e.sampleRate))
			t = float64(v.t) / e.sampleRate
		case envDecay:
			if t < p.Decay {
				return 1 - (1-p.Sustain)*t/p.Decay
			}
			v.state = envSustain
			v.t = 0
			t = 0
		case envSustain:
			return p.Sustain
		case envRelease:
			env := p.Sustain * (1 - t/p.Release)
			if env <= 0 {
				v.state = envOff
				return 0
			}
			return env
		default:
			return 0
		}
	}
}

func (e *Engine) ActiveVoiceCount() int { return len(e.voices) }

// Reset drops every voice.
func (e *Engine) Reset() { e.voices = e.voices[:0] }
