package render

import (
	"github.com/cbegin/reorch-go/internal/drum"
	"github.com/cbegin/reorch-go/internal/effects"
	"github.com/cbegin/reorch-go/internal/synth"
	"github.com/cbegin/reorch-go/internal/trigger"
)

// Mixer routes trigger events to the voice synthesizer, the drum engine or the bus and
// sums the two sources into one mono sample.
type Mixer struct {
	voices *synth.Engine
	drums  *drum.Engine
	bus    *effects.Bus
}

func NewMixer(voices *synth.Engine, drums *drum.Engine, bus *effects.Bus) *Mixer {
	return &Mixer{voices: voices, drums: drums, bus: bus}
}

// Apply executes ev immediately. It reports false for events nothing could handle.
func (m *Mixer) Apply(ev trigger.Event) bool {
	switch ev.Kind {
	case trigger.Percussive:
		m.drums.Trigger(ev.Instrument, ev.Tone)
	case trigger.NoteOn:
		m.voices.NoteOn(ev.Voice, ev.Freq)
	case trigger.NoteOff:
		m.voices.NoteOff(ev.Voice)
	case trigger.Param:
		if ev.Param.IsBus() {
			if m.bus == nil {
				return false
			}
			return m.bus.SetParam(ev.Param, ev.Value)
		}
		return m.voices.SetParam(ev.Param, ev.Value)
	default:
		return false
	}
	return true
}

func (m *Mixer) Render() float64 {
	return m.voices.Render() + m.drums.Render()
}

func (m *Mixer) Voices() *synth.Engine { return m.voices }

func (m *Mixer) Drums() *drum.Engine { return m.drums }

// ActiveVoiceCount counts sounding lead voices and drum hits.
func (m *Mixer) ActiveVoiceCount() int {
	return m.voices.ActiveVoiceCount() + m.drums.ActiveCount()
}

// Reset silences both sources.
func (m *Mixer) Reset() {
	m.voices.Reset()
	m.drums.Reset()
}
