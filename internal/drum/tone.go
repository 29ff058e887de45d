// Package drum renders the percussive one-shots: kick, snare and hat.
package drum

import (
	"fmt"
	"strings"
)

type Kind int

const (
	Kick Kind = iota
	Snare
	Hat
)

func (k Kind) String() string {
	switch k {
	case Kick:
		return "kick"
	case Snare:
		return "snare"
	case Hat:
		return "hat"
	default:
		return fmt.Sprintf("drum(%d)", int(k))
	}
}

// ParseKind resolves an instrument name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kick", "bd":
		return Kick, nil
	case "snare", "sd":
		return Snare, nil
	case "hat", "hh", "hihat":
		return Hat, nil
	default:
		return 0, fmt.Errorf("unknown instrument %q (expected kick|snare|hat)", s)
	}
}

// Tone describes one hit. Kick uses PitchStart/PitchEnd; snare and hat use Freq/Q.
// A zero field means "use the kit value" when merged.
type Tone struct {
	PitchStart float64 `yaml:"pitchStart,omitempty"`
	PitchEnd   float64 `yaml:"pitchEnd,omitempty"`
	Duration   float64 `yaml:"duration,omitempty"`
	Freq       float64 `yaml:"freq,omitempty"`
	Q          float64 `yaml:"q,omitempty"`
	Gain       float64 `yaml:"gain,omitempty"`
}

// Merge overlays the non-zero fields of o on t.
func (t Tone) Merge(o Tone) Tone {
	if o.PitchStart > 0 {
		t.PitchStart = o.PitchStart
	}
	if o.PitchEnd > 0 {
		t.PitchEnd = o.PitchEnd
	}
	if o.Duration > 0 {
		t.Duration = o.Duration
	}
	if o.Freq > 0 {
		t.Freq = o.Freq
	}
	if o.Q > 0 {
		t.Q = o.Q
	}
	if o.Gain > 0 {
		t.Gain = o.Gain
	}
	return t
}

// Kit holds the timbre of every instrument.
type Kit struct {
	Kick  Tone `yaml:"kick"`
	Snare Tone `yaml:"snare"`
	Hat   Tone `yaml:"hat"`
}

func DefaultKit() Kit {
	return Kit{
		Kick:  Tone{PitchStart: 80, PitchEnd: 30, Duration: 0.2, Gain: 1},
		Snare: Tone{Duration: 0.15, Freq: 1800, Q: 1.5, Gain: 0.8},
		Hat:   Tone{Duration: 0.08, Freq: 8000, Q: 1, Gain: 0.4},
	}
}

// ModernKit is a tighter, brighter preset.
func ModernKit() Kit {
	return Kit{
		Kick:  Tone{PitchStart: 90, PitchEnd: 32, Duration: 0.22, Gain: 1},
		Snare: Tone{Duration: 0.14, Freq: 1900, Q: 1.6, Gain: 0.8},
		Hat:   Tone{Duration: 0.075, Freq: 9000, Q: 1, Gain: 0.42},
	}
}

// Tone returns the kit tone for k.
func (k Kit) Tone(kind Kind) Tone {
	switch kind {
	case Snare:
		return k.Snare
	case Hat:
		return k.Hat
	default:
		return k.Kick
	}
}

// WithDefaults fills zero fields from DefaultKit.
func (k Kit) WithDefaults() Kit {
	d := DefaultKit()
	return Kit{
		Kick:  d.Kick.Merge(k.Kick),
		Snare: d.Snare.Merge(k.Snare),
		Hat:   d.Hat.Merge(k.Hat),
	}
}
