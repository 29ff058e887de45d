// Package param names the runtime-adjustable parameters and their ranges.
package param

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

var ErrUnknown = errors.New("param: unknown parameter")

type Name string

const (
	Cutoff  Name = "cutoff"
	Attack  Name = "attack"
	Decay   Name = "decay"
	Sustain Name = "sustain"
	Release Name = "release"
	FMDepth Name = "fmDepth"
	Drive   Name = "drive"
	Gain    Name = "gain"

	BusInputGain  Name = "bus.inputGain"
	BusDrive      Name = "bus.drive"
	BusCeiling    Name = "bus.ceiling"
	BusOutputGain Name = "bus.outputGain"
	BusDCCoeff    Name = "bus.dcCoeff"

	Tempo Name = "tempo"
)

// Range is the accepted interval for a parameter along with its default.
type Range struct {
	Min     float64
	Max     float64
	Default float64
}

func (r Range) Clamp(v float64) float64 {
	return Clamp(v, r.Min, r.Max)
}

var ranges = map[Name]Range{
	Cutoff:  {Min: 100, Max: 12000, Default: 2000},
	Attack:  {Min: 0.001, Max: 2, Default: 0.01},
	Decay:   {Min: 0.001, Max: 3, Default: 0.15},
	Sustain: {Min: 0, Max: 1, Default: 0.6},
	Release: {Min: 0.001, Max: 4, Default: 0.25},
	FMDepth: {Min: 0, Max: 300, Default: 0},
	Drive:   {Min: 0, Max: 0.9, Default: 0},
	Gain:    {Min: 0, Max: 4, Default: 1},

	BusInputGain:  {Min: 0, Max: 4, Default: 1},
	BusDrive:      {Min: 0, Max: 1, Default: 0.1},
	BusCeiling:    {Min: 0.5, Max: 1, Default: 0.95},
	BusOutputGain: {Min: 0, Max: 4, Default: 1},
	BusDCCoeff:    {Min: 0.95, Max: 0.9999, Default: 0.995},

	Tempo: {Min: 20, Max: 300, Default: 120},
}

// Lookup returns the range for n.
func Lookup(n Name) (Range, bool) {
	r, ok := ranges[n]
	return r, ok
}

// Parse resolves a case-insensitive parameter name.
func Parse(s string) (Name, error) {
	s = strings.TrimSpace(s)
	for n := range ranges {
		if strings.EqualFold(string(n), s) {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknown, s)
}

// Normalize clamps v into the range of n.
func Normalize(n Name, v float64) (float64, error) {
	r, ok := ranges[n]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknown, n)
	}
	return r.Clamp(v), nil
}

// IsBus reports whether n is handled by the bus processor rather than the voices.
func (n Name) IsBus() bool {
	return strings.HasPrefix(string(n), "bus.")
}

// Names lists every parameter, sorted.
func Names() []Name {
	out := make([]Name, 0, len(ranges))
	for n := range ranges {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
