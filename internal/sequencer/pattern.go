package sequencer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const Steps = 16

type Lane [Steps]bool

// Pattern is one bar of sixteenth steps plus a melodic lane played on every beat.
type Pattern struct {
	Kick  Lane
	Snare Lane
	Hat   Lane
	// Lead holds frequencies in Hz. Beat b of the bar plays Lead[b % len(Lead)].
	Lead []float64
	// NoteLength is the time between a lead NoteOn and its NoteOff.
	NoteLength float64
}

func DefaultPattern() Pattern {
	p := Pattern{NoteLength: 0.2}
	for s := 0; s < Steps; s++ {
		p.Kick[s] = s%4 == 0
		p.Snare[s] = s%4 == 2
		p.Hat[s] = true
	}
	p.Lead = mustFreqs("C4", "E4", "G4", "B4")
	return p
}

func mustFreqs(names ...string) []float64 {
	out, err := ParseLead(names)
	if err != nil {
		panic(err)
	}
	return out
}

// ParseLane reads a step string such as "x...x...x...x...". 'x', 'X' and '1' mark a hit,
// '.', '-', '0' and '_' a rest. Spaces and '|' are ignored.
func ParseLane(s string) (Lane, error) {
	var lane Lane
	i := 0
	for _, r := range s {
		switch r {
		case ' ', '|':
			continue
		case 'x', 'X', '1':
			if i < Steps {
				lane[i] = true
			}
		case '.', '-', '0', '_':
		default:
			return Lane{}, fmt.Errorf("invalid step %q in lane %q", r, s)
		}
		i++
	}
	if i != Steps {
		return Lane{}, fmt.Errorf("lane %q has %d steps, want %d", s, i, Steps)
	}
	return lane, nil
}

func (l Lane) String() string {
	var b strings.Builder
	for _, on := range l {
		if on {
			b.WriteByte('x')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

var noteRegex = regexp.MustCompile(`^([A-Ga-g])([#b]?)(-?\d+)$`)

var semitones = map[byte]int{'C': -9, 'D': -7, 'E': -5, 'F': -4, 'G': -2, 'A': 0, 'B': 2}

// NoteFreq converts a note name like "C#4" or "Bb3" to Hz with A4 = 440.
func NoteFreq(name string) (float64, error) {
	m := noteRegex.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return 0, fmt.Errorf("invalid note %q", name)
	}
	semi := semitones[strings.ToUpper(m[1])[0]]
	switch m[2] {
	case "#":
		semi++
	case "b":
		semi--
	}
	octave, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, fmt.Errorf("invalid octave in %q: %w", name, err)
	}
	semi += (octave - 4) * 12
	return 440 * math.Pow(2, float64(semi)/12), nil
}

// ParseLead converts note names to frequencies.
func ParseLead(names []string) ([]float64, error) {
	out := make([]float64, 0, len(names))
	for _, n := range names {
		f, err := NoteFreq(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
