// Package mapper turns an analysis result into drum hits and lead notes.
package mapper

import (
	"math"

	"golang.org/x/exp/slices"

	"github.com/cbegin/reorch-go/internal/analysis"
	"github.com/cbegin/reorch-go/internal/drum"
	"github.com/cbegin/reorch-go/internal/trigger"
)

type Options struct {
	// Origin is added to every onset time.
	Origin float64 `yaml:"-"`
	// NoteLength is the time between a lead NoteOn and its NoteOff.
	NoteLength float64 `yaml:"noteLength"`
	// Kit overrides per instrument. Zero fields keep the engine kit.
	Tones drum.Kit `yaml:"tones"`
}

func DefaultOptions() Options {
	return Options{NoteLength: 0.18}
}

// Classify picks the instrument for an onset from its position in a four-beat bar.
func Classify(t, secondsPerBeat float64) drum.Kind {
	pos := math.Mod(t/secondsPerBeat, 4)
	if pos < 0 {
		pos += 4
	}
	switch {
	case pos < 0.25:
		return drum.Kick
	case pos > 1.9 && pos < 2.1:
		return drum.Snare
	default:
		return drum.Hat
	}
}

// Nearest returns the pitch closest in time to t. Ties keep the earliest in the slice.
func Nearest(pitches []analysis.Pitch, t float64) (analysis.Pitch, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, p := range pitches {
		if d := math.Abs(p.Time - t); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || pitches[best].F0 <= 0 {
		return analysis.Pitch{}, false
	}
	return pitches[best], true
}

// FromAnalysis maps every onset to a percussive event and, when a pitch is available, a
// lead note. Events are grouped per onset in onset order; voice ids are local to the
// returned slice and start at 1.
func FromAnalysis(res *analysis.Result, opts Options) []trigger.Event {
	if res == nil || len(res.Onsets) == 0 {
		return nil
	}
	if opts.NoteLength <= 0 {
		opts.NoteLength = DefaultOptions().NoteLength
	}
	spb := res.SecondsPerBeat()
	out := make([]trigger.Event, 0, len(res.Onsets)*3)
	voice := 0
	for _, o := range res.Onsets {
		at := opts.Origin + o.Time
		kind := Classify(o.Time, spb)
		out = append(out, trigger.Hit(at, kind, opts.Tones.Tone(kind)))
		if p, ok := Nearest(res.Pitches, o.Time); ok {
			voice++
			out = append(out,
				trigger.On(at, voice, p.F0),
				trigger.Off(at+opts.NoteLength, voice),
			)
		}
	}
	return out
}

// SortByTime orders events by time, keeping the relative order of simultaneous events.
func SortByTime(events []trigger.Event) {
	slices.SortStableFunc(events, func(a, b trigger.Event) bool { return a.Time < b.Time })
}
