// Package trigger defines the messages that travel from the control domain to the
// render domain.
package trigger

import (
	"fmt"
	"sync/atomic"

	"github.com/cbegin/reorch-go/internal/drum"
	"github.com/cbegin/reorch-go/internal/param"
)

type Kind int

const (
	Percussive Kind = iota
	NoteOn
	NoteOff
	Param
)

func (k Kind) String() string {
	switch k {
	case Percussive:
		return "percussive"
	case NoteOn:
		return "note-on"
	case NoteOff:
		return "note-off"
	case Param:
		return "param"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is a timed instruction. Time is in seconds on the output clock.
// Only the fields of its Kind are meaningful.
type Event struct {
	Kind       Kind
	Time       float64
	Instrument drum.Kind
	Tone       drum.Tone
	Voice      int
	Freq       float64
	Param      param.Name
	Value      float64
}

func Hit(at float64, instrument drum.Kind, tone drum.Tone) Event {
	return Event{Kind: Percussive, Time: at, Instrument: instrument, Tone: tone}
}

func On(at float64, voice int, freq float64) Event {
	return Event{Kind: NoteOn, Time: at, Voice: voice, Freq: freq}
}

func Off(at float64, voice int) Event {
	return Event{Kind: NoteOff, Time: at, Voice: voice}
}

func Set(at float64, name param.Name, value float64) Event {
	return Event{Kind: Param, Time: at, Param: name, Value: value}
}

func (e Event) String() string {
	switch e.Kind {
	case Percussive:
		return fmt.Sprintf("%.3f %s", e.Time, e.Instrument)
	case NoteOn:
		return fmt.Sprintf("%.3f on #%d %.2fHz", e.Time, e.Voice, e.Freq)
	case NoteOff:
		return fmt.Sprintf("%.3f off #%d", e.Time, e.Voice)
	case Param:
		return fmt.Sprintf("%.3f %s=%g", e.Time, e.Param, e.Value)
	}
	return e.Kind.String()
}

// Sink accepts events from producers running in the control domain.
type Sink interface {
	Send(Event)
	// NewVoices reserves n consecutive voice ids and returns the first.
	NewVoices(n int) int
}

// IDs hands out voice ids starting at 1.
type IDs struct {
	last atomic.Int64
}

func (ids *IDs) NewVoices(n int) int {
	if n < 1 {
		n = 1
	}
	return int(ids.last.Add(int64(n))) - n + 1
}

// Recorder is a Sink that keeps every event. Useful for tests and offline inspection.
type Recorder struct {
	IDs
	Events []Event
}

func (r *Recorder) Send(ev Event) { r.Events = append(r.Events, ev) }

// SinkFunc adapts a function and an id source to Sink.
type SinkFunc struct {
	IDs
	Fn func(Event)
}

func (s *SinkFunc) Send(ev Event) { s.Fn(ev) }
