package mapper

import "github.com/cbegin/reorch-go/internal/trigger"

// Player feeds a mapped event list to a sink one scheduler step at a time, so an analysis
// plays through the same lookahead path as the step pattern. A NoteOff is sent together
// with its NoteOn, so a stop or a producer swap never leaves a voice sounding.
type Player struct {
	events []trigger.Event
	// offs maps a voice to the NoteOff that releases it
	offs   map[int]trigger.Event
	voices int
	sink   trigger.Sink

	started bool
	origin  float64
	base    int
	next    int
}

// NewPlayer takes events produced by FromAnalysis with a zero origin.
func NewPlayer(events []trigger.Event, sink trigger.Sink) *Player {
	sorted := make([]trigger.Event, 0, len(events))
	offs := map[int]trigger.Event{}
	voices := 0
	for _, ev := range events {
		if ev.Voice > voices {
			voices = ev.Voice
		}
		if ev.Kind == trigger.NoteOff {
			offs[ev.Voice] = ev
			continue
		}
		sorted = append(sorted, ev)
	}
	SortByTime(sorted)
	return &Player{events: sorted, offs: offs, voices: voices, sink: sink}
}

// Step emits every event due before at+dur. The first call anchors the sequence at at.
func (p *Player) Step(at, dur float64) {
	if !p.started {
		p.started = true
		p.origin = at
		if p.voices > 0 {
			p.base = p.sink.NewVoices(p.voices) - 1
		}
	}
	end := at + dur
	for p.next < len(p.events) {
		ev := p.events[p.next]
		ev.Time += p.origin
		if ev.Time >= end {
			return
		}
		p.next++
		if ev.Kind != trigger.NoteOn {
			p.sink.Send(ev)
			continue
		}
		off, ok := p.offs[ev.Voice]
		ev.Voice += p.base
		p.sink.Send(ev)
		if ok {
			off.Time += p.origin
			off.Voice = ev.Voice
			p.sink.Send(off)
		}
	}
}

// Done reports whether every event has been emitted.
func (p *Player) Done() bool { return p.next >= len(p.events) }

// Len is the number of events one pass sends.
func (p *Player) Len() int { return len(p.events) + len(p.offs) }

// Rewind makes the next Step start the sequence again with fresh voice ids.
func (p *Player) Rewind() {
	p.started = false
	p.next = 0
}
