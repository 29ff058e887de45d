// Package sequencer steps through a fixed one-bar pattern and emits trigger events.
package sequencer

import (
	"sync"

	"github.com/cbegin/reorch-go/internal/drum"
	"github.com/cbegin/reorch-go/internal/trigger"
)

// Sequencer is a scheduler producer. Step is called once per sixteenth note.
type Sequencer struct {
	mu      sync.Mutex
	pattern Pattern
	tones   drum.Kit
	sink    trigger.Sink
	step    int
}

func New(pattern Pattern, sink trigger.Sink) *Sequencer {
	if pattern.NoteLength <= 0 {
		pattern.NoteLength = DefaultPattern().NoteLength
	}
	return &Sequencer{pattern: pattern, sink: sink}
}

// SetTones sets per-instrument overrides attached to every hit.
func (s *Sequencer) SetTones(k drum.Kit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tones = k
}

// SetPattern swaps the pattern. The step counter is kept so the bar position is continuous.
func (s *Sequencer) SetPattern(p Pattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.NoteLength <= 0 {
		p.NoteLength = s.pattern.NoteLength
	}
	s.pattern = p
}

func (s *Sequencer) Pattern() Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pattern
}

// Step emits the events of the current step at time at and advances the counter.
func (s *Sequencer) Step(at, _ float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.step % Steps
	p := &s.pattern
	if p.Kick[i] {
		s.sink.Send(trigger.Hit(at, drum.Kick, s.tones.Kick))
	}
	if p.Snare[i] {
		s.sink.Send(trigger.Hit(at, drum.Snare, s.tones.Snare))
	}
	if p.Hat[i] {
		s.sink.Send(trigger.Hit(at, drum.Hat, s.tones.Hat))
	}
	if i%4 == 0 && len(p.Lead) > 0 {
		freq := p.Lead[(i/4)%len(p.Lead)]
		id := s.sink.NewVoices(1)
		s.sink.Send(trigger.On(at, id, freq))
		s.sink.Send(trigger.Off(at+p.NoteLength, id))
	}
	s.step++
}

// Position is the number of steps taken so far.
func (s *Sequencer) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Sequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = 0
}
