package param

import "github.com/fogleman/ease"

// Smoother glides a value towards a target over a fixed number of samples.
// It is owned by the render domain.
type Smoother struct {
	from  float64
	to    float64
	cur   float64
	pos   int
	steps int
	curve ease.Function
}

func NewSmoother(v float64) Smoother {
	return Smoother{from: v, to: v, cur: v, curve: ease.InOutQuad}
}

// Target starts a glide from the current value. steps <= 0 jumps immediately.
func (s *Smoother) Target(v float64, steps int) {
	if steps <= 0 {
		s.from, s.to, s.cur = v, v, v
		s.pos, s.steps = 0, 0
		return
	}
	s.from = s.cur
	s.to = v
	s.pos = 0
	s.steps = steps
}

// Next advances one sample and returns the new value.
func (s *Smoother) Next() float64 {
	if s.pos >= s.steps {
		s.cur = s.to
		return s.cur
	}
	s.pos++
	curve := s.curve
	if curve == nil {
		curve = ease.Linear
	}
	t := curve(float64(s.pos) / float64(s.steps))
	s.cur = s.from + (s.to-s.from)*t
	return s.cur
}

func (s *Smoother) Value() float64 { return s.cur }

func (s *Smoother) Settled() bool { return s.pos >= s.steps }
