// Package effects holds the stereo processing stages applied after the voices are mixed.
package effects

// Effector processes one stereo frame. Implementations keep their own filter memory,
// which only Reset clears.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

// ProcessBlock runs the chain in place over interleaved stereo frames.
func (c *Chain) ProcessBlock(dst []float32) {
	if len(c.effects) == 0 {
		return
	}
	for i := 0; i+1 < len(dst); i += 2 {
		dst[i], dst[i+1] = c.Process(dst[i], dst[i+1])
	}
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

func (c *Chain) Len() int { return len(c.effects) }
