package render

import (
	"context"
	"sync/atomic"

	"github.com/cbegin/reorch-go/internal/msgq"
	"github.com/cbegin/reorch-go/internal/trigger"
)

// Sink is the control-domain end of the message channel.
type Sink struct {
	ids      *trigger.IDs
	ring     *msgq.Ring[trigger.Event]
	ctx      context.Context
	blocking bool
	dropped  atomic.Uint64
}

// NewSink returns a sink that waits for space when the ring is full, until ctx ends.
func NewSink(ctx context.Context, ring *msgq.Ring[trigger.Event], ids *trigger.IDs) *Sink {
	return &Sink{ids: ids, ring: ring, ctx: ctx, blocking: true}
}

// NewDroppingSink returns a sink that discards events when the ring is full. It is meant
// for callers that also drive the render side and so cannot wait on it.
func NewDroppingSink(ring *msgq.Ring[trigger.Event], ids *trigger.IDs) *Sink {
	return &Sink{ids: ids, ring: ring, ctx: context.Background()}
}

func (s *Sink) Send(ev trigger.Event) {
	if s.blocking {
		if err := s.ring.Push(s.ctx, ev); err != nil {
			s.dropped.Add(1)
		}
		return
	}
	if !s.ring.TryPush(ev) {
		s.dropped.Add(1)
	}
}

func (s *Sink) NewVoices(n int) int { return s.ids.NewVoices(n) }

// Dropped counts events that never reached the ring.
func (s *Sink) Dropped() uint64 { return s.dropped.Load() }
