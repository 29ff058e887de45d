// Package render is the real-time side of the engine. A Renderer drains the message ring
// at the start of every block and applies each event at the sample nearest its time.
package render

import (
	"math"
	"sync/atomic"

	"github.com/cbegin/reorch-go/internal/drum"
	"github.com/cbegin/reorch-go/internal/effects"
	"github.com/cbegin/reorch-go/internal/msgq"
	"github.com/cbegin/reorch-go/internal/synth"
	"github.com/cbegin/reorch-go/internal/trigger"
)

type Params struct {
	QueueSize   int
	PendingSize int
	MasterGain  float64
	Voice       synth.Params
	Drums       drum.Params
	Bus         effects.BusParams
}

func DefaultParams() Params {
	return Params{
		QueueSize:   1024,
		PendingSize: 256,
		MasterGain:  0.9,
		Voice:       synth.DefaultParams(),
		Drums:       drum.DefaultParams(),
		Bus:         effects.DefaultBusParams(),
	}
}

type Renderer struct {
	sampleRate float64
	queue      *msgq.Ring[trigger.Event]
	pending    []trigger.Event
	// spill holds events pushed out of a full pending list by earlier ones. Every spilled
	// event is due no sooner than any pending event.
	spill      []trigger.Event
	mixer      *Mixer
	bus        *effects.Bus
	chain      *effects.Chain
	masterGain uint64
	frames     atomic.Int64
	ignored    atomic.Uint64
	sampleTap  func([]float32)
}

func New(sampleRate int, params Params) *Renderer {
	if params.QueueSize <= 0 {
		params.QueueSize = 1024
	}
	if params.PendingSize <= 0 {
		params.PendingSize = 256
	}
	bus := effects.NewBus(params.Bus)
	return &Renderer{
		sampleRate: float64(sampleRate),
		queue:      msgq.New[trigger.Event](params.QueueSize),
		pending:    make([]trigger.Event, 0, params.PendingSize),
		spill:      make([]trigger.Event, 0, params.PendingSize),
		mixer: NewMixer(
			synth.New(sampleRate, params.Voice),
			drum.New(sampleRate, params.Drums),
			bus,
		),
		bus:        bus,
		chain:      effects.NewChain(bus),
		masterGain: math.Float64bits(params.MasterGain),
	}
}

// Queue is the ring the control domain pushes into.
func (r *Renderer) Queue() *msgq.Ring[trigger.Event] { return r.queue }

// SetSampleTap installs a callback invoked with each rendered block on the render
// goroutine. Set it before rendering starts.
func (r *Renderer) SetSampleTap(tap func([]float32)) { r.sampleTap = tap }

// AddEffect appends a stage after the bus. Call before rendering starts.
func (r *Renderer) AddEffect(e effects.Effector) { r.chain.Add(e) }

// Process fills dst with interleaved stereo frames.
func (r *Renderer) Process(dst []float32) {
	r.drain()
	frame := r.frames.Load()
	gain := math.Float64frombits(atomic.LoadUint64(&r.masterGain))
	half := 0.5 / r.sampleRate
	for i := 0; i+1 < len(dst); i += 2 {
		now := float64(frame) / r.sampleRate
		r.applyDue(now + half)
		s := float32(r.mixer.Render())
		l, rr := r.chain.Process(s, s)
		dst[i] = l * float32(gain)
		dst[i+1] = rr * float32(gain)
		frame++
	}
	r.frames.Store(frame)
	if r.sampleTap != nil {
		r.sampleTap(dst)
	}
}

// drain moves queued events into the time-ordered pending list. When pending is full, a
// queued event due before the latest pending one takes its slot and the latest moves to
// the spill list. Otherwise the rest stay in the ring for a later block.
func (r *Renderer) drain() {
	for len(r.pending) < cap(r.pending) && len(r.spill) > 0 {
		r.pending = insertByTime(r.pending, r.spill[0])
		r.spill = append(r.spill[:0], r.spill[1:]...)
	}
	for {
		ev, ok := r.queue.Peek()
		if !ok {
			return
		}
		if len(r.pending) == cap(r.pending) {
			last := r.pending[len(r.pending)-1]
			if ev.Time >= last.Time || len(r.spill) == cap(r.spill) {
				return
			}
			r.pending = r.pending[:len(r.pending)-1]
			r.spill = insertByTime(r.spill, last)
		}
		r.queue.Pop()
		r.pending = insertByTime(r.pending, ev)
	}
}

// insertByTime keeps events with equal times in arrival order. The caller guarantees
// spare capacity.
func insertByTime(events []trigger.Event, ev trigger.Event) []trigger.Event {
	i := len(events)
	events = append(events, ev)
	for i > 0 && events[i-1].Time > ev.Time {
		events[i] = events[i-1]
		i--
	}
	events[i] = ev
	return events
}

func (r *Renderer) applyDue(before float64) {
	n := 0
	for n < len(r.pending) && r.pending[n].Time < before {
		if !r.mixer.Apply(r.pending[n]) {
			r.ignored.Add(1)
		}
		n++
	}
	if n > 0 {
		r.pending = append(r.pending[:0], r.pending[n:]...)
	}
}

// Now is the output position in seconds. Safe to call from any goroutine.
func (r *Renderer) Now() float64 {
	return float64(r.frames.Load()) / r.sampleRate
}

func (r *Renderer) Frames() int64 { return r.frames.Load() }

func (r *Renderer) SampleRate() int { return int(r.sampleRate) }

func (r *Renderer) SetMasterGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	atomic.StoreUint64(&r.masterGain, math.Float64bits(gain))
}

func (r *Renderer) MasterGain() float64 {
	return math.Float64frombits(atomic.LoadUint64(&r.masterGain))
}

// Ignored counts events the mixer could not apply.
func (r *Renderer) Ignored() uint64 { return r.ignored.Load() }

// Pending is the number of drained events waiting for their time, spilled ones included.
// Render domain only.
func (r *Renderer) Pending() int { return len(r.pending) + len(r.spill) }

// Mixer exposes the sources for inspection. Render domain only.
func (r *Renderer) Mixer() *Mixer { return r.mixer }

// Bus exposes the output stage. Render domain only.
func (r *Renderer) Bus() *effects.Bus { return r.bus }
