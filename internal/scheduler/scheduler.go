// Package scheduler dispatches producer steps slightly ahead of the audio clock so that
// events reach the render domain before they are due.
package scheduler

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/cbegin/reorch-go/internal/logging"
	"github.com/cbegin/reorch-go/internal/param"
)

type Config struct {
	// Lookahead is the polling interval.
	Lookahead time.Duration `yaml:"lookahead"`
	// ScheduleAhead is how far past the audio clock steps are dispatched.
	ScheduleAhead time.Duration `yaml:"scheduleAhead"`
}

func DefaultConfig() Config {
	return Config{Lookahead: 25 * time.Millisecond, ScheduleAhead: 100 * time.Millisecond}
}

// Producer emits the events of one sixteenth-note step starting at at (seconds on the
// audio clock). dur is the step length.
type Producer interface {
	Step(at, dur float64)
}

type ProducerFunc func(at, dur float64)

func (f ProducerFunc) Step(at, dur float64) { f(at, dur) }

// AudioClock reports the current output position in seconds.
type AudioClock interface {
	Now() float64
}

type elapsed struct {
	clk   clock.PassiveClock
	start time.Time
}

func (e elapsed) Now() float64 { return e.clk.Since(e.start).Seconds() }

// Elapsed is an AudioClock counting seconds since the call.
func Elapsed(clk clock.PassiveClock) AudioClock {
	return elapsed{clk: clk, start: clk.Now()}
}

type Scheduler struct {
	mu       sync.Mutex
	clock    clock.WithTicker
	audio    AudioClock
	cfg      Config
	tempo    float64
	next     float64
	producer Producer
	running  bool
	stop     chan struct{}
	done     chan struct{}
	log      *logrus.Entry
}

func New(clk clock.WithTicker, audio AudioClock, tempo float64, cfg Config) *Scheduler {
	d := DefaultConfig()
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = d.Lookahead
	}
	if cfg.ScheduleAhead <= 0 {
		cfg.ScheduleAhead = d.ScheduleAhead
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if audio == nil {
		audio = Elapsed(clk)
	}
	r, _ := param.Lookup(param.Tempo)
	if tempo <= 0 {
		tempo = r.Default
	}
	return &Scheduler{
		clock: clk,
		audio: audio,
		cfg:   cfg,
		tempo: r.Clamp(tempo),
		log:   logging.GetProjectLogger().WithField("component", "scheduler"),
	}
}

// Arm moves to running with p as the producer without starting the poll loop. The owner
// drives Poll itself, as offline rendering does. Arming while running swaps the producer
// and restarts the cursor at the current audio time.
func (s *Scheduler) Arm(p Producer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.producer = p
	s.next = s.audio.Now()
	s.running = true
}

// Start arms p, polls once and then keeps polling every Lookahead until Stop.
func (s *Scheduler) Start(p Producer) {
	s.mu.Lock()
	wasRunning := s.running
	s.producer = p
	s.next = s.audio.Now()
	s.running = true
	if s.stop == nil {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.loop(s.clock.NewTicker(s.cfg.Lookahead), s.stop, s.done)
	}
	s.log.WithFields(logrus.Fields{
		"tempo":     s.tempo,
		"at":        s.next,
		"restarted": wasRunning,
	}).Debug("scheduler started")
	s.mu.Unlock()
	s.Poll()
}

func (s *Scheduler) loop(ticker clock.Ticker, stop, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			s.Poll()
		}
	}
}

// Poll dispatches every step due before the audio clock plus ScheduleAhead and returns
// how many it dispatched.
func (s *Scheduler) Poll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.producer == nil {
		return 0
	}
	horizon := s.audio.Now() + s.cfg.ScheduleAhead.Seconds()
	n := 0
	for s.next < horizon {
		dur := s.stepDuration()
		s.producer.Step(s.next, dur)
		s.next += dur
		n++
	}
	return n
}

// Stop halts polling and waits for the poll loop to exit. Already dispatched events are
// left alone. Calling Stop when stopped does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running && s.stop == nil {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
	s.log.Debug("scheduler stopped")
}

// SetTempo changes the BPM used for subsequent steps, clamped to the tempo range.
func (s *Scheduler) SetTempo(bpm float64) float64 {
	r, _ := param.Lookup(param.Tempo)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tempo = r.Clamp(bpm)
	return s.tempo
}

func (s *Scheduler) Tempo() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempo
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextEventTime is the time of the next step to be dispatched.
func (s *Scheduler) NextEventTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

func (s *Scheduler) Config() Config { return s.cfg }

// StepDuration is the length of a sixteenth note at the current tempo.
func (s *Scheduler) StepDuration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepDuration()
}

func (s *Scheduler) stepDuration() float64 {
	return 60 / s.tempo / 4
}
