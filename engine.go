// Package reorch analyzes recorded audio for tempo, onsets and pitch and re-orchestrates
// it on a small real-time synthesizer: a polyphonic lead voice, three one-shot drums and
// an output bus. The same engine can instead play a sixteen-step pattern.
package reorch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/cbegin/reorch-go/internal/analysis"
	intaudio "github.com/cbegin/reorch-go/internal/audio"
	"github.com/cbegin/reorch-go/internal/drum"
	"github.com/cbegin/reorch-go/internal/logging"
	"github.com/cbegin/reorch-go/internal/mapper"
	"github.com/cbegin/reorch-go/internal/param"
	"github.com/cbegin/reorch-go/internal/render"
	"github.com/cbegin/reorch-go/internal/scheduler"
	"github.com/cbegin/reorch-go/internal/sequencer"
	"github.com/cbegin/reorch-go/internal/signal"
	"github.com/cbegin/reorch-go/internal/trigger"
)

var (
	ErrNoAnalysis = errors.New("no analysis loaded")
	ErrClosed     = errors.New("engine closed")
)

// Mode selects which producer feeds the scheduler.
type Mode int

const (
	ModePattern Mode = iota
	ModeAnalysis
)

func (m Mode) String() string {
	switch m {
	case ModePattern:
		return "pattern"
	case ModeAnalysis:
		return "analysis"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

type Option func(*engineConfig)

type engineConfig struct {
	cfg       Config
	sampleTap func([]float32)
	clock     clock.WithTicker
	log       *logrus.Entry
	offline   bool
}

func WithConfig(cfg Config) Option {
	return func(c *engineConfig) {
		c.cfg = cfg
	}
}

// WithSampleTap installs a callback invoked with each rendered stereo block.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) Option {
	return func(c *engineConfig) {
		c.sampleTap = tap
	}
}

// WithClock sets the clock driving the scheduler's poll loop.
func WithClock(clk clock.WithTicker) Option {
	return func(c *engineConfig) {
		c.clock = clk
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(c *engineConfig) {
		c.log = log
	}
}

// producerSink routes producer output to whichever ring sink belongs to the current run.
type producerSink struct {
	ids  *trigger.IDs
	sink atomic.Pointer[render.Sink]
}

func (s *producerSink) Send(ev trigger.Event) {
	if cur := s.sink.Load(); cur != nil {
		cur.Send(ev)
	}
}

func (s *producerSink) NewVoices(n int) int { return s.ids.NewVoices(n) }

type Engine struct {
	mu       sync.Mutex
	cfg      Config
	log      *logrus.Entry
	offline  bool
	closed   bool
	renderer *render.Renderer
	sched    *scheduler.Scheduler
	ids      trigger.IDs

	// live carries NoteOn/NoteOff/Trigger/SetParam for the lifetime of the engine.
	live       *render.Sink
	liveCancel context.CancelFunc
	// produced carries scheduler output; its context ends with each run.
	produced  producerSink
	runCancel context.CancelFunc

	mode   Mode
	seq    *sequencer.Sequencer
	player *mapper.Player
	result *analysis.Result
	output *intaudio.Player
}

func NewEngine(opts ...Option) (*Engine, error) {
	ec := engineConfig{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&ec)
	}
	cfg := ec.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pattern, err := cfg.Pattern.Build()
	if err != nil {
		return nil, err
	}
	log := ec.log
	if log == nil {
		log = logging.GetProjectLogger()
	}

	glide := cfg.glideFrames()
	rp := render.DefaultParams()
	rp.QueueSize = cfg.QueueSize
	rp.MasterGain = cfg.MasterGain
	rp.Voice = cfg.Voice
	if rp.Voice.GlideFrames == 0 {
		rp.Voice.GlideFrames = glide
	}
	rp.Drums.Kit = cfg.Kit.WithDefaults()
	rp.Bus = cfg.Bus
	if rp.Bus.GlideFrames == 0 {
		rp.Bus.GlideFrames = glide
	}
	r := render.New(cfg.SampleRate, rp)
	if ec.sampleTap != nil {
		r.SetSampleTap(ec.sampleTap)
	}

	e := &Engine{
		cfg:      cfg,
		log:      log,
		offline:  ec.offline,
		renderer: r,
		sched:    scheduler.New(ec.clock, r, cfg.Tempo, cfg.Scheduler),
	}
	e.produced.ids = &e.ids
	ctx, cancel := context.WithCancel(context.Background())
	e.liveCancel = cancel
	if e.offline {
		e.live = render.NewDroppingSink(r.Queue(), &e.ids)
	} else {
		e.live = render.NewSink(ctx, r.Queue(), &e.ids)
	}
	e.seq = sequencer.New(pattern, &e.produced)
	e.seq.SetTones(cfg.Mapper.Tones)
	log.WithFields(logrus.Fields{
		"sampleRate": cfg.SampleRate,
		"tempo":      e.sched.Tempo(),
		"preset":     cfg.Preset,
	}).Debug("engine created")
	return e, nil
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) SampleRate() int { return e.cfg.SampleRate }

// Analyze runs the analysis pipeline with the engine's analysis settings.
func (e *Engine) Analyze(ctx context.Context, buf signal.Buffer) (*analysis.Result, error) {
	res, err := analysis.Analyze(ctx, buf, e.cfg.Analysis)
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"bpm":     res.BPM,
		"onsets":  len(res.Onsets),
		"pitches": len(res.Pitches),
	}).Info("analysis complete")
	return res, nil
}

// UsePattern makes p the active producer. If the engine is running the swap happens
// between two scheduler polls.
func (e *Engine) UsePattern(p sequencer.Pattern) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq.SetPattern(p)
	e.mode = ModePattern
	if e.sched.Running() {
		e.sched.Start(e.seq)
	}
}

// UseAnalysis maps res into drum hits and lead notes, makes it the active producer and
// sets the tempo to the analyzed BPM.
func (e *Engine) UseAnalysis(res *analysis.Result) error {
	if res == nil {
		return ErrNoAnalysis
	}
	opts := e.cfg.Mapper
	opts.Origin = 0
	events := mapper.FromAnalysis(res, opts)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.result = res
	e.player = mapper.NewPlayer(events, &e.produced)
	e.mode = ModeAnalysis
	e.sched.SetTempo(float64(res.BPM))
	e.log.WithFields(logrus.Fields{
		"bpm":    res.BPM,
		"events": len(events),
	}).Info("analysis mapped")
	if e.sched.Running() {
		e.sched.Start(e.player)
	}
	return nil
}

func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Analysis is the result last passed to UseAnalysis, or nil.
func (e *Engine) Analysis() *analysis.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

func (e *Engine) producer() (scheduler.Producer, error) {
	if e.mode == ModeAnalysis {
		if e.player == nil {
			return nil, ErrNoAnalysis
		}
		return e.player, nil
	}
	return e.seq, nil
}

func (e *Engine) newRunSink() {
	if e.offline {
		e.produced.sink.Store(render.NewDroppingSink(e.renderer.Queue(), &e.ids))
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.runCancel = cancel
	e.produced.sink.Store(render.NewSink(ctx, e.renderer.Queue(), &e.ids))
}

// Start begins scheduling the active producer. Starting a running engine restarts the
// producer at the current output time.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	p, err := e.producer()
	if err != nil {
		return err
	}
	if e.runCancel == nil {
		e.newRunSink()
	}
	e.sched.Start(p)
	e.log.WithField("mode", e.mode).Info("engine started")
	return nil
}

// arm is Start without the poll goroutine. The caller drives Poll.
func (e *Engine) arm() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.producer()
	if err != nil {
		return err
	}
	e.newRunSink()
	e.sched.Arm(p)
	return nil
}

// Stop halts scheduling. Events already sent still play. Calling Stop when stopped does
// nothing.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	// a producer blocked on a full ring holds the scheduler lock, so release it first
	if e.runCancel != nil {
		e.runCancel()
		e.runCancel = nil
	}
	if e.sched.Running() {
		e.sched.Stop()
		e.log.Info("engine stopped")
	}
}

func (e *Engine) Running() bool { return e.sched.Running() }

// SetTempo changes the scheduler tempo, clamped to [20, 300] BPM, and returns the value
// in effect.
func (e *Engine) SetTempo(bpm float64) float64 { return e.sched.SetTempo(bpm) }

func (e *Engine) Tempo() float64 { return e.sched.Tempo() }

// NoteOn starts a lead voice at freq Hz now and returns its id.
func (e *Engine) NoteOn(freq float64) int {
	id := e.ids.NewVoices(1)
	e.live.Send(trigger.On(e.Now(), id, freq))
	return id
}

// NoteOff releases voice id. Unknown ids are ignored by the synthesizer.
func (e *Engine) NoteOff(id int) {
	e.live.Send(trigger.Off(e.Now(), id))
}

// Trigger plays a drum hit now. Non-zero fields of tone override the kit.
func (e *Engine) Trigger(instrument drum.Kind, tone drum.Tone) {
	e.live.Send(trigger.Hit(e.Now(), instrument, tone))
}

// SetParam schedules a parameter change at output time at; times in the past apply at
// the start of the next block. Values are clamped to the parameter's range. Tempo is
// applied to the scheduler immediately.
func (e *Engine) SetParam(name param.Name, value, at float64) error {
	v, err := param.Normalize(name, value)
	if err != nil {
		return err
	}
	if name == param.Tempo {
		e.sched.SetTempo(v)
		return nil
	}
	e.live.Send(trigger.Set(at, name, v))
	return nil
}

// SetMasterGain changes the gain applied after the bus.
func (e *Engine) SetMasterGain(gain float64) { e.renderer.SetMasterGain(gain) }

func (e *Engine) MasterGain() float64 { return e.renderer.MasterGain() }

// Process renders interleaved stereo frames into dst. It must only be called from one
// goroutine at a time, and not while Play is streaming.
func (e *Engine) Process(dst []float32) { e.renderer.Process(dst) }

// Now is the output position in seconds.
func (e *Engine) Now() float64 { return e.renderer.Now() }

// Dropped counts events discarded because the message ring was full or the run ended.
func (e *Engine) Dropped() uint64 {
	n := e.live.Dropped()
	if s := e.produced.sink.Load(); s != nil {
		n += s.Dropped()
	}
	return n
}

// Play starts scheduling if needed and streams the output to the audio device.
func (e *Engine) Play() error {
	if e.offline {
		return errors.New("offline engine cannot play")
	}
	if !e.Running() {
		if err := e.Start(); err != nil {
			return err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.output == nil {
		out, err := intaudio.NewPlayer(e.cfg.SampleRate, e.renderer)
		if err != nil {
			return err
		}
		e.output = out
	}
	e.output.Play()
	return nil
}

// Pause silences the device without stopping the scheduler. The output clock does not
// advance while paused, so no new steps fall due.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.output != nil {
		e.output.Pause()
	}
}

// Close stops the engine and releases the audio device. The engine cannot be restarted.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.stopLocked()
	e.liveCancel()
	e.renderer.Queue().Close()
	if e.output != nil {
		err := e.output.Close()
		e.output = nil
		return err
	}
	return nil
}
