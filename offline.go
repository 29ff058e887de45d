package reorch

import (
	"github.com/cbegin/reorch-go/internal/analysis"
	"github.com/cbegin/reorch-go/internal/sequencer"
)

const (
	// DefaultRenderSeconds is the length of an offline pattern render when none is given.
	DefaultRenderSeconds = 20.0
	renderBlockFrames    = 512
)

func offline(opts []Option) []Option {
	return append(append([]Option(nil), opts...), func(c *engineConfig) {
		c.offline = true
	})
}

// RenderPattern renders p for the given duration and returns interleaved stereo frames.
func RenderPattern(p sequencer.Pattern, seconds float64, opts ...Option) ([]float32, error) {
	e, err := NewEngine(offline(opts)...)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	e.UsePattern(p)
	if seconds <= 0 {
		seconds = DefaultRenderSeconds
	}
	return e.renderOffline(seconds)
}

// RenderAnalysis re-orchestrates res offline at the analyzed tempo. A non-positive
// duration renders the length of the analyzed signal, or DefaultRenderSeconds when that is
// unknown.
func RenderAnalysis(res *analysis.Result, seconds float64, opts ...Option) ([]float32, error) {
	e, err := NewEngine(offline(opts)...)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	if err := e.UseAnalysis(res); err != nil {
		return nil, err
	}
	if seconds <= 0 {
		seconds = res.Duration
	}
	if seconds <= 0 {
		seconds = DefaultRenderSeconds
	}
	return e.renderOffline(seconds)
}

// renderOffline drives the scheduler and the renderer from one goroutine: a poll, then one
// block, until the duration is covered.
func (e *Engine) renderOffline(seconds float64) ([]float32, error) {
	if err := e.arm(); err != nil {
		return nil, err
	}
	frames := int(float64(e.cfg.SampleRate) * seconds)
	out := make([]float32, frames*2)
	for pos := 0; pos < frames; pos += renderBlockFrames {
		end := pos + renderBlockFrames
		if end > frames {
			end = frames
		}
		e.sched.Poll()
		e.Process(out[pos*2 : end*2])
	}
	if n := e.Dropped(); n > 0 {
		e.log.WithField("dropped", n).Warn("offline render dropped events")
	}
	return out, nil
}
