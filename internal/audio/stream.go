// Package audio connects a render callback to the system output through ebiten's audio
// context. The device pulls float32 little-endian stereo frames from a StreamReader,
// which fills them by calling the source's Process.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// MaxBlockFrames caps how many frames one Process call renders, so a large device read
// is served as several render blocks.
const MaxBlockFrames = 1024

type SampleSource interface {
	Process(dst []float32)
}

type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	block  []float32
	frames int64
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source, block: make([]float32, MaxBlockFrames*2)}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	n := 0
	for done := 0; done < frames; {
		chunk := frames - done
		if chunk > MaxBlockFrames {
			chunk = MaxBlockFrames
		}
		buf := r.block[:chunk*2]
		r.source.Process(buf)
		for _, s := range buf {
			binary.LittleEndian.PutUint32(p[n:], math.Float32bits(s))
			n += 4
		}
		done += chunk
	}
	r.frames += int64(frames)
	return n, nil
}

// Frames is how many frames the device has pulled so far.
func (r *StreamReader) Frames() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *StreamReader) Close() error { return nil }

type Player struct {
	player *ebitaudio.Player
	reader *StreamReader
}

var (
	contextOnce       sync.Once
	sharedContext     *ebitaudio.Context
	contextSampleRate int
)

// outputContext returns the process-wide audio context. ebiten allows only one, so every
// player must share its sample rate.
func outputContext(sampleRate int) (*ebitaudio.Context, error) {
	contextOnce.Do(func() {
		contextSampleRate = sampleRate
		sharedContext = ebitaudio.NewContext(sampleRate)
	})
	if contextSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already running at %d Hz (requested %d Hz)", contextSampleRate, sampleRate)
	}
	return sharedContext, nil
}

func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	ctx, err := outputContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	// keep device latency in the same range as the scheduler's lookahead
	pl.SetBufferSize(50 * time.Millisecond)
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

// Position is what the listener hears right now.
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

// Close stops output and releases the device player.
func (p *Player) Close() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
