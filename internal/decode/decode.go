// Package decode turns audio files into signal buffers and writes rendered output back
// to WAV. It is the only place that knows about container formats.
package decode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
	"github.com/gruntwork-io/go-commons/errors"

	"github.com/cbegin/reorch-go/internal/signal"
)

// Meta describes the decoded file before it was reduced to mono.
type Meta struct {
	Path        string
	Format      string
	SampleRate  int
	NumChannels int
	Frames      int
}

func (m Meta) String() string {
	return fmt.Sprintf("%s (%s, %d Hz, %d ch, %d frames)", m.Path, m.Format, m.SampleRate, m.NumChannels, m.Frames)
}

// UnsupportedFormatError is returned for extensions no decoder handles.
type UnsupportedFormatError struct {
	Ext string
}

func (e UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported audio format %q (want .wav or .mp3)", e.Ext)
}

// Load decodes a .wav or .mp3 file into a normalized buffer built from its first channel.
func Load(path string) (signal.Buffer, Meta, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, err := os.Open(path)
	if err != nil {
		return signal.Buffer{}, Meta{}, errors.WithStackTrace(err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch ext {
	case ".wav", ".wave":
		stream, format, err = wav.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	default:
		f.Close()
		return signal.Buffer{}, Meta{}, errors.WithStackTrace(UnsupportedFormatError{Ext: ext})
	}
	if err != nil {
		f.Close()
		return signal.Buffer{}, Meta{}, errors.WithStackTrace(fmt.Errorf("decode %s: %w", path, err))
	}
	defer stream.Close()

	buf, frames, err := ReadStreamer(stream, int(format.SampleRate))
	if err != nil {
		return signal.Buffer{}, Meta{}, errors.WithStackTrace(fmt.Errorf("read %s: %w", path, err))
	}
	meta := Meta{
		Path:        path,
		Format:      strings.TrimPrefix(ext, "."),
		SampleRate:  int(format.SampleRate),
		NumChannels: format.NumChannels,
		Frames:      frames,
	}
	return buf, meta, nil
}

// ReadStreamer drains s and keeps the left channel. beep duplicates mono sources into
// both channels, so the left channel is channel 0 either way.
func ReadStreamer(s beep.Streamer, sampleRate int) (signal.Buffer, int, error) {
	var mono []float64
	block := make([][2]float64, 4096)
	for {
		n, ok := s.Stream(block)
		for _, frame := range block[:n] {
			mono = append(mono, frame[0])
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return signal.Buffer{}, 0, err
	}
	buf, err := signal.New(mono, sampleRate)
	if err != nil {
		return signal.Buffer{}, 0, err
	}
	return buf, len(mono), nil
}

// WriteWAV encodes interleaved stereo float frames as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, interleaved []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return errors.WithStackTrace(signal.ErrSampleRate)
	}
	pos := 0
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n := 0
		for n < len(samples) && pos+1 < len(interleaved) {
			samples[n][0] = clip(interleaved[pos])
			samples[n][1] = clip(interleaved[pos+1])
			pos += 2
			n++
		}
		return n, n > 0
	})
	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 2,
		Precision:   2,
	}
	if err := wav.Encode(w, src, format); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}

// WriteWAVFile creates path and writes the frames to it.
func WriteWAVFile(path string, interleaved []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStackTrace(err)
	}
	if err := WriteWAV(f, interleaved, sampleRate); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}

func clip(s float32) float64 {
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return float64(s)
}
