package reorch

import (
	"fmt"
	"os"
	"strings"

	"github.com/gruntwork-io/go-commons/errors"
	"gopkg.in/yaml.v3"

	"github.com/cbegin/reorch-go/internal/analysis"
	"github.com/cbegin/reorch-go/internal/drum"
	"github.com/cbegin/reorch-go/internal/effects"
	"github.com/cbegin/reorch-go/internal/mapper"
	"github.com/cbegin/reorch-go/internal/param"
	"github.com/cbegin/reorch-go/internal/scheduler"
	"github.com/cbegin/reorch-go/internal/sequencer"
	"github.com/cbegin/reorch-go/internal/synth"
)

const (
	PresetDefault = "default"
	PresetModern  = "modern"
)

// PatternConfig is the textual form of a step pattern: lanes like "x...x...x...x..." and
// lead note names like "C#4".
type PatternConfig struct {
	Kick       string   `yaml:"kick"`
	Snare      string   `yaml:"snare"`
	Hat        string   `yaml:"hat"`
	Lead       []string `yaml:"lead"`
	NoteLength float64  `yaml:"noteLength"`
}

// Build parses the lanes and note names.
func (p PatternConfig) Build() (sequencer.Pattern, error) {
	var (
		out sequencer.Pattern
		err error
	)
	if out.Kick, err = sequencer.ParseLane(p.Kick); err != nil {
		return sequencer.Pattern{}, fmt.Errorf("kick: %w", err)
	}
	if out.Snare, err = sequencer.ParseLane(p.Snare); err != nil {
		return sequencer.Pattern{}, fmt.Errorf("snare: %w", err)
	}
	if out.Hat, err = sequencer.ParseLane(p.Hat); err != nil {
		return sequencer.Pattern{}, fmt.Errorf("hat: %w", err)
	}
	if out.Lead, err = sequencer.ParseLead(p.Lead); err != nil {
		return sequencer.Pattern{}, fmt.Errorf("lead: %w", err)
	}
	out.NoteLength = p.NoteLength
	return out, nil
}

// DefaultPatternConfig is the textual form of sequencer.DefaultPattern.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		Kick:       "x...x...x...x...",
		Snare:      "..x...x...x...x.",
		Hat:        "xxxxxxxxxxxxxxxx",
		Lead:       []string{"C4", "E4", "G4", "B4"},
		NoteLength: 0.2,
	}
}

type Config struct {
	Preset     string  `yaml:"preset"`
	SampleRate int     `yaml:"sampleRate"`
	Tempo      float64 `yaml:"tempo"`
	MasterGain float64 `yaml:"masterGain"`
	QueueSize  int     `yaml:"queueSize"`
	// GlideMs is how long live parameter changes take to settle.
	GlideMs float64 `yaml:"glideMs"`

	Analysis  analysis.Config   `yaml:"analysis"`
	Voice     synth.Params      `yaml:"voice"`
	Kit       drum.Kit          `yaml:"kit"`
	Bus       effects.BusParams `yaml:"bus"`
	Scheduler scheduler.Config  `yaml:"scheduler"`
	Mapper    mapper.Options    `yaml:"mapper"`
	Pattern   PatternConfig     `yaml:"pattern"`
}

func DefaultConfig() Config {
	tempo, _ := param.Lookup(param.Tempo)
	return Config{
		Preset:     PresetDefault,
		SampleRate: 48000,
		Tempo:      tempo.Default,
		MasterGain: 0.9,
		QueueSize:  1024,
		GlideMs:    5,
		Analysis:   analysis.DefaultConfig(),
		Voice:      synth.DefaultParams(),
		Kit:        drum.DefaultKit(),
		Bus:        effects.DefaultBusParams(),
		Scheduler:  scheduler.DefaultConfig(),
		Mapper:     mapper.DefaultOptions(),
		Pattern:    DefaultPatternConfig(),
	}
}

// ModernConfig is DefaultConfig with the brighter voice and the tighter kit.
func ModernConfig() Config {
	c := DefaultConfig()
	c.Preset = PresetModern
	c.Voice = synth.ModernParams()
	c.Kit = drum.ModernKit()
	return c
}

// PresetConfig returns the named preset.
func PresetConfig(name string) (Config, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetDefault:
		return DefaultConfig(), nil
	case PresetModern:
		return ModernConfig(), nil
	default:
		return Config{}, fmt.Errorf("unknown preset %q (expected %s|%s)", name, PresetDefault, PresetModern)
	}
}

// LoadConfig reads a YAML file over the preset it names. Keys missing from the file keep
// the preset values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.WithStackTrace(err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (Config, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Config{}, errors.WithStackTrace(err)
	}
	cfg, err := PresetConfig(head.Preset)
	if err != nil {
		return Config{}, errors.WithStackTrace(err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.WithStackTrace(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with. Out-of-range parameter values are
// not errors; they are clamped when applied.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.WithStackTrace(fmt.Errorf("sampleRate must be positive, got %d", c.SampleRate))
	}
	if c.QueueSize <= 0 {
		return errors.WithStackTrace(fmt.Errorf("queueSize must be positive, got %d", c.QueueSize))
	}
	if c.Scheduler.Lookahead <= 0 || c.Scheduler.ScheduleAhead <= 0 {
		return errors.WithStackTrace(fmt.Errorf("scheduler intervals must be positive"))
	}
	if c.GlideMs < 0 {
		return errors.WithStackTrace(fmt.Errorf("glideMs must not be negative"))
	}
	if _, err := c.Pattern.Build(); err != nil {
		return errors.WithStackTrace(fmt.Errorf("pattern: %w", err))
	}
	return nil
}

func (c Config) glideFrames() int {
	return int(c.GlideMs * float64(c.SampleRate) / 1000)
}
