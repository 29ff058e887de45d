package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"

	"github.com/cbegin/reorch-go"
	"github.com/cbegin/reorch-go/internal/analysis"
	"github.com/cbegin/reorch-go/internal/decode"
	"github.com/cbegin/reorch-go/internal/logging"
)

func main() {
	var (
		inPath     = flag.String("in", "", "audio file to analyze (.wav or .mp3); without it the step pattern plays")
		configPath = flag.String("config", "", "YAML config file")
		preset     = flag.String("preset", "", "timbre preset: default|modern (ignored with -config)")
		sampleRate = flag.Int("sample-rate", 0, "output sample rate (0 = config value)")
		tempo      = flag.Float64("tempo", 0, "pattern tempo in BPM (0 = config value)")
		seconds    = flag.Float64("seconds", 0, "render or play length; 0 renders the analyzed length or 20s, and plays until interrupted")
		outPath    = flag.String("out", "", "render offline to this WAV file instead of playing")
		kick       = flag.String("kick", "", "kick lane, e.g. x...x...x...x...")
		snare      = flag.String("snare", "", "snare lane")
		hat        = flag.String("hat", "", "hat lane")
		lead       = flag.String("lead", "", "comma separated lead notes, e.g. C4,E4,G4,B4")
		logLevel   = flag.String("log-level", "", "debug|info|warn|error")
		quiet      = flag.Bool("quiet", false, "do not print the onset strip")
	)
	flag.Parse()

	if *logLevel != "" && !logging.SetLevel(*logLevel) {
		log.Fatalf("unknown log level %q", *logLevel)
	}

	cfg, err := loadConfig(*configPath, *preset)
	if err != nil {
		fatal(err)
	}
	if *sampleRate > 0 {
		cfg.SampleRate = *sampleRate
	}
	if *tempo > 0 {
		cfg.Tempo = *tempo
	}
	applyPatternFlags(&cfg.Pattern, *kick, *snare, *hat, *lead)

	engine, err := reorch.NewEngine(reorch.WithConfig(cfg))
	if err != nil {
		fatal(err)
	}
	defer engine.Close()

	var res *analysis.Result
	if *inPath != "" {
		buf, meta, err := decode.Load(*inPath)
		if err != nil {
			fatal(err)
		}
		fmt.Println(meta)
		res, err = engine.Analyze(context.Background(), buf)
		if err != nil {
			fatal(err)
		}
		fmt.Println(res)
		if !*quiet {
			printOnsetStrip(res)
		}
	}

	if *outPath != "" {
		if err := renderToFile(*outPath, cfg, res, *seconds); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote %s\n", *outPath)
		return
	}

	if res != nil {
		if err := engine.UseAnalysis(res); err != nil {
			fatal(err)
		}
	}
	if err := engine.Play(); err != nil {
		fatal(err)
	}
	fmt.Printf("playing %s at %.0f BPM, Ctrl+C to stop\n", engine.Mode(), engine.Tempo())

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *seconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*seconds*float64(time.Second)))
		defer cancel()
	}
	<-ctx.Done()
	engine.Stop()
	// let already scheduled notes ring out
	time.Sleep(300 * time.Millisecond)
}

func loadConfig(path, preset string) (reorch.Config, error) {
	if path != "" {
		return reorch.LoadConfig(path)
	}
	return reorch.PresetConfig(preset)
}

func applyPatternFlags(p *reorch.PatternConfig, kick, snare, hat, lead string) {
	if kick != "" {
		p.Kick = kick
	}
	if snare != "" {
		p.Snare = snare
	}
	if hat != "" {
		p.Hat = hat
	}
	if lead != "" {
		p.Lead = nil
		for _, n := range strings.Split(lead, ",") {
			if n = strings.TrimSpace(n); n != "" {
				p.Lead = append(p.Lead, n)
			}
		}
	}
}

func renderToFile(path string, cfg reorch.Config, res *analysis.Result, seconds float64) error {
	var (
		out []float32
		err error
	)
	if res != nil {
		out, err = reorch.RenderAnalysis(res, seconds, reorch.WithConfig(cfg))
	} else {
		pattern, perr := cfg.Pattern.Build()
		if perr != nil {
			return perr
		}
		out, err = reorch.RenderPattern(pattern, seconds, reorch.WithConfig(cfg))
	}
	if err != nil {
		return err
	}
	return decode.WriteWAVFile(path, out, cfg.SampleRate)
}

// printOnsetStrip prints one colored cell per onset: hue follows the spectral centroid
// from red (dark) to blue (bright), brightness follows energy.
func printOnsetStrip(res *analysis.Result) {
	if len(res.Onsets) == 0 {
		fmt.Println("no onsets")
		return
	}
	maxEnergy := 0.0
	for _, o := range res.Onsets {
		maxEnergy = math.Max(maxEnergy, o.Energy)
	}
	var b strings.Builder
	for i, o := range res.Onsets {
		hue := 240 * math.Min(o.Centroid/8000, 1)
		value := 0.35
		if maxEnergy > 0 {
			value += 0.65 * o.Energy / maxEnergy
		}
		r, g, bl := colorful.Hsv(hue, 0.85, value).RGB255()
		fmt.Fprintf(&b, "\x1b[48;2;%d;%d;%dm \x1b[0m", r, g, bl)
		if (i+1)%64 == 0 {
			b.WriteByte('\n')
		}
	}
	fmt.Println(b.String())
}

func fatal(err error) {
	if logging.GetProjectLogger().Logger.IsLevelEnabled(logrus.DebugLevel) {
		log.Fatal(errors.PrintErrorWithStackTrace(err))
	}
	log.Fatal(err)
}
