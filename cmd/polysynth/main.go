package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/cbegin/polysynth-go"
	"github.com/cbegin/polysynth-go/internal/analyzer"
	"github.com/cbegin/polysynth-go/internal/patch"
)

const (
	windowW = 900
	windowH = 560
	fftSize = 2048
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", polysynth.DefaultSampleRate, "output sample rate")
		block      = flag.Int("block", polysynth.DefaultBlockSize, "frames per engine tick")
		patchName  = flag.String("patch", patch.DefaultName, "voice preset: "+strings.Join(patch.Names(), "|"))
		octave     = flag.Int("octave", polysynth.DefaultOctave, "starting octave (0..9)")
		filterOn   = flag.Bool("filter", false, "start with the low-pass enabled")
		cutoff     = flag.Float64("cutoff", polysynth.DefaultCutoff, "low-pass cutoff in Hz")
		order      = flag.Int("order", polysynth.DefaultFilterOrder, "low-pass order")
		fx         = flag.String("effects", "", `master effects, e.g. "delay 250,0.4; dist 4,0.5"`)
		buffer     = flag.Duration("buffer", 40*time.Millisecond, "audio buffer length")
		list       = flag.Bool("list", false, "print the presets and exit")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *list {
		for _, name := range patch.Names() {
			p, _ := patch.Lookup(name)
			fmt.Print(p)
		}
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	p, ok := patch.Lookup(*patchName)
	if !ok {
		log.Fatalf("unknown -patch %q (expected %s)", *patchName, strings.Join(patch.Names(), "|"))
	}
	channels := p.Channels()
	scope, err := analyzer.New(*sampleRate, channels, fftSize)
	if err != nil {
		log.Fatal(err)
	}
	synth, err := polysynth.New(
		polysynth.WithSampleRate(*sampleRate),
		polysynth.WithBlockSize(*block),
		polysynth.WithPatch(p),
		polysynth.WithOctave(*octave),
		polysynth.WithFilter(*filterOn),
		polysynth.WithCutoff(*cutoff),
		polysynth.WithFilterOrder(*order),
		polysynth.WithEffects(*fx),
		polysynth.WithAudioBuffer(*buffer),
		polysynth.WithLogger(logger),
		polysynth.WithSampleTap(scope.Tap),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := synth.Play(); err != nil {
		log.Fatal(err)
	}
	defer synth.Stop()

	g := newGame(synth, scope, p.Name)
	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle("polysynth-go: " + p.Name)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
