package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/cbegin/polysynth-go"
	"github.com/cbegin/polysynth-go/internal/patch"
)

const defaultScript = "A:0-0.6, D:0.2-0.8, G:0.4-1.0, K:0.6-1.4"

func main() {
	var (
		sampleRate = flag.Int("sample-rate", polysynth.DefaultSampleRate, "output sample rate")
		patchName  = flag.String("patch", patch.DefaultName, "voice preset: "+strings.Join(patch.Names(), "|"))
		script     = flag.String("script", defaultScript, `key presses as "key:start-end" in seconds, comma separated`)
		seconds    = flag.Float64("seconds", 2, "length of the render")
		octave     = flag.Int("octave", polysynth.DefaultOctave, "octave (0..9)")
		filterOn   = flag.Bool("filter", false, "enable the low-pass")
		cutoff     = flag.Float64("cutoff", polysynth.DefaultCutoff, "low-pass cutoff in Hz")
		fx         = flag.String("effects", "", `master effects, e.g. "delay 250,0.4; dist 4,0.5"`)
		out        = flag.String("out", "polysynth.wav", "output WAV path")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	p, ok := patch.Lookup(*patchName)
	if !ok {
		log.Fatalf("unknown -patch %q (expected %s)", *patchName, strings.Join(patch.Names(), "|"))
	}
	events, err := polysynth.ParseScript(*script, *sampleRate)
	if err != nil {
		log.Fatal(err)
	}
	synth, err := polysynth.New(
		polysynth.WithSampleRate(*sampleRate),
		polysynth.WithPatch(p),
		polysynth.WithOctave(*octave),
		polysynth.WithFilter(*filterOn),
		polysynth.WithCutoff(*cutoff),
		polysynth.WithEffects(*fx),
		polysynth.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}

	if *seconds <= 0 {
		log.Fatalf("-seconds must be positive, got %g", *seconds)
	}
	frames := int(*seconds * float64(*sampleRate))
	samples := synth.Render(events, frames)

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	if err := polysynth.WriteWAV(f, samples, *sampleRate, synth.Channels()); err != nil {
		f.Close()
		log.Fatal(err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}
	logger.Info("rendered", "path", *out, "frames", frames, "channels", synth.Channels(), "patch", p.Name)
}
