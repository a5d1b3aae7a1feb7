package main

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cbegin/polysynth-go"
	"github.com/cbegin/polysynth-go/internal/analyzer"
)

var (
	bgColor   = color.RGBA{14, 16, 22, 255}
	gridColor = color.RGBA{40, 44, 58, 100}
	waveColor = color.RGBA{80, 200, 255, 220}
	keyColor  = color.RGBA{60, 64, 80, 255}
	heldColor = color.RGBA{0, 120, 220, 255}
)

// noteKeys binds the synth's key names to physical keys.
var noteKeys = map[string]ebiten.Key{
	"A": ebiten.KeyA, "W": ebiten.KeyW, "S": ebiten.KeyS, "E": ebiten.KeyE,
	"D": ebiten.KeyD, "F": ebiten.KeyF, "T": ebiten.KeyT, "G": ebiten.KeyG,
	"Y": ebiten.KeyY, "H": ebiten.KeyH, "U": ebiten.KeyU, "J": ebiten.KeyJ,
	"K": ebiten.KeyK, "O": ebiten.KeyO, "L": ebiten.KeyL, "P": ebiten.KeyP,
	";": ebiten.KeySemicolon, "'": ebiten.KeyQuote, "]": ebiten.KeyBracketRight,
}

// keyOrder is the on-screen layout, low to high.
var keyOrder = []string{"A", "W", "S", "E", "D", "F", "T", "G", "Y", "H", "U", "J", "K", "O", "L", "P", ";", "'", "]"}

type game struct {
	synth    *polysynth.Synth
	scope    *analyzer.Analyzer
	patch    string
	spec     []float64
	bars     []float64
	wavePeak float64
}

func newGame(synth *polysynth.Synth, scope *analyzer.Analyzer, patch string) *game {
	return &game{synth: synth, scope: scope, patch: patch}
}

func (g *game) Update() error {
	for _, name := range keyOrder {
		k := noteKeys[name]
		if inpututil.IsKeyJustPressed(k) {
			g.synth.KeyDown(name)
		}
		if inpututil.IsKeyJustReleased(k) {
			g.synth.KeyUp(name)
		}
	}
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyZ):
		g.synth.ShiftOctave(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyX):
		g.synth.ShiftOctave(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		g.synth.ToggleFilter()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.synth.ShiftCutoff(-polysynth.CutoffStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyV):
		g.synth.ShiftCutoff(polysynth.CutoffStep)
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.synth.Panic()
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()

	filter := "off"
	if g.synth.FilterEnabled() {
		filter = fmt.Sprintf("%.0f Hz", g.synth.Cutoff())
	}
	audio := "stopped"
	if playing, pos := g.synth.Playback(); playing {
		audio = pos.Truncate(time.Second).String()
	}
	status := fmt.Sprintf("patch %s   octave %d   low-pass %s   voices %d   peak %.2f   audio %s\n",
		g.patch, g.synth.Octave(), filter, g.synth.ActiveVoices(), g.scope.Peak(), audio)
	status += "Z/X octave  B filter  C/V cutoff  SPACE all notes off  ESC quit"
	ebitenutil.DebugPrintAt(screen, status, 8, 8)

	g.drawKeys(screen, 8, 48, w-16, 60)
	g.drawWaveform(screen, 8, 124, w-16, (h-132)/2)
	g.drawSpectrum(screen, 8, 132+(h-132)/2, w-16, (h-140)/2)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	return windowW, windowH
}

func (g *game) drawKeys(screen *ebiten.Image, x, y, w, h int) {
	held := make(map[string]bool)
	for _, k := range g.synth.ActiveKeys() {
		held[k] = true
	}
	keyW := float64(w) / float64(len(keyOrder))
	for i, name := range keyOrder {
		c := keyColor
		if held[name] {
			c = heldColor
		}
		kx := float64(x) + float64(i)*keyW
		ebitenutil.DrawRect(screen, kx+1, float64(y), keyW-2, float64(h), c)
		ebitenutil.DebugPrintAt(screen, name, int(kx+keyW/2)-3, y+h-18)
	}
}

func (g *game) drawWaveform(screen *ebiten.Image, x, y, w, h int) {
	samples := g.scope.Snapshot(fftSize)
	mid := float64(y + h/2)
	ebitenutil.DrawRect(screen, float64(x), mid, float64(w), 1, gridColor)

	peak := 0.01
	for _, s := range samples {
		peak = math.Max(peak, math.Abs(s))
	}
	// Fast attack, slow release keeps the trace from jumping.
	if peak > g.wavePeak {
		g.wavePeak = g.wavePeak*0.3 + peak*0.7
	} else {
		g.wavePeak = g.wavePeak*0.995 + peak*0.005
	}
	gain := float64(h/2-2) / math.Max(g.wavePeak, 0.01)

	start := risingZero(samples, len(samples)/4)
	visible := max(2, len(samples)-start)
	prevX, prevY := float64(x), mid-samples[start]*gain
	for px := 1; px < w; px++ {
		si := min(start+px*visible/w, len(samples)-1)
		cy := mid - samples[si]*gain
		ebitenutil.DrawLine(screen, prevX, prevY, float64(x+px), cy, waveColor)
		prevX, prevY = float64(x+px), cy
	}
}

// risingZero finds a rising zero crossing to hold the trace still.
func risingZero(samples []float64, searchLen int) int {
	searchLen = min(searchLen, len(samples)-2)
	for i := 1; i < searchLen; i++ {
		if samples[i-1] <= 0 && samples[i] > 0 {
			return i
		}
	}
	return 0
}

func (g *game) drawSpectrum(screen *ebiten.Image, x, y, w, h int) {
	g.spec = g.scope.Spectrum(g.spec)
	numBars := max(16, min(128, w/6))
	if len(g.bars) != numBars {
		g.bars = make([]float64, numBars)
	}
	// Log-frequency columns from bin 1 up to the last bin.
	logMin, logMax := 0.0, math.Log(float64(len(g.spec)-1))
	for i := range g.bars {
		lo := int(math.Exp(logMin + float64(i)/float64(numBars)*(logMax-logMin)))
		hi := max(lo+1, int(math.Exp(logMin+float64(i+1)/float64(numBars)*(logMax-logMin))))
		hi = min(hi, len(g.spec))
		db := analyzer.Floor
		for _, v := range g.spec[lo:hi] {
			db = math.Max(db, v)
		}
		norm := math.Max(0, math.Min(1, (db+80)/80))
		if norm > g.bars[i] {
			g.bars[i] = g.bars[i]*0.3 + norm*0.7
		} else {
			g.bars[i] = g.bars[i]*0.85 + norm*0.15
		}
	}
	barW := float64(w) / float64(numBars)
	for i, v := range g.bars {
		barH := math.Max(1, v*float64(h-4))
		r, gr, b := spectrumColor(v)
		ebitenutil.DrawRect(screen, float64(x)+float64(i)*barW+1, float64(y+h)-barH, barW-1, barH, color.RGBA{r, gr, b, 220})
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.0f Hz", g.scope.BinFrequency(len(g.spec)-1)), x+w-80, y)
}

func spectrumColor(v float64) (uint8, uint8, uint8) {
	if v < 0.5 {
		t := v / 0.5
		return uint8(30 + 20*t), uint8(80 + 150*t), uint8(220 - 60*t)
	}
	t := (v - 0.5) / 0.5
	return uint8(50 + 200*t), uint8(230 - 120*t), uint8(160 - 110*t)
}
