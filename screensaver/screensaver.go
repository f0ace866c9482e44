// Package screensaver generates the animation shown while no frames arrive.
package screensaver

import (
	"fmt"
	"image/color"
	"strings"

	"tinygo.org/x/tinyfont"

	"github.com/flavioheleno/dm163/image8x8"
)

// Mode selects the animation.
type Mode int

const (
	// ModeText scrolls text from right to left, one color per pass.
	ModeText Mode = iota
	// ModeGradient shows the gradient of one color, then the next.
	ModeGradient
	// ModeMixed scrolls the text once, then holds the gradient of the same color.
	ModeMixed
)

var modeNames = map[Mode]string{
	ModeText:     "text",
	ModeGradient: "gradient",
	ModeMixed:    "mixed",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode returns the mode named s.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("screensaver: unknown mode %q", s)
}

// Baseline is the row text is drawn on.
const Baseline = 6

// Options configures a Generator.
type Options struct {
	Mode Mode
	Text string // default: "DM163"
	// Colors are cycled through, one per text pass or gradient hold
	// (default: red, green, blue).
	Colors []image8x8.Color
	// GradientFrames is how many frames a gradient is held (default: 16).
	GradientFrames int
}

// Generator renders animation steps. It is not safe for concurrent use.
type Generator struct {
	mode   Mode
	text   string
	colors []image8x8.Color
	hold   int

	font     *tinyfont.Font
	minX     int16 // offset at which the text has fully left the matrix
	offset   int16
	colorIdx int
	held     int  // gradient frames shown in the current hold
	holding  bool // ModeMixed: in the gradient phase
}

// New returns a generator positioned at the first step.
func New(o Options) (*Generator, error) {
	if o.Mode < ModeText || o.Mode > ModeMixed {
		return nil, fmt.Errorf("screensaver: invalid mode %d", o.Mode)
	}
	if o.Text == "" {
		o.Text = "DM163"
	}
	if len(o.Colors) == 0 {
		o.Colors = []image8x8.Color{image8x8.Red, image8x8.Green, image8x8.Blue}
	}
	if o.GradientFrames < 0 {
		return nil, fmt.Errorf("screensaver: gradient frames must not be negative")
	}
	if o.GradientFrames == 0 {
		o.GradientFrames = 16
	}

	g := &Generator{
		mode:   o.Mode,
		text:   o.Text,
		colors: o.Colors,
		hold:   o.GradientFrames,
		font:   &tinyfont.TomThumb,
	}
	_, w := tinyfont.LineWidth(g.font, g.text)
	g.minX = -int16(w)
	g.Reset()
	return g, nil
}

// Reset rewinds the animation to the start of a text pass. The color is kept.
func (g *Generator) Reset() {
	g.offset = image8x8.Width
	g.held = 0
	g.holding = false
}

// Color returns the color of the current step.
func (g *Generator) Color() image8x8.Color {
	return g.colors[g.colorIdx]
}

// Offset returns the x position the text is drawn at in the current step.
func (g *Generator) Offset() int16 {
	return g.offset
}

// Next renders the current step into dst, which is cleared first, and advances.
func (g *Generator) Next(dst *image8x8.Frame) {
	dst.Reset()
	switch {
	case g.mode == ModeGradient, g.mode == ModeMixed && g.holding:
		dst.DrawGradient(g.Color())
		g.advanceHold()
	default:
		c := g.Color()
		tinyfont.WriteLine(dst, g.font, g.offset, Baseline, g.text, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF})
		g.advanceText()
	}
}

func (g *Generator) advanceText() {
	g.offset--
	if g.offset > g.minX {
		return
	}
	g.offset = image8x8.Width
	if g.mode == ModeMixed {
		g.holding = true
		return
	}
	g.nextColor()
}

func (g *Generator) advanceHold() {
	g.held++
	if g.held < g.hold {
		return
	}
	g.held = 0
	g.holding = false
	g.nextColor()
}

func (g *Generator) nextColor() {
	g.colorIdx = (g.colorIdx + 1) % len(g.colors)
}
