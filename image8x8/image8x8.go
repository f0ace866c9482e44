package image8x8

import (
	"image"
	"image/color"

	"tinygo.org/x/drivers"
)

const (
	// Width and Height of a frame in pixels.
	Width  = 8
	Height = 8

	// Pixels is the number of pixels in a frame.
	Pixels = Width * Height

	// Size is the length in bytes of the raw R,G,B view of a frame.
	Size = Pixels * 3
)

// Color is an RGB color with 8 bits per channel.
type Color struct {
	R, G, B uint8
}

// Named colors.
var (
	Black = Color{}
	Red   = Color{R: 255}
	Green = Color{G: 255}
	Blue  = Color{B: 255}
	White = Color{R: 255, G: 255, B: 255}
)

// RGBA implements color.Color. The color is always fully opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	return r, g, b, 0xFFFF
}

// Mul scales every channel by f, saturating the result into [0, 255].
func (c Color) Mul(f float32) Color {
	return Color{
		R: saturate(float32(c.R) * f),
		G: saturate(float32(c.G) * f),
		B: saturate(float32(c.B) * f),
	}
}

// Div divides every channel by f, saturating the result into [0, 255].
func (c Color) Div(f float32) Color {
	return c.Mul(1 / f)
}

// Gamma returns a copy of c with every channel gamma corrected.
func (c Color) Gamma() Color {
	return Color{R: Gamma(c.R), G: Gamma(c.G), B: Gamma(c.B)}
}

func saturate(v float32) uint8 {
	switch {
	case v != v, v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// toColor converts any color.Color to Color, dropping alpha.
func toColor(c color.Color) color.Color {
	if rgb, ok := c.(Color); ok {
		return rgb
	}
	r, g, b, _ := c.RGBA()
	return Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// ColorModel converts colors to Color.
var ColorModel = color.ModelFunc(toColor)

// Frame is one complete 8x8 image, 64 pixels in row-major order.
// The zero value is a black frame.
type Frame struct {
	Pix [Pixels]Color
}

var (
	_ image.Image       = (*Frame)(nil)
	_ drivers.Displayer = (*Frame)(nil)
)

// Solid returns a frame filled with c.
func Solid(c Color) *Frame {
	f := &Frame{}
	f.Fill(c)
	return f
}

// Gradient returns a frame where the pixel at (row i, column j) is c divided by
// 1 + i*i + j. The top-left pixel keeps the full color.
func Gradient(c Color) *Frame {
	f := &Frame{}
	f.DrawGradient(c)
	return f
}

// DrawGradient overwrites f with the gradient of c, see Gradient.
func (f *Frame) DrawGradient(c Color) {
	for i := 0; i < Height; i++ {
		for j := 0; j < Width; j++ {
			f.Pix[i*Width+j] = c.Div(float32(1 + i*i + j))
		}
	}
}

// Fill sets every pixel of f to c.
func (f *Frame) Fill(c Color) {
	for i := range f.Pix {
		f.Pix[i] = c
	}
}

// Reset clears f to black.
func (f *Frame) Reset() {
	*f = Frame{}
}

// ColorModel returns the color model of the frame.
func (f *Frame) ColorModel() color.Model {
	return ColorModel
}

// Bounds returns the frame bounds, always (0,0)-(8,8).
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, Width, Height)
}

// At returns the color of the pixel at (x, y).
// It implements the image.Image interface.
func (f *Frame) At(x, y int) color.Color {
	return f.ColorAt(x, y)
}

// ColorAt returns the pixel at column x, row y, or black outside the frame.
func (f *Frame) ColorAt(x, y int) Color {
	if !inside(x, y) {
		return Color{}
	}
	return f.Pix[y*Width+x]
}

// Set sets the color of the pixel at (x, y).
// It implements the draw.Image interface.
func (f *Frame) Set(x, y int, c color.Color) {
	f.SetColor(x, y, ColorModel.Convert(c).(Color))
}

// SetColor sets the pixel at column x, row y. Coordinates outside the frame are
// ignored.
func (f *Frame) SetColor(x, y int, c Color) {
	if !inside(x, y) {
		return
	}
	f.Pix[y*Width+x] = c
}

// Row returns the 8 pixels of row y as a slice sharing f's storage.
func (f *Frame) Row(y int) []Color {
	return f.Pix[y*Width : (y+1)*Width]
}

// Byte returns the raw byte at offset i (0..191) of the R,G,B view.
func (f *Frame) Byte(i int) byte {
	c := &f.Pix[i/3]
	switch i % 3 {
	case 0:
		return c.R
	case 1:
		return c.G
	}
	return c.B
}

// SetByte writes the raw byte at offset i (0..191) of the R,G,B view.
func (f *Frame) SetByte(i int, b byte) {
	c := &f.Pix[i/3]
	switch i % 3 {
	case 0:
		c.R = b
	case 1:
		c.G = b
	default:
		c.B = b
	}
}

// Bytes returns a copy of the raw R,G,B view of f.
func (f *Frame) Bytes() [Size]byte {
	var out [Size]byte
	for i, c := range f.Pix {
		out[i*3], out[i*3+1], out[i*3+2] = c.R, c.G, c.B
	}
	return out
}

// Load copies up to Size bytes from b into the raw view of f and returns the number
// of bytes copied.
func (f *Frame) Load(b []byte) int {
	if len(b) > Size {
		b = b[:Size]
	}
	for i, v := range b {
		f.SetByte(i, v)
	}
	return len(b)
}

// Size returns the frame dimensions.
// It implements drivers.Displayer.
func (f *Frame) Size() (x, y int16) {
	return Width, Height
}

// SetPixel sets a pixel from a drawing library. Pixels outside the frame are
// dropped.
// It implements drivers.Displayer.
func (f *Frame) SetPixel(x, y int16, c color.RGBA) {
	f.SetColor(int(x), int(y), Color{R: c.R, G: c.G, B: c.B})
}

// Display is a no-op; the frame is shown once it is handed to the matrix.
// It implements drivers.Displayer.
func (f *Frame) Display() error {
	return nil
}

func inside(x, y int) bool {
	return x >= 0 && x < Width && y >= 0 && y < Height
}
