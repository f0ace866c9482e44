package image8x8

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func TestColorRGBA(t *testing.T) {
	tests := []struct {
		name    string
		c       Color
		r, g, b uint32
	}{
		{"black", Black, 0, 0, 0},
		{"red", Red, 0xFFFF, 0, 0},
		{"mixed", Color{R: 0x12, G: 0x80, B: 0xFF}, 0x1212, 0x8080, 0xFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := tt.c.RGBA()
			if r != tt.r || g != tt.g || b != tt.b || a != 0xFFFF {
				t.Errorf("RGBA() = (%x, %x, %x, %x), want (%x, %x, %x, ffff)", r, g, b, a, tt.r, tt.g, tt.b)
			}
		})
	}
}

func TestColorMul(t *testing.T) {
	tests := []struct {
		name string
		c    Color
		f    float32
		want Color
	}{
		{"identity", Color{R: 10, G: 20, B: 30}, 1, Color{R: 10, G: 20, B: 30}},
		{"half", Color{R: 100, G: 50, B: 3}, 0.5, Color{R: 50, G: 25, B: 1}},
		{"saturate high", Color{R: 200, G: 100, B: 1}, 2, Color{R: 255, G: 200, B: 2}},
		{"saturate low", White, -1, Black},
		{"zero", White, 0, Black},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Mul(tt.f); got != tt.want {
				t.Errorf("Mul(%v) = %v, want %v", tt.f, got, tt.want)
			}
		})
	}
}

func TestColorDiv(t *testing.T) {
	tests := []struct {
		name string
		c    Color
		f    float32
		want Color
	}{
		{"by one", Red, 1, Red},
		{"by two", Color{R: 200, G: 100, B: 50}, 2, Color{R: 100, G: 50, B: 25}},
		{"by fraction", Color{R: 100}, 0.25, Color{R: 255}},
		{"by zero", Color{R: 1}, 0, Color{R: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Div(tt.f); got != tt.want {
				t.Errorf("Div(%v) = %v, want %v", tt.f, got, tt.want)
			}
		})
	}
}

func TestGamma(t *testing.T) {
	if got := Gamma(0); got != 0 {
		t.Errorf("Gamma(0) = %d, want 0", got)
	}
	if got := Gamma(255); got != 255 {
		t.Errorf("Gamma(255) = %d, want 255", got)
	}
	for v := 1; v < 256; v++ {
		if Gamma(uint8(v)) < Gamma(uint8(v-1)) {
			t.Fatalf("Gamma not monotonic at %d: %d < %d", v, Gamma(uint8(v)), Gamma(uint8(v-1)))
		}
	}
	if got := Gamma(128); got > 64 {
		t.Errorf("Gamma(128) = %d, want a value well below linear", got)
	}

	c := Color{R: 0, G: 128, B: 255}.Gamma()
	if c.R != 0 || c.G != Gamma(128) || c.B != 255 {
		t.Errorf("Color.Gamma() = %v", c)
	}
}

func TestGradient(t *testing.T) {
	f := Gradient(Color{R: 255, G: 100, B: 12})

	tests := []struct {
		row, col int
		want     Color
	}{
		{0, 0, Color{R: 255, G: 100, B: 12}},
		{0, 1, Color{R: 127, G: 50, B: 6}},
		{1, 0, Color{R: 127, G: 50, B: 6}},
		{2, 3, Color{R: 31, G: 12, B: 1}},
		{7, 7, Color{R: 4, G: 1, B: 0}},
	}

	for _, tt := range tests {
		if got := f.ColorAt(tt.col, tt.row); got != tt.want {
			t.Errorf("Gradient at row %d col %d = %v, want %v", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestFrameSetAt(t *testing.T) {
	f := &Frame{}
	c := Color{R: 1, G: 2, B: 3}
	f.SetColor(3, 5, c)
	if got := f.Pix[5*Width+3]; got != c {
		t.Errorf("Pix[43] = %v, want %v", got, c)
	}
	if got := f.At(3, 5); got != c {
		t.Errorf("At(3, 5) = %v, want %v", got, c)
	}

	f.Set(0, 0, color.RGBA{R: 0x80, G: 0x40, B: 0x20, A: 0xFF})
	if got := f.ColorAt(0, 0); got != (Color{R: 0x80, G: 0x40, B: 0x20}) {
		t.Errorf("Set with color.RGBA stored %v", got)
	}

	// Out of range writes are dropped and reads are black.
	f.SetColor(-1, 0, White)
	f.SetColor(8, 0, White)
	f.SetColor(0, 8, White)
	if got := f.ColorAt(8, 8); got != Black {
		t.Errorf("ColorAt(8, 8) = %v, want black", got)
	}
	for i, p := range f.Pix {
		if p == White {
			t.Fatalf("pixel %d written by an out of range Set", i)
		}
	}
}

func TestFrameDrawImage(t *testing.T) {
	f := &Frame{}
	var _ draw.Image = f
	draw.Draw(f, f.Bounds(), image.NewUniform(color.RGBA{G: 0xFF, A: 0xFF}), image.Point{}, draw.Src)
	for i, p := range f.Pix {
		if p != Green {
			t.Fatalf("pixel %d = %v, want green", i, p)
		}
	}
	if b := f.Bounds(); b != image.Rect(0, 0, 8, 8) {
		t.Errorf("Bounds() = %v", b)
	}
}

func TestFrameRow(t *testing.T) {
	f := &Frame{}
	for i := range f.Pix {
		f.Pix[i] = Color{R: uint8(i)}
	}
	row := f.Row(2)
	if len(row) != 8 {
		t.Fatalf("len(Row(2)) = %d, want 8", len(row))
	}
	for j, c := range row {
		if c.R != uint8(16+j) {
			t.Errorf("Row(2)[%d].R = %d, want %d", j, c.R, 16+j)
		}
	}
	row[0] = White
	if f.Pix[16] != White {
		t.Error("Row() does not share frame storage")
	}
}

func TestFrameBytes(t *testing.T) {
	f := &Frame{}
	for i := 0; i < Size; i++ {
		f.SetByte(i, byte(i))
	}
	if got := f.Pix[1]; got != (Color{R: 3, G: 4, B: 5}) {
		t.Errorf("Pix[1] = %v, want {3 4 5}", got)
	}
	if got := f.Byte(191); got != 191 {
		t.Errorf("Byte(191) = %d, want 191", got)
	}
	b := f.Bytes()
	for i, v := range b {
		if v != byte(i) {
			t.Fatalf("Bytes()[%d] = %d, want %d", i, v, i)
		}
	}

	g := &Frame{}
	if n := g.Load(append(b[:], 0xAA, 0xBB)); n != Size {
		t.Errorf("Load() = %d, want %d", n, Size)
	}
	if *g != *f {
		t.Error("Load() did not reproduce the frame")
	}

	g.Reset()
	if *g != (Frame{}) {
		t.Error("Reset() left pixels set")
	}
}

func TestFrameDisplayer(t *testing.T) {
	f := Solid(Blue)
	if w, h := f.Size(); w != 8 || h != 8 {
		t.Errorf("Size() = %d, %d, want 8, 8", w, h)
	}
	f.SetPixel(7, 7, color.RGBA{R: 9, A: 0xFF})
	f.SetPixel(-3, 2, color.RGBA{R: 9, A: 0xFF})
	f.SetPixel(100, 2, color.RGBA{R: 9, A: 0xFF})
	if got := f.ColorAt(7, 7); got != (Color{R: 9}) {
		t.Errorf("SetPixel(7, 7) stored %v", got)
	}
	if got := f.ColorAt(0, 2); got != Blue {
		t.Errorf("clamped SetPixel changed pixel (0, 2) to %v", got)
	}
	if err := f.Display(); err != nil {
		t.Errorf("Display() = %v", err)
	}
}
