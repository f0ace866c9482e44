package dm163

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/flavioheleno/dm163/image8x8"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// ErrHalted is returned by any operation on a halted device.
var ErrHalted = errors.New("dm163: halted")

// bank0Bits is the length of the bank 0 shift register: 24 channels of 6 bits.
const bank0Bits = 144

// rowsOffAfter is the pixel, in shift order, after whose blue byte every row line
// is turned off.
const rowsOffAfter = 4

// Pins are the GPIO lines wired to the matrix.
type Pins struct {
	// DM163 control
	SB  gpio.PinOut // Bank select: low = bank 0, high = bank 1
	LAT gpio.PinOut // Latch, active low pulse
	RST gpio.PinOut // Reset, active low
	SCK gpio.PinOut // Serial clock, data sampled on the rising edge
	SDA gpio.PinOut // Serial data

	// Row select, Rows[0] is the top row
	Rows [image8x8.Height]gpio.PinOut
}

// Opts is the configuration for the matrix driver.
type Opts struct {
	// ResetDelay is how long RST is held low at power up (default: 100ms).
	ResetDelay time.Duration
}

// Dev is the device handle for the matrix.
type Dev struct {
	// Communication
	sb, lat, rst gpio.PinOut
	sck, sda     gpio.PinOut
	rows         [image8x8.Height]gpio.PinOut

	// First pin error since the start of the current operation
	err error

	// Backing image for Draw
	frame image8x8.Frame

	// State
	halted bool
}

var _ display.Drawer = (*Dev)(nil)

// NewGPIO creates a new matrix device on the given pins and runs the power up
// sequence: every line idles (SB and LAT high, the rest low), RST is released after
// ResetDelay and bank 0 is initialized.
//
// opts can be nil to use defaults.
func NewGPIO(p Pins, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	if opts.ResetDelay < 0 {
		return nil, errors.New("dm163: reset delay must not be negative")
	}
	if opts.ResetDelay == 0 {
		opts = &Opts{ResetDelay: 100 * time.Millisecond}
	}

	if p.SB == nil || p.LAT == nil || p.RST == nil || p.SCK == nil || p.SDA == nil {
		return nil, errors.New("dm163: SB, LAT, RST, SCK and SDA pins are required")
	}
	for i, r := range p.Rows {
		if r == nil {
			return nil, fmt.Errorf("dm163: row %d pin is required", i)
		}
	}

	d := &Dev{
		sb:   p.SB,
		lat:  p.LAT,
		rst:  p.RST,
		sck:  p.SCK,
		sda:  p.SDA,
		rows: p.Rows,
	}

	if err := d.init(opts); err != nil {
		return nil, err
	}
	return d, nil
}

// init runs the power up sequence.
func (d *Dev) init(opts *Opts) error {
	d.err = nil
	d.out(d.sb, gpio.High)
	d.out(d.lat, gpio.High)
	d.out(d.rst, gpio.Low)
	d.out(d.sck, gpio.Low)
	d.out(d.sda, gpio.Low)
	d.deactivateRows()
	if d.err != nil {
		return fmt.Errorf("dm163: failed to idle pins: %w", d.err)
	}

	time.Sleep(opts.ResetDelay)

	d.out(d.rst, gpio.High)
	if d.err != nil {
		return fmt.Errorf("dm163: failed to release RST: %w", d.err)
	}

	d.initBank0()
	if d.err != nil {
		return fmt.Errorf("dm163: bank 0 init: %w", d.err)
	}
	return nil
}

// out drives p to l unless a previous write of the current operation failed.
func (d *Dev) out(p gpio.PinOut, l gpio.Level) {
	if d.err == nil {
		d.err = p.Out(l)
	}
}

// pulseSCK shifts one bit: low, high, low.
func (d *Dev) pulseSCK() {
	d.out(d.sck, gpio.Low)
	d.out(d.sck, gpio.High)
	d.out(d.sck, gpio.Low)
}

// pulseLAT latches the shift register: high, low, high.
func (d *Dev) pulseLAT() {
	d.out(d.lat, gpio.High)
	d.out(d.lat, gpio.Low)
	d.out(d.lat, gpio.High)
}

// sendByte shifts b out MSB first.
func (d *Dev) sendByte(b byte) {
	for i := 7; i >= 0; i-- {
		d.out(d.sda, gpio.Level(b&(1<<uint(i)) != 0))
		d.pulseSCK()
	}
}

func (d *Dev) deactivateRows() {
	for _, r := range d.rows {
		d.out(r, gpio.Low)
	}
}

// initBank0 fills bank 0 with ones so bank 1 alone controls brightness.
func (d *Dev) initBank0() {
	d.out(d.sb, gpio.Low)
	d.out(d.sda, gpio.High)
	for i := 0; i < bank0Bits; i++ {
		d.pulseSCK()
	}
	d.pulseLAT()
	d.out(d.sb, gpio.High)
}

// SendRow shifts one row of 8 pixels into the driver and lights it.
//
// Pixels are sent last column first, each gamma corrected, as blue, green then red
// bytes. All row lines are turned off partway through so the previous row does not
// bleed into this one, then the data is latched and only the target row is turned
// on. SendRow does no timing of its own; the caller decides how long the row stays
// lit.
func (d *Dev) SendRow(row int, pixels []image8x8.Color) error {
	if d.halted {
		return ErrHalted
	}
	if row < 0 || row >= image8x8.Height {
		return fmt.Errorf("dm163: row %d out of range", row)
	}
	if len(pixels) != image8x8.Width {
		return fmt.Errorf("dm163: row needs %d pixels, got %d", image8x8.Width, len(pixels))
	}

	d.err = nil
	for i := 0; i < image8x8.Width; i++ {
		c := pixels[image8x8.Width-1-i].Gamma()
		d.sendByte(c.B)
		if i == rowsOffAfter {
			d.deactivateRows()
		}
		d.sendByte(c.G)
		d.sendByte(c.R)
	}
	d.pulseLAT()
	d.out(d.rows[row], gpio.High)

	if d.err != nil {
		return fmt.Errorf("dm163: row %d: %w", row, d.err)
	}
	return nil
}

// DisplayImage sends rows 0 to 7 of f back to back. Only row 7 stays lit when it
// returns.
func (d *Dev) DisplayImage(f *image8x8.Frame) error {
	for i := 0; i < image8x8.Height; i++ {
		if err := d.SendRow(i, f.Row(i)); err != nil {
			return err
		}
	}
	return nil
}

// ColorModel returns the color model of the matrix.
func (d *Dev) ColorModel() color.Model {
	return image8x8.ColorModel
}

// Bounds returns the image bounds of the matrix.
func (d *Dev) Bounds() image.Rectangle {
	return d.frame.Bounds()
}

// Draw draws src onto the matrix backing image and shows the whole image once.
// It implements display.Drawer. Continuous multiplexing is up to the caller.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return ErrHalted
	}
	dst = dst.Intersect(d.frame.Bounds())
	if dst.Empty() {
		return nil
	}
	if f, ok := src.(*image8x8.Frame); ok && dst == f.Bounds() && sp == (image.Point{}) {
		d.frame = *f
	} else {
		draw.Draw(&d.frame, dst, src, sp, draw.Src)
	}
	return d.DisplayImage(&d.frame)
}

// Halt turns every row off. The device rejects further updates afterwards.
func (d *Dev) Halt() error {
	d.halted = true
	d.err = nil
	d.deactivateRows()
	if d.err != nil {
		return fmt.Errorf("dm163: halt: %w", d.err)
	}
	return nil
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("dm163.Dev{%dx%d}", image8x8.Width, image8x8.Height)
}
