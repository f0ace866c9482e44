// Package dm163 drives an 8x8 RGB LED matrix through a DM163 constant current
// driver and eight row select lines, bit-banged over GPIO.
//
// The matrix is multiplexed: only one row is lit at a time, so the caller has to send
// the rows continuously for a steady picture. The driver itself never sleeps after
// init; pacing belongs to the scheduler (see the matrix package).
//
// # Hardware Connection
//
// The driver needs five control lines plus one line per row:
//
//	Matrix Pin  → System Pin
//	SB          → GPIO (bank select)
//	LAT         → GPIO (latch)
//	RST         → GPIO (reset, active low)
//	SCK         → GPIO (serial clock)
//	SDA         → GPIO (serial data)
//	C0..C7      → GPIO (row select, one per row)
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/host/v3"
//
//		"github.com/flavioheleno/dm163"
//		"github.com/flavioheleno/dm163/image8x8"
//	)
//
//	func main() {
//		host.Init()
//
//		p := dm163.Pins{
//			SB:  gpioreg.ByName("GPIO5"),
//			LAT: gpioreg.ByName("GPIO6"),
//			RST: gpioreg.ByName("GPIO13"),
//			SCK: gpioreg.ByName("GPIO19"),
//			SDA: gpioreg.ByName("GPIO26"),
//		}
//		// ... fill p.Rows ...
//
//		dev, _ := dm163.NewGPIO(p, nil)
//		defer dev.Halt()
//
//		img := image8x8.Gradient(image8x8.Blue)
//		for {
//			dev.DisplayImage(img)
//		}
//	}
//
// # Power Up
//
// NewGPIO drives SB and LAT high and every other line low, holds RST low for
// Opts.ResetDelay (100ms by default), releases it and fills the 6-bit bank 0 with
// ones. After that only bank 1 is written.
//
// # Row Transfer
//
// For each row, SendRow shifts 24 bytes MSB first, sampling on the rising edge of SCK.
// Pixels go out from the last column to the first, each as blue, green, red after gamma
// correction (see image8x8.Gamma). All rows are switched off after the blue byte of the
// fifth pixel sent, the register is latched with a low pulse on LAT and the target row
// is switched on.
//
// # Compatibility with periph.io
//
// Dev implements the display.Drawer interface from periph.io. Draw renders once;
// continuous refresh is left to the caller.
package dm163
