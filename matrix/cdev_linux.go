//go:build linux

package matrix

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// cdevPin is an output line of the GPIO character device, seen as a periph pin.
type cdevPin struct {
	chip   string
	offset int
	line   *gpiocdev.Line
}

func openCdevPin(chip string, offset int) (*cdevPin, error) {
	l, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("dm163"))
	if err != nil {
		return nil, fmt.Errorf("matrix: request %s line %d: %w", chip, offset, err)
	}
	return &cdevPin{chip: chip, offset: offset, line: l}, nil
}

func (p *cdevPin) String() string   { return p.Name() }
func (p *cdevPin) Name() string     { return fmt.Sprintf("%s:%d", p.chip, p.offset) }
func (p *cdevPin) Number() int      { return p.offset }
func (p *cdevPin) Function() string { return "Out" }
func (p *cdevPin) Halt() error      { return nil }

func (p *cdevPin) Out(l gpio.Level) error {
	v := 0
	if l {
		v = 1
	}
	return p.line.SetValue(v)
}

func (p *cdevPin) PWM(gpio.Duty, physic.Frequency) error {
	return errors.New("matrix: cdev pins do not support PWM")
}

// Close releases the line.
func (p *cdevPin) Close() error {
	return p.line.Close()
}
