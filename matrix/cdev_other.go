//go:build !linux

package matrix

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

type cdevPin struct{}

func openCdevPin(chip string, offset int) (*cdevPin, error) {
	return nil, errors.New("matrix: cdev backend not supported on this platform")
}

func (p *cdevPin) String() string                        { return "cdev" }
func (p *cdevPin) Name() string                          { return "cdev" }
func (p *cdevPin) Number() int                           { return -1 }
func (p *cdevPin) Function() string                      { return "" }
func (p *cdevPin) Halt() error                           { return nil }
func (p *cdevPin) Out(gpio.Level) error                  { return errors.New("matrix: cdev backend not supported on this platform") }
func (p *cdevPin) PWM(gpio.Duty, physic.Frequency) error { return errors.New("matrix: cdev backend not supported on this platform") }
func (p *cdevPin) Close() error                          { return nil }
