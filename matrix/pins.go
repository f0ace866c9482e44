package matrix

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/host/v3"

	"github.com/flavioheleno/dm163"
)

// OpenPins resolves the matrix lines of cfg on the configured backend. The returned
// close function releases them.
func OpenPins(cfg GPIOConfig, log zerolog.Logger) (dm163.Pins, func() error, error) {
	names := pinNames(cfg)
	var open func(name string) (gpio.PinOut, error)
	closeAll := func() error { return nil }

	switch cfg.Backend {
	case BackendSim:
		open = func(name string) (gpio.PinOut, error) {
			return &gpiotest.Pin{N: name}, nil
		}

	case BackendPeriph:
		st, err := host.Init()
		if err != nil {
			return dm163.Pins{}, nil, fmt.Errorf("matrix: periph host init: %w", err)
		}
		log.Debug().Int("drivers", len(st.Loaded)).Msg("periph host initialized")
		open = func(name string) (gpio.PinOut, error) {
			p := gpioreg.ByName(name)
			if p == nil {
				return nil, fmt.Errorf("matrix: gpio pin %q not found", name)
			}
			return p, nil
		}

	case BackendCdev:
		var lines []*cdevPin
		closeAll = func() error {
			var first error
			for _, l := range lines {
				if err := l.Close(); err != nil && first == nil {
					first = err
				}
			}
			return first
		}
		open = func(name string) (gpio.PinOut, error) {
			offset, err := strconv.Atoi(name)
			if err != nil {
				return nil, fmt.Errorf("matrix: cdev pins are line offsets, got %q", name)
			}
			l, err := openCdevPin(cfg.Chip, offset)
			if err != nil {
				return nil, err
			}
			lines = append(lines, l)
			return l, nil
		}

	default:
		return dm163.Pins{}, nil, fmt.Errorf("%w: unknown gpio backend %q", ErrInvalidConfig, cfg.Backend)
	}

	outs := make([]gpio.PinOut, len(names))
	for i, name := range names {
		p, err := open(name)
		if err != nil {
			closeAll()
			return dm163.Pins{}, nil, err
		}
		outs[i] = p
	}

	p := dm163.Pins{SB: outs[0], LAT: outs[1], RST: outs[2], SCK: outs[3], SDA: outs[4]}
	copy(p.Rows[:], outs[5:])
	log.Info().Str("backend", cfg.Backend).Strs("pins", names).Msg("matrix pins opened")
	return p, closeAll, nil
}

// pinNames lists the control lines then the rows.
func pinNames(cfg GPIOConfig) []string {
	return append([]string{cfg.SB, cfg.LAT, cfg.RST, cfg.SCK, cfg.SDA}, cfg.Rows...)
}
