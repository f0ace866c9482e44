package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarm/serial"
)

// DefaultBaud is the line speed of the matrix serial link.
const DefaultBaud = 38400

// SerialConfig describes the serial port frames arrive on.
type SerialConfig struct {
	Port        string        // device path, e.g. /dev/ttyUSB0
	Baud        int           // default: DefaultBaud
	ReadTimeout time.Duration // poll interval for cancellation (default: 100ms)
}

// Serial reads frames from a serial port into a Pender.
type Serial struct {
	cfg SerialConfig
	log zerolog.Logger
	Counters
}

// NewSerial validates cfg and returns an unopened source.
func NewSerial(cfg SerialConfig, log zerolog.Logger) (*Serial, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("ingest: serial port name is required")
	}
	if cfg.Baud < 0 {
		return nil, fmt.Errorf("ingest: invalid baud rate %d", cfg.Baud)
	}
	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 100 * time.Millisecond
	}
	return &Serial{cfg: cfg, log: log}, nil
}

// Run opens the port and pumps it into p until ctx is cancelled.
func (s *Serial) Run(ctx context.Context, p Pender) error {
	port, err := serial.OpenPort(&serial.Config{
		Name:        s.cfg.Port,
		Baud:        s.cfg.Baud,
		ReadTimeout: s.cfg.ReadTimeout,
	})
	if err != nil {
		return fmt.Errorf("ingest: open %s: %w", s.cfg.Port, err)
	}
	defer port.Close()

	s.log.Info().Str("port", s.cfg.Port).Int("baud", s.cfg.Baud).Msg("serial source started")
	err = Pump(ctx, silenceReader{port}, p, &s.Counters, s.log)
	s.log.Info().Str("port", s.cfg.Port).Uint64("received", s.Received.Load()).Msg("serial source stopped")
	if err != nil {
		return fmt.Errorf("ingest: read %s: %w", s.cfg.Port, err)
	}
	return nil
}

// silenceReader turns the io.EOF of an expired read timeout into an empty read.
type silenceReader struct {
	r io.Reader
}

func (s silenceReader) Read(b []byte) (int, error) {
	n, err := s.r.Read(b)
	if n == 0 && err == io.EOF {
		return 0, nil
	}
	return n, err
}
