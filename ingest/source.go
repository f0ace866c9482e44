package ingest

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Pender queues a word for the Receiver without blocking. Pend returns false when
// the queue is full.
type Pender interface {
	Pend(v uint32) bool
}

// Counters tracks what a byte source delivered.
type Counters struct {
	Received atomic.Uint64 // bytes read from the source
	Overruns atomic.Uint64 // bytes refused by a full queue
}

// Feed pends every byte of b in order and returns how many were refused. Refused
// bytes are lost, as a UART overrun would lose them.
func Feed(p Pender, b []byte, c *Counters) int {
	refused := 0
	for _, v := range b {
		if !p.Pend(uint32(DataWord(v))) {
			refused++
		}
	}
	if c != nil {
		c.Received.Add(uint64(len(b)))
		c.Overruns.Add(uint64(refused))
	}
	return refused
}

// Pump copies bytes from r to p until ctx is cancelled or r is exhausted. A read
// returning no data and no error is retried, which is how a serial port with a read
// timeout reports silence.
func Pump(ctx context.Context, r io.Reader, p Pender, c *Counters, log zerolog.Logger) error {
	buf := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		n, err := r.Read(buf)
		if n > 0 {
			if refused := Feed(p, buf[:n], c); refused > 0 {
				log.Debug().Int("refused", refused).Msg("receive queue full, bytes dropped")
			}
		}
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
