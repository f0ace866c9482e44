// Package ingest reassembles frames from a lossy byte stream.
//
// A frame on the wire is the sentinel byte 0xFF followed by 192 payload bytes, the
// 64 pixels of an 8x8 image in row-major order, R, G then B. There is no checksum and
// no acknowledgement: a sentinel always restarts framing, bytes flagged with a line
// error are dropped and anything after a complete frame is ignored until the next
// sentinel. As a consequence payload bytes can never be 0xFF.
//
// The Receiver is driven one Word at a time from a single goroutine, normally the
// scheduler's receive interrupt line. Byte sources (serial port, WebSocket) only
// queue words; they never touch the Receiver directly.
package ingest

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/flavioheleno/dm163/framepool"
	"github.com/flavioheleno/dm163/image8x8"
)

// awaitingResync is the cursor value while no frame is being filled.
const awaitingResync = -1

// Stats is a snapshot of the Receiver counters.
type Stats struct {
	Completed  uint64 // frames published
	Dropped    uint64 // complete frames lost to pool exhaustion
	LineErrors uint64 // bytes discarded for a line error
	Resyncs    uint64 // sentinels that abandoned a partial frame
	Ignored    uint64 // payload bytes received while awaiting a sentinel
}

// Option configures a Receiver.
type Option func(*Receiver)

// WithNotify sets the function called after every complete frame, published or
// dropped. It runs on the caller of Handle and must not block.
func WithNotify(fn func()) Option {
	return func(r *Receiver) { r.notify = fn }
}

// WithLogger sets the logger for dropped frame diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Receiver) { r.log = l }
}

// Receiver is the ingest state machine. It owns one pool slot, the frame being
// filled, at all times.
type Receiver struct {
	pool *framepool.Pool
	mb   *framepool.Mailbox

	next   framepool.Handle
	cursor int

	notify func()
	log    zerolog.Logger

	completed, dropped, lineErrors, resyncs, ignored atomic.Uint64
}

// NewReceiver takes the in-flight frame from pool and returns a Receiver that
// publishes complete frames into mb. It starts awaiting a sentinel.
func NewReceiver(pool *framepool.Pool, mb *framepool.Mailbox, opts ...Option) (*Receiver, error) {
	h, ok := pool.Alloc()
	if !ok {
		return nil, fmt.Errorf("ingest: no free frame for the receiver")
	}
	r := &Receiver{
		pool:   pool,
		mb:     mb,
		next:   h,
		cursor: awaitingResync,
		notify: func() {},
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Handle runs one transition of the state machine for w.
func (r *Receiver) Handle(w Word) {
	switch b := w.Data(); {
	case w.Err():
		r.lineErrors.Add(1)
	case b == Sentinel:
		if r.cursor > 0 {
			r.resyncs.Add(1)
		}
		r.cursor = 0
	case r.cursor == awaitingResync:
		r.ignored.Add(1)
	default:
		r.next.Frame().SetByte(r.cursor, b)
		r.cursor++
		if r.cursor == image8x8.Size {
			r.complete()
		}
	}
}

// HandleIRQ adapts Handle to an interrupt line handler.
func (r *Receiver) HandleIRQ(v uint32) {
	r.Handle(Word(v))
}

// complete swaps the filled frame for a fresh one and publishes it.
func (r *Receiver) complete() {
	r.cursor = awaitingResync
	fresh, ok := r.pool.Alloc()
	if ok {
		r.mb.Publish(r.next, framepool.SourceIngest)
		r.next = fresh
		r.completed.Add(1)
	} else {
		n := r.dropped.Add(1)
		r.log.Debug().Uint64("dropped", n).Msg("frame pool exhausted, frame dropped")
	}
	r.notify()
}

// Filling reports whether a frame is in progress and how many bytes it holds. It must
// be called from the goroutine driving Handle.
func (r *Receiver) Filling() (cursor int, ok bool) {
	if r.cursor == awaitingResync {
		return 0, false
	}
	return r.cursor, true
}

// Stats returns a snapshot of the counters.
func (r *Receiver) Stats() Stats {
	return Stats{
		Completed:  r.completed.Load(),
		Dropped:    r.dropped.Load(),
		LineErrors: r.lineErrors.Load(),
		Resyncs:    r.resyncs.Load(),
		Ignored:    r.ignored.Load(),
	}
}
