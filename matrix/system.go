// Package matrix wires the matrix driver, the frame pool, ingest and the
// screensaver into the four tasks that keep the display running.
//
// Tasks, highest priority first:
//
//   - rx (interrupt): one ingest transition per received byte
//   - display (2): lights one row per period and swaps in the pending frame after
//     the last row
//   - notice (1): bumps the activity counter after each complete frame
//   - screensaver (1): animates while the activity counter stays unchanged
//
// Exactly PoolSlots frames exist: the one on display, the one ingest fills and the
// one waiting in the mailbox.
package matrix

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/flavioheleno/dm163/framepool"
	"github.com/flavioheleno/dm163/image8x8"
	"github.com/flavioheleno/dm163/ingest"
	"github.com/flavioheleno/dm163/sched"
	"github.com/flavioheleno/dm163/screensaver"
)

// Task priorities.
const (
	PriorityScreensaver sched.Priority = 1
	PriorityNotice      sched.Priority = 1
	PriorityDisplay     sched.Priority = 2
)

// RowSender shows one row on the hardware. *dm163.Dev implements it.
type RowSender interface {
	SendRow(row int, pixels []image8x8.Color) error
}

// Activity counts complete frames received. It only ever serves to detect change
// and wraps around.
type Activity struct {
	n atomic.Uint32
}

// Inc increments the counter and returns the new value.
func (a *Activity) Inc() uint32 { return a.n.Add(1) }

// Load returns the current value.
func (a *Activity) Load() uint32 { return a.n.Load() }

// Stats is a snapshot of the system counters.
type Stats struct {
	PoolInUse     int
	PoolCap       int
	PoolExhausted uint64
	Mailbox       framepool.MailboxStats
	Ingest        ingest.Stats
	Activity      uint32

	RxOverruns        uint64 // bytes refused by the receive queue
	RowsSent          uint64
	DriverErrors      uint64
	ScreensaverFrames uint64
}

// Option configures a System.
type Option func(*options)

type options struct {
	log zerolog.Logger
	now func() time.Time
}

// WithLogger sets the logger of the system and its components.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock replaces time.Now for the scheduler.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// System is a running matrix.
type System struct {
	cfg Config
	dev RowSender
	log zerolog.Logger
	now func() time.Time

	pool     *framepool.Pool
	mb       *framepool.Mailbox
	activity Activity
	rx       *ingest.Receiver
	gen      *screensaver.Generator

	sched   *sched.Scheduler
	rxLine  *sched.Interrupt
	display *sched.Task
	notice  *sched.Task
	saver   *sched.Task

	// Owned by the display task.
	current framepool.Handle
	row     int
	lastErr error

	// Owned by the screensaver task.
	lastActivity uint32

	rowsSent     atomic.Uint64
	driverErrors atomic.Uint64
	saverFrames  atomic.Uint64
}

// New builds a system on dev. Nothing runs until Run or Start.
func New(dev RowSender, cfg Config, opts ...Option) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{log: zerolog.Nop(), now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}

	gen, err := screensaver.New(cfg.ScreensaverOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s := &System{
		cfg:  cfg,
		dev:  dev,
		log:  o.log,
		now:  o.now,
		pool: framepool.New(cfg.PoolSlots),
		gen:  gen,
		sched: sched.New(
			sched.WithClock(o.now),
			sched.WithLogger(o.log.With().Str("component", "sched").Logger()),
		),
	}
	s.mb = framepool.NewMailbox(s.pool)

	current, ok := s.pool.Alloc()
	if !ok {
		return nil, fmt.Errorf("matrix: no frame for the display")
	}
	s.current = current

	s.notice = sched.NewTask("notice", PriorityNotice, s.noticeTask)
	s.rx, err = ingest.NewReceiver(s.pool, s.mb,
		ingest.WithNotify(func() { s.sched.Spawn(s.notice) }),
		ingest.WithLogger(o.log.With().Str("component", "ingest").Logger()),
	)
	if err != nil {
		return nil, err
	}
	s.rxLine = s.sched.NewInterrupt("rx", cfg.RxQueue, s.rx.HandleIRQ)
	s.display = sched.NewTask("display", PriorityDisplay, s.displayTask)
	s.saver = sched.NewTask("screensaver", PriorityScreensaver, s.screensaverTask)
	return s, nil
}

// Pender is where byte sources queue received bytes.
func (s *System) Pender() ingest.Pender {
	return s.rxLine
}

// Scheduler exposes the run loop, mostly for stepping it in tests.
func (s *System) Scheduler() *sched.Scheduler {
	return s.sched
}

// Start queues the display and screensaver tasks for now.
func (s *System) Start(now time.Time) {
	s.sched.SpawnAt(s.display, now)
	s.sched.SpawnAt(s.saver, now)
}

// Run starts the tasks and runs the scheduler until ctx is cancelled.
func (s *System) Run(ctx context.Context) error {
	s.log.Info().
		Int("refresh_hz", s.cfg.RefreshHz).
		Dur("row_period", s.cfg.RowPeriod()).
		Int("pool_slots", s.cfg.PoolSlots).
		Msg("matrix started")
	s.Start(s.now())
	return s.sched.Run(ctx)
}

// displayTask shows one row and re-arms for the next one.
func (s *System) displayTask(at time.Time) {
	err := s.dev.SendRow(s.row, s.current.Frame().Row(s.row))
	s.rowsSent.Add(1)
	if err != nil {
		s.driverErrors.Add(1)
		if s.lastErr == nil {
			s.log.Error().Err(err).Int("row", s.row).Msg("matrix driver failed")
		}
	} else if s.lastErr != nil {
		s.log.Info().Msg("matrix driver recovered")
	}
	s.lastErr = err

	if s.row == image8x8.Height-1 {
		if h, ok := s.mb.Take(); ok {
			old := s.current
			s.current = h
			s.pool.Free(old)
		}
	}
	s.row = (s.row + 1) % image8x8.Height
	s.sched.SpawnAt(s.display, at.Add(s.cfg.RowPeriod()))
}

func (s *System) noticeTask(time.Time) {
	s.activity.Inc()
}

// screensaverTask publishes the next animation frame while no frames arrive, and
// backs off for the debounce interval once they do.
func (s *System) screensaverTask(at time.Time) {
	next := at.Add(s.cfg.IdleInterval())
	if n := s.activity.Load(); n != s.lastActivity {
		s.lastActivity = n
		s.gen.Reset()
		if s.mb.Discard(framepool.SourceScreensaver) {
			s.log.Debug().Msg("screensaver frame withdrawn")
		}
		next = at.Add(s.cfg.DebounceInterval())
	} else if h, ok := s.pool.Alloc(); ok {
		s.gen.Next(h.Frame())
		s.mb.Publish(h, framepool.SourceScreensaver)
		s.saverFrames.Add(1)
	}
	s.sched.SpawnAt(s.saver, next)
}

// Stats returns a snapshot of the system counters.
func (s *System) Stats() Stats {
	return Stats{
		PoolInUse:         s.pool.InUse(),
		PoolCap:           s.pool.Cap(),
		PoolExhausted:     s.pool.Exhausted(),
		Mailbox:           s.mb.Stats(),
		Ingest:            s.rx.Stats(),
		Activity:          s.activity.Load(),
		RxOverruns:        s.rxLine.Dropped(),
		RowsSent:          s.rowsSent.Load(),
		DriverErrors:      s.driverErrors.Load(),
		ScreensaverFrames: s.saverFrames.Load(),
	}
}
