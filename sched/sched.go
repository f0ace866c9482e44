// Package sched is a small fixed-priority run loop in the style of an interrupt
// driven firmware: tasks are functions spawned for a point in time, interrupt lines
// queue values from other goroutines, and a single goroutine runs everything so no
// two tasks or handlers ever overlap.
//
// Interrupt handlers always run before tasks and again between tasks, so a task can
// delay a handler by at most its own run time. Among due tasks the highest priority
// runs first, then the earliest deadline, then the first spawned.
package sched

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Priority orders tasks; higher runs first.
type Priority int

// Task is a function run by the scheduler. A task is queued at most once at a time.
type Task struct {
	name string
	prio Priority
	fn   func(at time.Time)

	queued bool // guarded by Scheduler.mu
	runs   atomic.Uint64
}

// NewTask creates a task. fn receives the time the task was scheduled for, which
// periodic tasks use to re-arm without drift.
func NewTask(name string, prio Priority, fn func(at time.Time)) *Task {
	return &Task{name: name, prio: prio, fn: fn}
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Runs returns how many times the task ran.
func (t *Task) Runs() uint64 { return t.runs.Load() }

// Interrupt is a line other goroutines raise with a value. Values are queued in a
// bounded buffer and handled in order on the scheduler goroutine.
type Interrupt struct {
	name    string
	q       chan uint32
	handler func(v uint32)
	s       *Scheduler

	handled atomic.Uint64
	dropped atomic.Uint64
}

// Pend queues v for the handler. It never blocks; false means the queue was full and
// v was lost.
func (i *Interrupt) Pend(v uint32) bool {
	select {
	case i.q <- v:
		i.s.kick()
		return true
	default:
		i.dropped.Add(1)
		return false
	}
}

// Name returns the line name.
func (i *Interrupt) Name() string { return i.name }

// Handled returns how many values the handler processed.
func (i *Interrupt) Handled() uint64 { return i.handled.Load() }

// Dropped returns how many values Pend refused.
func (i *Interrupt) Dropped() uint64 { return i.dropped.Load() }

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now as the time source of Run.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLogger sets the scheduler logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// Scheduler runs tasks and interrupt handlers on one goroutine.
type Scheduler struct {
	now  func() time.Time
	log  zerolog.Logger
	wake chan struct{}

	mu     sync.Mutex
	timers timerHeap // spawned, not yet due
	ready  readyHeap // due, waiting for the CPU
	seq    uint64
	irqs   []*Interrupt
}

// New returns an idle scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		now:  time.Now,
		log:  zerolog.Nop(),
		wake: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewInterrupt registers an interrupt line. Lines registered first are drained
// first.
func (s *Scheduler) NewInterrupt(name string, queueLen int, handler func(v uint32)) *Interrupt {
	if queueLen <= 0 {
		panic(fmt.Sprintf("sched: interrupt %q needs a positive queue length", name))
	}
	i := &Interrupt{name: name, q: make(chan uint32, queueLen), handler: handler, s: s}
	s.mu.Lock()
	s.irqs = append(s.irqs, i)
	s.mu.Unlock()
	return i
}

// Spawn queues t to run as soon as possible. It returns false if t is already
// queued.
func (s *Scheduler) Spawn(t *Task) bool {
	return s.SpawnAt(t, s.now())
}

// SpawnAt queues t to run at or after at. It returns false if t is already queued.
func (s *Scheduler) SpawnAt(t *Task, at time.Time) bool {
	s.mu.Lock()
	if t.queued {
		s.mu.Unlock()
		return false
	}
	t.queued = true
	s.seq++
	heap.Push(&s.timers, &entry{task: t, at: at, seq: s.seq})
	s.mu.Unlock()
	s.kick()
	return true
}

func (s *Scheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// drainInterrupts runs the handler of every queued interrupt value.
func (s *Scheduler) drainInterrupts() {
	s.mu.Lock()
	irqs := s.irqs
	s.mu.Unlock()
	for {
		ran := false
		for _, i := range irqs {
			select {
			case v := <-i.q:
				i.handler(v)
				i.handled.Add(1)
				ran = true
			default:
			}
		}
		if !ran {
			return
		}
	}
}

// next moves every timer due at now to the ready queue and pops the best ready
// entry.
func (s *Scheduler) next(now time.Time) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.timers) > 0 && !s.timers[0].at.After(now) {
		heap.Push(&s.ready, heap.Pop(&s.timers))
	}
	if s.ready.Len() == 0 {
		return nil
	}
	e := heap.Pop(&s.ready).(*entry)
	e.task.queued = false
	return e
}

// Dispatch runs pending interrupt handlers and every task due at now, then reports
// the deadline of the earliest remaining task. ok is false when nothing is queued.
func (s *Scheduler) Dispatch(now time.Time) (deadline time.Time, ok bool) {
	s.drainInterrupts()
	for e := s.next(now); e != nil; e = s.next(now) {
		e.task.fn(e.at)
		e.task.runs.Add(1)
		s.drainInterrupts()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return time.Time{}, false
	}
	return s.timers[0].at, true
}

// Run dispatches until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().Msg("scheduler started")
	defer s.log.Info().Msg("scheduler stopped")

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		deadline, ok := s.Dispatch(s.now())

		var fire <-chan time.Time
		if ok {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(deadline.Sub(s.now()))
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			return nil
		case <-s.wake:
		case <-fire:
		}
	}
}

// entry is one queued task instance.
type entry struct {
	task *Task
	at   time.Time
	seq  uint64
}

// timerHeap orders entries by deadline, then spawn order.
type timerHeap []*entry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if !h[i].at.Equal(h[j].at) {
		return h[i].at.Before(h[j].at)
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*entry)) }
func (h *timerHeap) Pop() any {
	old := *h
	e := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	return e
}

// readyHeap orders due entries by priority, then deadline, then spawn order.
type readyHeap struct{ timerHeap }

func (h readyHeap) Less(i, j int) bool {
	if h.timerHeap[i].task.prio != h.timerHeap[j].task.prio {
		return h.timerHeap[i].task.prio > h.timerHeap[j].task.prio
	}
	return h.timerHeap.Less(i, j)
}
