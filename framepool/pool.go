// Package framepool provides a fixed set of frame buffers handed between producers and
// the display as move-only handles, plus the single-slot mailbox that carries the next
// frame to show.
//
// The pool never grows. A Handle names one slot and one generation of it. Freeing a
// slot or moving it through a Mailbox bumps the generation, so every copy of the old
// handle goes stale and using it panics with ErrStaleHandle.
package framepool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/flavioheleno/dm163/image8x8"
)

// DefaultSlots is the number of frames the matrix runs with: one being displayed,
// one being filled by ingest and one parked in the mailbox.
const DefaultSlots = 3

// ErrStaleHandle is the panic value raised when a freed or moved handle is used.
var ErrStaleHandle = errors.New("framepool: stale handle")

// Pool is a fixed-capacity arena of frames.
type Pool struct {
	frames []image8x8.Frame
	gens   []atomic.Uint32

	mu        sync.Mutex
	free      []int
	exhausted uint64
}

// New creates a pool with n frames. It panics if n is not positive.
func New(n int) *Pool {
	if n <= 0 {
		panic(fmt.Sprintf("framepool: invalid slot count %d", n))
	}
	p := &Pool{
		frames: make([]image8x8.Frame, n),
		gens:   make([]atomic.Uint32, n),
		free:   make([]int, n),
	}
	for i := range p.free {
		p.free[i] = n - 1 - i
	}
	return p
}

// Handle is exclusive ownership of one pool slot. The zero Handle is invalid.
type Handle struct {
	p   *Pool
	idx int
	gen uint32
}

// Alloc takes a free slot and returns it cleared to black. ok is false when every
// slot is owned; the pool does not block or grow.
func (p *Pool) Alloc() (h Handle, ok bool) {
	p.mu.Lock()
	n := len(p.free)
	if n == 0 {
		p.exhausted++
		p.mu.Unlock()
		return Handle{}, false
	}
	idx := p.free[n-1]
	p.free = p.free[:n-1]
	gen := p.gens[idx].Add(1)
	p.mu.Unlock()

	// The slot is exclusively ours now, clear it without holding the lock.
	p.frames[idx].Reset()
	return Handle{p: p, idx: idx, gen: gen}, true
}

// Free returns the slot owned by h to the pool. h and all its copies become stale.
// Freeing a stale handle panics with ErrStaleHandle.
func (p *Pool) Free(h Handle) {
	if h.p != p {
		panic(ErrStaleHandle)
	}
	p.mu.Lock()
	if !p.gens[h.idx].CompareAndSwap(h.gen, h.gen+1) {
		p.mu.Unlock()
		panic(ErrStaleHandle)
	}
	p.free = append(p.free, h.idx)
	p.mu.Unlock()
}

// move transfers ownership to a new handle for the same slot, invalidating h.
func (p *Pool) move(h Handle) Handle {
	if h.p != p || !p.gens[h.idx].CompareAndSwap(h.gen, h.gen+1) {
		panic(ErrStaleHandle)
	}
	return Handle{p: p, idx: h.idx, gen: h.gen + 1}
}

// Cap returns the number of slots.
func (p *Pool) Cap() int {
	return len(p.frames)
}

// InUse returns the number of slots currently owned.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames) - len(p.free)
}

// Exhausted returns how many Alloc calls found no free slot.
func (p *Pool) Exhausted() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

// Valid reports whether h still owns its slot.
func (h Handle) Valid() bool {
	return h.p != nil && h.p.gens[h.idx].Load() == h.gen
}

// Frame returns the frame owned by h. It panics with ErrStaleHandle if h was freed
// or moved.
func (h Handle) Frame() *image8x8.Frame {
	if !h.Valid() {
		panic(ErrStaleHandle)
	}
	return &h.p.frames[h.idx]
}

// Slot returns the slot index, for diagnostics.
func (h Handle) Slot() int {
	return h.idx
}

func (h Handle) String() string {
	if h.p == nil {
		return "framepool.Handle{}"
	}
	return fmt.Sprintf("framepool.Handle{slot: %d, gen: %d}", h.idx, h.gen)
}
