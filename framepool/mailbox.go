package framepool

import "sync"

// Source tags who published a frame so that a producer can withdraw its own frame
// without touching anyone else's.
type Source uint8

const (
	SourceNone Source = iota
	SourceIngest
	SourceScreensaver
)

func (s Source) String() string {
	switch s {
	case SourceIngest:
		return "ingest"
	case SourceScreensaver:
		return "screensaver"
	}
	return "none"
}

// MailboxStats is a snapshot of mailbox counters.
type MailboxStats struct {
	Published uint64
	Evicted   uint64
	Taken     uint64
	Discarded uint64
}

// Mailbox holds at most one frame waiting to be displayed. A publish always succeeds
// and replaces any pending frame, which is returned to the pool.
type Mailbox struct {
	pool *Pool

	mu      sync.Mutex
	pending Handle
	src     Source
	has     bool
	stats   MailboxStats
}

// NewMailbox creates an empty mailbox whose frames belong to p.
func NewMailbox(p *Pool) *Mailbox {
	return &Mailbox{pool: p}
}

// Publish moves h into the mailbox. The caller's h is stale afterwards. A frame that
// was still pending is freed before Publish returns.
func (m *Mailbox) Publish(h Handle, src Source) {
	h = m.pool.move(h)

	m.mu.Lock()
	old, evict := m.pending, m.has
	m.pending, m.src, m.has = h, src, true
	m.stats.Published++
	if evict {
		m.stats.Evicted++
	}
	m.mu.Unlock()

	if evict {
		m.pool.Free(old)
	}
}

// Take removes the pending frame. ok is false when the mailbox is empty.
func (m *Mailbox) Take() (h Handle, ok bool) {
	m.mu.Lock()
	h, ok = m.pending, m.has
	m.pending, m.src, m.has = Handle{}, SourceNone, false
	if ok {
		m.stats.Taken++
	}
	m.mu.Unlock()
	return h, ok
}

// Discard frees the pending frame if it was published by src and reports whether it
// did.
func (m *Mailbox) Discard(src Source) bool {
	m.mu.Lock()
	if !m.has || m.src != src {
		m.mu.Unlock()
		return false
	}
	h := m.pending
	m.pending, m.src, m.has = Handle{}, SourceNone, false
	m.stats.Discarded++
	m.mu.Unlock()

	m.pool.Free(h)
	return true
}

// Pending reports whether a frame is waiting and who published it.
func (m *Mailbox) Pending() (Source, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.src, m.has
}

// Stats returns a snapshot of the mailbox counters.
func (m *Mailbox) Stats() MailboxStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
