package framepool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/dm163/image8x8"
)

func alloc(t *testing.T, p *Pool, c image8x8.Color) Handle {
	t.Helper()
	h, ok := p.Alloc()
	require.True(t, ok)
	h.Frame().Fill(c)
	return h
}

func TestMailboxLastPublishWins(t *testing.T) {
	p := New(DefaultSlots)
	m := NewMailbox(p)

	a := alloc(t, p, image8x8.Red)
	b := alloc(t, p, image8x8.Blue)
	m.Publish(a, SourceIngest)
	m.Publish(b, SourceIngest)

	// a was evicted and returned to the pool.
	assert.Equal(t, 1, p.InUse())
	assert.False(t, a.Valid())
	assert.False(t, b.Valid(), "published handle must not stay usable by the producer")

	h, ok := m.Take()
	require.True(t, ok)
	assert.Equal(t, image8x8.Blue, h.Frame().ColorAt(0, 0))

	_, ok = m.Take()
	assert.False(t, ok)

	assert.Equal(t, MailboxStats{Published: 2, Evicted: 1, Taken: 1}, m.Stats())
}

func TestMailboxDiscard(t *testing.T) {
	p := New(DefaultSlots)
	m := NewMailbox(p)

	assert.False(t, m.Discard(SourceScreensaver))

	m.Publish(alloc(t, p, image8x8.Green), SourceIngest)
	assert.False(t, m.Discard(SourceScreensaver), "must not drop another producer's frame")
	src, ok := m.Pending()
	assert.True(t, ok)
	assert.Equal(t, SourceIngest, src)

	m.Publish(alloc(t, p, image8x8.Red), SourceScreensaver)
	assert.True(t, m.Discard(SourceScreensaver))
	_, ok = m.Pending()
	assert.False(t, ok)
	assert.Equal(t, 0, p.InUse())
	assert.Equal(t, uint64(1), m.Stats().Discarded)
}

func TestMailboxPublishStale(t *testing.T) {
	p := New(DefaultSlots)
	m := NewMailbox(p)
	h := alloc(t, p, image8x8.Red)
	m.Publish(h, SourceIngest)
	assert.PanicsWithValue(t, ErrStaleHandle, func() { m.Publish(h, SourceIngest) })
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "ingest", SourceIngest.String())
	assert.Equal(t, "screensaver", SourceScreensaver.String())
	assert.Equal(t, "none", SourceNone.String())
}
