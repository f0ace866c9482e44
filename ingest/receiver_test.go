package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/dm163/framepool"
	"github.com/flavioheleno/dm163/image8x8"
)

type rig struct {
	pool     *framepool.Pool
	mb       *framepool.Mailbox
	rx       *Receiver
	notified int
}

func newRig(t *testing.T) *rig {
	t.Helper()
	g := &rig{pool: framepool.New(framepool.DefaultSlots)}
	g.mb = framepool.NewMailbox(g.pool)
	rx, err := NewReceiver(g.pool, g.mb, WithNotify(func() { g.notified++ }))
	require.NoError(t, err)
	g.rx = rx
	return g
}

func (g *rig) send(b ...byte) {
	for _, v := range b {
		g.rx.Handle(DataWord(v))
	}
}

// payload returns 192 bytes where byte i is i%251, never the sentinel.
func payload() []byte {
	p := make([]byte, image8x8.Size)
	for i := range p {
		p[i] = byte(i % 251)
	}
	return p
}

func (g *rig) take(t *testing.T) [image8x8.Size]byte {
	t.Helper()
	h, ok := g.mb.Take()
	require.True(t, ok, "no frame published")
	defer g.pool.Free(h)
	return h.Frame().Bytes()
}

func TestReceiverFullFrame(t *testing.T) {
	g := newRig(t)
	p := payload()
	g.send(Sentinel)
	g.send(p...)

	got := g.take(t)
	assert.Equal(t, p, got[:])
	assert.Equal(t, 1, g.notified)
	assert.Equal(t, Stats{Completed: 1}, g.rx.Stats())

	_, filling := g.rx.Filling()
	assert.False(t, filling, "must await a sentinel after a complete frame")
}

func TestReceiverIgnoresUntilSentinel(t *testing.T) {
	g := newRig(t)
	g.send(1, 2, 3)
	g.send(Sentinel)
	g.send(payload()...)
	g.send(9, 9, 9)

	got := g.take(t)
	assert.Equal(t, payload(), got[:])
	assert.Equal(t, uint64(6), g.rx.Stats().Ignored)
	_, ok := g.mb.Pending()
	assert.False(t, ok, "trailing bytes must not start a new frame")
}

func TestReceiverResyncMidFrame(t *testing.T) {
	for _, k := range []int{1, 50, 191} {
		g := newRig(t)
		stale := make([]byte, k)
		for i := range stale {
			stale[i] = 0xAA
		}
		g.send(Sentinel)
		g.send(stale...)
		cursor, ok := g.rx.Filling()
		require.True(t, ok)
		require.Equal(t, k, cursor)

		g.send(Sentinel)
		g.send(payload()...)

		got := g.take(t)
		assert.Equal(t, payload(), got[:], "resync at %d", k)
		assert.Equal(t, uint64(1), g.rx.Stats().Resyncs)
	}
}

func TestReceiverRepeatedSentinels(t *testing.T) {
	g := newRig(t)
	g.send(Sentinel, Sentinel, Sentinel)
	g.send(payload()...)
	got := g.take(t)
	assert.Equal(t, payload(), got[:])
	assert.Equal(t, uint64(0), g.rx.Stats().Resyncs)
}

func TestReceiverLineError(t *testing.T) {
	tests := []struct {
		name string
		flag Word
	}{
		{"framing", FlagFraming},
		{"parity", FlagParity},
		{"break", FlagBreak},
		{"overrun", FlagOverrun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newRig(t)
			p := payload()
			g.send(Sentinel)
			g.send(p[:10]...)
			// A corrupted byte is dropped without moving the cursor.
			g.rx.Handle(DataWord(0x42) | tt.flag)
			cursor, _ := g.rx.Filling()
			assert.Equal(t, 10, cursor)

			// A corrupted sentinel does not resync either.
			g.rx.Handle(DataWord(Sentinel) | tt.flag)
			g.send(p[10:]...)

			got := g.take(t)
			assert.Equal(t, p, got[:])
			assert.Equal(t, uint64(2), g.rx.Stats().LineErrors)
		})
	}
}

func TestReceiverPoolExhausted(t *testing.T) {
	g := newRig(t)
	// Hold the two remaining slots, as display and a pending frame would.
	a, ok := g.pool.Alloc()
	require.True(t, ok)
	b, ok := g.pool.Alloc()
	require.True(t, ok)

	g.send(Sentinel)
	g.send(payload()...)

	_, pending := g.mb.Pending()
	assert.False(t, pending)
	assert.Equal(t, Stats{Dropped: 1}, g.rx.Stats())
	assert.Equal(t, 1, g.notified)

	// Once a slot is back, the next frame goes through.
	g.pool.Free(a)
	g.send(Sentinel)
	g.send(payload()...)
	got := g.take(t)
	assert.Equal(t, payload(), got[:])
	g.pool.Free(b)
}

func TestReceiverLastFrameWins(t *testing.T) {
	g := newRig(t)
	first := payload()
	second := payload()
	second[0] = 0x11

	g.send(Sentinel)
	g.send(first...)
	g.send(Sentinel)
	g.send(second...)

	got := g.take(t)
	assert.Equal(t, second, got[:])
	assert.Equal(t, uint64(1), g.mb.Stats().Evicted)
	assert.Equal(t, 1, g.pool.InUse(), "only the receiver's in-flight frame stays owned")
}

func TestNewReceiverNoSlot(t *testing.T) {
	pool := framepool.New(1)
	_, ok := pool.Alloc()
	require.True(t, ok)
	_, err := NewReceiver(pool, framepool.NewMailbox(pool))
	assert.Error(t, err)
}

func TestWord(t *testing.T) {
	w := DataWord(0x7F) | FlagParity
	assert.Equal(t, byte(0x7F), w.Data())
	assert.True(t, w.Err())
	assert.False(t, DataWord(0xFF).Err())
	assert.Equal(t, "0x7f|PE", w.String())
}
