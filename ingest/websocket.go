package ingest

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WebSocket accepts frames over WebSocket connections. The payload of every binary
// message is queued byte by byte, exactly as if it had arrived on the serial line, so
// clients send the same sentinel framed stream. Text messages are ignored and nothing
// is ever written back.
type WebSocket struct {
	p   Pender
	log zerolog.Logger
	up  websocket.Upgrader

	// Serializes messages so concurrent clients do not interleave bytes.
	mu sync.Mutex
	Counters
}

// NewWebSocket returns a handler queuing into p.
func NewWebSocket(p Pender, log zerolog.Logger) *WebSocket {
	return &WebSocket{
		p:   p,
		log: log,
		up:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// ServeHTTP upgrades the request and reads messages until the client goes away.
func (h *WebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.up.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	remote := r.RemoteAddr
	h.log.Info().Str("remote", remote).Msg("websocket client connected")
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn().Err(err).Str("remote", remote).Msg("websocket read")
			}
			break
		}
		if typ != websocket.BinaryMessage {
			continue
		}
		h.mu.Lock()
		refused := Feed(h.p, data, &h.Counters)
		h.mu.Unlock()
		if refused > 0 {
			h.log.Debug().Int("refused", refused).Str("remote", remote).Msg("receive queue full, bytes dropped")
		}
	}
	h.log.Info().Str("remote", remote).Msg("websocket client disconnected")
}
