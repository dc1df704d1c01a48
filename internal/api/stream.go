package api

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/hearthfall/internal/game"
)

const (
	maxStreamConns  = 8
	streamBuffer    = 256
	streamWriteWait = 5 * time.Second
	streamPingEvery = 30 * time.Second
)

// streamHub fans simulation event records out to websocket subscribers. The
// simulation pushes records from the tick goroutine; a full subscriber buffer
// drops records rather than stalling the tick.
type streamHub struct {
	mu    sync.Mutex
	subs  map[chan game.Record]struct{}
	conns int32
}

func newStreamHub(sim *game.Simulation) *streamHub {
	h := &streamHub{subs: make(map[chan game.Record]struct{})}
	sim.Watch(func(rec game.Record) {
		h.mu.Lock()
		for ch := range h.subs {
			select {
			case ch <- rec:
			default: // slow consumer, drop
			}
		}
		h.mu.Unlock()
	})
	return h
}

func (h *streamHub) subscribe() chan game.Record {
	ch := make(chan game.Record, streamBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *streamHub) unsubscribe(ch chan game.Record) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// handleStream upgrades to a websocket and relays event records as JSON
// messages until the client disconnects.
func (s *Server) handleStream() http.HandlerFunc {
	hub := newStreamHub(s.Sim)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 4 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&hub.conns) >= maxStreamConns {
			http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		atomic.AddInt32(&hub.conns, 1)
		slog.Info("stream client connected", "remote", r.RemoteAddr)

		ch := hub.subscribe()
		defer func() {
			hub.unsubscribe(ch)
			atomic.AddInt32(&hub.conns, -1)
			conn.Close()
			slog.Info("stream client disconnected", "remote", r.RemoteAddr)
		}()

		// Reader goroutine: we never expect client messages, but reading is
		// required to notice closes and answer control frames.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(streamPingEvery)
		defer ping.Stop()

		for {
			select {
			case rec := <-ch:
				conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteJSON(rec); err != nil {
					return
				}
			case <-ping.C:
				conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}
}
