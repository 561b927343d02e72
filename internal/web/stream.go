package web

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moview/moview/internal/automation"
)

const streamWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API binds to localhost; browser origin checks add nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stateHub fans automation-state updates out to connected websocket clients.
type stateHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newStateHub() *stateHub {
	return &stateHub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *stateHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *stateHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// broadcast pushes a state snapshot to every client, dropping clients whose
// writes fail.
func (h *stateHub) broadcast(state automation.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(state); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *stateHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}

// handleStateStream upgrades the request and streams automation state over
// the socket until the client disconnects.
func (h *Handler) handleStateStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	// The HTTP server set a connection deadline before the hijack; clear it
	// so the stream can outlive it.
	conn.SetReadDeadline(time.Time{})

	h.hub.add(conn)

	// Send the current state immediately so clients do not wait for the next
	// evaluation tick.
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteJSON(h.engine.State()); err != nil {
		h.hub.remove(conn)
		conn.Close()
		return
	}

	// Drain incoming messages to detect disconnects; clients have nothing to
	// send us.
	go func() {
		defer func() {
			h.hub.remove(conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
