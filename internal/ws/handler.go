package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"solardelta/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SnapshotSource lists the current snapshot of every tracked entry.
type SnapshotSource interface {
	Snapshots() []model.EntrySnapshot
}

// Handler upgrades connections and primes each new client with the current
// snapshot of every entry. The stream is one-way; resets go through the HTTP
// API.
type Handler struct {
	hub *Hub
	src SnapshotSource
}

func NewHandler(hub *Hub, src SnapshotSource) *Handler {
	return &Handler{hub: hub, src: src}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] ws: upgrade error: %v", err)
		return
	}

	client := h.hub.Add(conn)
	h.sendSnapshots(client)
	h.readPump(client)
}

func (h *Handler) sendSnapshots(c *Client) {
	for _, snap := range h.src.Snapshots() {
		msg, err := snapshotMessage(snap)
		if err != nil {
			log.Printf("[ERROR] ws: marshal snapshot for %q: %v", snap.Name, err)
			continue
		}
		select {
		case c.send <- msg:
		default:
		}
	}
}

// readPump drains client frames until the connection closes. Incoming
// messages carry no commands and are discarded.
func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WARN] ws: read error: %v", err)
			}
			return
		}
	}
}
