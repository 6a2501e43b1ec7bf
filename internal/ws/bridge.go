package ws

import (
	"log"

	"solardelta/internal/model"
)

// Bridge implements entry.Notifier and broadcasts every published snapshot to
// the WebSocket hub.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

func (b *Bridge) OnSnapshot(snap model.EntrySnapshot) {
	msg, err := snapshotMessage(snap)
	if err != nil {
		log.Printf("[ERROR] ws: marshal snapshot for %q: %v", snap.Name, err)
		return
	}
	b.hub.Broadcast(msg)
}
