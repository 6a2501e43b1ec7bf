package ws

import (
	"encoding/json"

	"solardelta/internal/model"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Server -> Client
	TypeEntrySnapshot = "entry:snapshot"
)

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func snapshotMessage(snap model.EntrySnapshot) ([]byte, error) {
	return NewEnvelope(TypeEntrySnapshot, snap)
}
