package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solardelta/internal/model"
)

func testSnapshot(name string) model.EntrySnapshot {
	return model.EntrySnapshot{
		Name:       name,
		Permitted:  true,
		UnawarePct: 57.3,
		UnawareFmt: "57.3",
		AwarePct:   42.1,
		AwareFmt:   "42.1",
		Averages: map[string]model.AverageValue{
			"session": {Pct: 50, Formatted: "50", ActiveSeconds: 3600, ActiveTime: "00:01:00"},
		},
		UpdatedAt: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewEnvelope(t *testing.T) {
	msg, err := NewEnvelope(TypeEntrySnapshot, testSnapshot("Pool Pump"))
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, TypeEntrySnapshot, env.Type)

	var snap model.EntrySnapshot
	require.NoError(t, json.Unmarshal(env.Payload, &snap))
	assert.Equal(t, "Pool Pump", snap.Name)
	assert.InDelta(t, 57.3, snap.UnawarePct, 0.001)
	assert.Equal(t, "00:01:00", snap.Averages["session"].ActiveTime)
}

func TestNewEnvelope_NoPayload(t *testing.T) {
	msg, err := NewEnvelope(TypeEntrySnapshot, nil)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, TypeEntrySnapshot, env.Type)
	assert.Nil(t, env.Payload)
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	c := &Client{
		hub:  hub,
		send: make(chan []byte, 16),
	}

	hub.Register(c)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()

	c1 := &Client{hub: hub, send: make(chan []byte, 16)}
	c2 := &Client{hub: hub, send: make(chan []byte, 16)}

	hub.Register(c1)
	hub.Register(c2)

	msg := []byte(`{"type":"entry:snapshot"}`)
	hub.Broadcast(msg)

	assert.Equal(t, msg, <-c1.send)
	assert.Equal(t, msg, <-c2.send)
}

func TestHub_BroadcastFullBufferDoesNotBlock(t *testing.T) {
	hub := NewHub()

	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.Register(c)

	hub.Broadcast([]byte("a"))
	hub.Broadcast([]byte("b")) // dropped, must not block

	assert.Equal(t, []byte("a"), <-c.send)
}
