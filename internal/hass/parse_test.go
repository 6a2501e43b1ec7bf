package hass

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumeric(t *testing.T) {
	v, ok := ParseNumeric("759.59")
	assert.True(t, ok)
	assert.InDelta(t, 759.59, v, 0.001)

	v, ok = ParseNumeric(" -120 ")
	assert.True(t, ok)
	assert.InDelta(t, -120, v, 0.001)

	for _, s := range []string{"unknown", "unavailable", "", "on", "12,5"} {
		_, ok := ParseNumeric(s)
		assert.False(t, ok, "state %q should not parse", s)
	}
}

func TestUsable(t *testing.T) {
	assert.True(t, Usable("running"))
	assert.False(t, Usable("unknown"))
	assert.False(t, Usable("unavailable"))
	assert.False(t, Usable(""))
}

func TestWebsocketURL(t *testing.T) {
	assert.Equal(t, "ws://hass.local:8123/api/websocket", websocketURL("http://hass.local:8123"))
	assert.Equal(t, "wss://hass.local/api/websocket", websocketURL("https://hass.local/"))
	assert.Equal(t, "ws://hass.local:8123/api/websocket", websocketURL("ws://hass.local:8123/api/websocket"))
}

func TestClient_ReadState(t *testing.T) {
	c := NewClient("http://hass.local:8123", "token")
	c.dispatch(StateChange{EntityID: "sensor.pv_power", State: "500"})
	c.dispatch(StateChange{EntityID: "sensor.pump_status", State: "unavailable"})

	s, ok := c.ReadState("sensor.pv_power")
	assert.True(t, ok)
	assert.Equal(t, "500", s)

	_, ok = c.ReadState("sensor.pump_status")
	assert.False(t, ok)

	_, ok = c.ReadState("sensor.missing")
	assert.False(t, ok)
}

func TestClient_SubscribeDispatch(t *testing.T) {
	c := NewClient("http://hass.local:8123", "token")

	var got []StateChange
	c.Subscribe("sensor.pv_power", func(ch StateChange) {
		got = append(got, ch)
	})

	c.dispatch(StateChange{EntityID: "sensor.pv_power", State: "100"})
	c.dispatch(StateChange{EntityID: "sensor.other", State: "1"})

	assert.Len(t, got, 1)
	assert.Equal(t, "100", got[0].State)
}
