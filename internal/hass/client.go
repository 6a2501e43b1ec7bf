// Package hass connects to a Home Assistant instance over its websocket API
// and exposes the two capabilities the trackers consume: subscribing to
// entity state changes and reading the current state of an entity.
package hass

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// States Home Assistant reports for entities without a usable value.
const (
	StateUnknown     = "unknown"
	StateUnavailable = "unavailable"
)

// StateChange is one entity state notification.
type StateChange struct {
	EntityID string
	State    string
	At       time.Time
}

// Handler receives state changes for a subscribed entity. Handlers must not
// block; they are invoked from the client's read loop.
type Handler func(ch StateChange)

// Bus is the capability surface the trackers consume.
type Bus interface {
	// Subscribe registers a handler for an entity's state changes.
	Subscribe(entityID string, h Handler)
	// ReadState returns the entity's current state, reporting false when the
	// entity is unknown to the client or carries no usable state.
	ReadState(entityID string) (string, bool)
}

// Client maintains a websocket connection to Home Assistant, re-dialing with
// backoff when the connection drops. On every (re)connect it authenticates,
// subscribes to state_changed events, and primes the state cache via
// get_states so subscribers do not wait for the first change event.
type Client struct {
	url   string
	token string

	mu     sync.RWMutex
	states map[string]string
	subs   map[string][]Handler
}

var _ Bus = (*Client)(nil)

// NewClient creates a client for the given base URL (http, https, ws or wss
// scheme) and long-lived access token.
func NewClient(url, token string) *Client {
	return &Client{
		url:    websocketURL(url),
		token:  token,
		states: make(map[string]string),
		subs:   make(map[string][]Handler),
	}
}

func websocketURL(base string) string {
	u := strings.TrimRight(base, "/")
	u = strings.Replace(u, "http://", "ws://", 1)
	u = strings.Replace(u, "https://", "wss://", 1)
	if !strings.HasSuffix(u, "/api/websocket") {
		u += "/api/websocket"
	}
	return u
}

// Subscribe registers a handler for an entity's state changes.
func (c *Client) Subscribe(entityID string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[entityID] = append(c.subs[entityID], h)
}

// ReadState returns the cached state of an entity. unknown/unavailable
// states report false: callers treat them as gate-closed, not as errors.
func (c *Client) ReadState(entityID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.states[entityID]
	if !ok || !Usable(s) {
		return "", false
	}
	return s, true
}

// Usable reports whether a state string carries a usable value.
func Usable(state string) bool {
	return state != "" && state != StateUnknown && state != StateUnavailable
}

// Run connects and processes events until the context is cancelled,
// reconnecting with capped exponential backoff.
func (c *Client) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if err := c.connectAndServe(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] home assistant connection lost: %v (retrying in %v)", err, backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

type serverMsg struct {
	ID      int             `json:"id"`
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Event   *eventMsg       `json:"event"`
	Result  json.RawMessage `json:"result"`
}

type eventMsg struct {
	EventType string `json:"event_type"`
	Data      struct {
		EntityID string   `json:"entity_id"`
		NewState *haState `json:"new_state"`
	} `json:"data"`
	TimeFired time.Time `json:"time_fired"`
}

type haState struct {
	EntityID    string    `json:"entity_id"`
	State       string    `json:"state"`
	LastChanged time.Time `json:"last_changed"`
}

func (c *Client) connectAndServe(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := c.authenticate(conn); err != nil {
		return err
	}

	// id 1: event subscription, id 2: state prime
	sub := map[string]interface{}{"id": 1, "type": "subscribe_events", "event_type": "state_changed"}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe_events: %w", err)
	}
	if err := conn.WriteJSON(map[string]interface{}{"id": 2, "type": "get_states"}); err != nil {
		return fmt.Errorf("get_states: %w", err)
	}

	log.Printf("[INFO] connected to home assistant at %s", c.url)

	// Close the connection when the context ends to unblock ReadJSON.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var msg serverMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		switch msg.Type {
		case "result":
			if !msg.Success {
				log.Printf("[WARN] home assistant command %d failed", msg.ID)
				continue
			}
			if msg.ID == 2 && msg.Result != nil {
				c.prime(msg.Result)
			}
		case "event":
			if msg.Event == nil || msg.Event.EventType != "state_changed" {
				continue
			}
			ns := msg.Event.Data.NewState
			if ns == nil {
				continue
			}
			at := msg.Event.TimeFired
			if at.IsZero() {
				at = time.Now()
			}
			c.dispatch(StateChange{EntityID: msg.Event.Data.EntityID, State: ns.State, At: at})
		}
	}
}

func (c *Client) authenticate(conn *websocket.Conn) error {
	var hello serverMsg
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("read auth_required: %w", err)
	}
	if hello.Type != "auth_required" {
		return fmt.Errorf("unexpected greeting %q", hello.Type)
	}

	auth := map[string]string{"type": "auth", "access_token": c.token}
	if err := conn.WriteJSON(auth); err != nil {
		return fmt.Errorf("send auth: %w", err)
	}

	var reply serverMsg
	if err := conn.ReadJSON(&reply); err != nil {
		return fmt.Errorf("read auth reply: %w", err)
	}
	if reply.Type != "auth_ok" {
		return fmt.Errorf("authentication rejected: %s", reply.Type)
	}
	return nil
}

// prime loads the get_states result into the cache and notifies subscribers
// so every tracker runs an initial update cycle with current values.
func (c *Client) prime(result json.RawMessage) {
	var states []haState
	if err := json.Unmarshal(result, &states); err != nil {
		log.Printf("[WARN] parse get_states result: %v", err)
		return
	}

	now := time.Now()
	for _, s := range states {
		c.dispatch(StateChange{EntityID: s.EntityID, State: s.State, At: now})
	}
	log.Printf("[INFO] primed %d entity states", len(states))
}

func (c *Client) dispatch(ch StateChange) {
	c.mu.Lock()
	c.states[ch.EntityID] = ch.State
	handlers := c.subs[ch.EntityID]
	c.mu.Unlock()

	for _, h := range handlers {
		h(ch)
	}
}
