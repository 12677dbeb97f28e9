// Package telemetry fans search progress out to websocket clients.
// Nothing in internal/search depends on this package: Reporter treats
// it as just another InfoSink implementation, wired in by cmd/kestrel
// when a --telemetry-addr flag is set.
package telemetry

import (
	"encoding/json"
	"sync"
)

// Hub tracks connected clients and fans wsMessage payloads out to all
// of them. Grounded on TheKrainBow-gomoku's Hub/Client broadcast
// pattern, generalized from its five hand-typed broadcast channels to
// a single channel of pre-built messages since this domain has only
// two payload shapes (info, bestmove).
type Hub struct {
	mu        sync.Mutex
	clients   map[*Client]struct{}
	broadcast chan wsMessage
}

// Client is a single connected websocket subscriber. send is buffered
// so a slow or stalled reader cannot block the hub's broadcast loop;
// a full buffer just drops the message rather than blocking or
// disconnecting the client.
type Client struct {
	hub  *Hub
	send chan []byte
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan wsMessage, 64),
	}
}

// Run drains the broadcast channel and fans each message out to every
// registered client until done is closed.
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				c.sendJSON(msg)
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (h *Hub) publish(msgType string, payload any) {
	select {
	case h.broadcast <- wsMessage{Type: msgType, Payload: mustMarshal(payload)}:
	default:
		// Hub.Run isn't keeping up; drop rather than block the search
		// goroutine that's feeding InfoSink.
	}
}

func (c *Client) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
