package telemetry

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"kestrel/internal/logging"
)

const wsIdlePingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// ServeWS upgrades r to a websocket connection and registers a new
// Client with hub for the connection's lifetime. Mirrors the
// teacher-pack's serveWS/writeWSWithHeartbeat split: a dedicated
// writer goroutine owns the connection's write side (websocket.Conn
// forbids concurrent writers), the calling goroutine just pumps
// ReadMessage to detect client-initiated close.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger.Warn().Err(err).Msg("telemetry: websocket upgrade failed")
		return
	}
	client := &Client{hub: hub, send: make(chan []byte, 32)}
	hub.Register(client)

	go func() {
		defer conn.Close()
		if err := writeWithHeartbeat(conn, client.send); err != nil {
			logging.Logger.Debug().Err(err).Msg("telemetry: client write loop ended")
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			hub.Unregister(client)
			return
		}
	}
}

func writeWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()
	ping := mustMarshal(wsMessage{Type: "ping"})

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
