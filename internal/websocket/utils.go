package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds one frame write. A client that cannot drain a tick
	// within this window is dropped instead of blocking the pusher.
	writeWait = 10 * time.Second

	// idleWait reaps connections with no inbound traffic. Takers legitimately
	// sit on one question for minutes, so this stays generous; the per-minute
	// tick keeps healthy clients from ever hitting it if they ping back.
	idleWait = 5 * time.Minute
)

// WriteTyped sends one typed event frame with the write deadline applied.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse frame.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadRaw reads one message with the idle deadline applied and returns the
// raw bytes. Callers decode the envelope themselves so they can dispatch on
// the action field before binding the full request.
func ReadRaw(conn *websocket.Conn) ([]byte, error) {
	_ = conn.SetReadDeadline(time.Now().Add(idleWait))
	_, raw, err := conn.ReadMessage()
	return raw, err
}
