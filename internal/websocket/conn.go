package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Connection is the part of *websocket.Conn a Client drives. Tests swap in
// MockConnection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

type gorillaConn struct {
	*websocket.Conn
}

// NewConnectionWrapper adapts an upgraded gorilla connection.
func NewConnectionWrapper(conn *websocket.Conn) Connection {
	return gorillaConn{Conn: conn}
}

// RemoteAddr shadows the net.Addr accessor; "" when unknown.
func (c gorillaConn) RemoteAddr() string {
	if addr := c.Conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
