package websocket

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"energydash/internal/config"
	"energydash/internal/infrastructure"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	defaultPongWait = 60 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512

	sendBuffer = 64
)

// Options tunes client keepalive.
type Options struct {
	PongWait   time.Duration
	PingPeriod time.Duration
}

// OptionsFrom reads the keepalive settings of cfg.
func OptionsFrom(cfg config.WebSocketConfig) Options {
	return Options{PongWait: cfg.PongWait, PingPeriod: cfg.PingPeriod}
}

func (o Options) withDefaults() Options {
	if o.PongWait <= 0 {
		o.PongWait = defaultPongWait
	}
	// pings must go out before the peer's read deadline expires
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = (o.PongWait * 9) / 10
	}
	return o
}

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn Connection
	send chan []byte

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger
}

// NewClient creates a client for conn. traceID may be empty.
func NewClient(hub *Hub, conn Connection, traceID string) *Client {
	id := uuid.New().String()
	logger := hub.logger.With(
		slog.String("component", "websocket.client"),
		slog.String("client_id", id),
	)
	if traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger:      logger,
	}
}

// ID returns the client identifier
func (c *Client) ID() string { return c.id }

func (c *Client) context() context.Context {
	if c.traceID == "" {
		return context.Background()
	}
	return infrastructure.WithTraceID(context.Background(), c.traceID)
}

// ReadPump drains the connection until it fails. Clients only send
// heartbeats; everything they send is otherwise ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	pongWait := c.hub.options.PongWait
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(c.context(), "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
		if string(message) == `{"type":"heartbeat"}` {
			c.conn.SetReadDeadline(time.Now().Add(pongWait))
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.options.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.context(), "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.context(), "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}

// Serve registers conn with the hub and runs its pumps. It returns
// immediately; the pumps stop when the peer goes away or the hub stops.
func Serve(hub *Hub, conn Connection, traceID string) *Client {
	client := NewClient(hub, conn, traceID)
	hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
	return client
}
