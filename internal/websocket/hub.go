package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"energydash/internal/infrastructure"
	"energydash/pkg/contracts/events"
)

// ErrHubStopped is returned by Publish once the hub has been stopped.
var ErrHubStopped = errors.New("websocket hub stopped")

// Hub maintains the set of active clients and broadcasts events to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
	options Options

	totalConnections int64
	messagesSent     int64
	droppedClients   int64

	quit    chan struct{}
	done    chan struct{}
	running bool
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.BusinessMetrics, options Options) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		options:    options.withDefaults(),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in its own goroutine
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client, "normal")

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.totalConnections++
	h.mu.Unlock()

	ctx := client.context()
	h.logger.InfoContext(ctx, "Client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))
	if h.metrics != nil {
		h.metrics.WebSocketConnections.Add(ctx, 1)
	}

	welcome := events.Event{
		ID:        client.id,
		Type:      events.MessageTypeConnect,
		Timestamp: time.Now().UTC(),
		TraceID:   client.traceID,
		Data:      events.Connected{ClientID: client.id, Message: "Connected to energy dashboard"},
	}
	if data, err := json.Marshal(welcome); err == nil {
		select {
		case client.send <- data:
		default:
			h.logger.WarnContext(ctx, "Failed to send connection message - client buffer full",
				slog.String("client_id", client.id))
		}
	}
}

func (h *Hub) removeClient(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := client.context()
	h.logger.InfoContext(ctx, "Client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
	if h.metrics != nil {
		h.metrics.WebSocketConnections.Add(ctx, -1)
	}
}

func (h *Hub) deliver(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	failed := 0
	for _, client := range clients {
		select {
		case client.send <- message:
			h.mu.Lock()
			h.messagesSent++
			h.mu.Unlock()
		default:
			failed++
			h.mu.Lock()
			h.droppedClients++
			h.mu.Unlock()
			h.removeClient(client, "send buffer full")
		}
	}

	h.logger.Debug("Broadcast delivered",
		slog.Int("client_count", len(clients)),
		slog.Int("failed", failed),
		slog.Int("message_size", len(message)))
}

// Publish broadcasts event to every connected client. It implements the
// events publisher contract.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	select {
	case <-h.quit:
		return ErrHubStopped
	default:
	}
	select {
	case h.broadcast <- data:
		return nil
	case <-h.quit:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns the hub counters
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"dropped_clients":   h.droppedClients,
	}
}

// Stop stops the loop and closes every client
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}
