// Package events contains the notification contract shared by the WebSocket
// hub and the Kafka publisher.
package events

import (
	"time"
)

// MessageType defines the type of a notification
type MessageType string

const (
	// MessageTypeConnect is sent to a client once it is registered.
	MessageTypeConnect MessageType = "connect"
	// MessageTypeDatasetReloaded announces a new snapshot.
	MessageTypeDatasetReloaded MessageType = "dataset.reloaded"
	// MessageTypeReloadFailed announces a reload that kept the old snapshot.
	MessageTypeReloadFailed MessageType = "dataset.reload_failed"
)

// Event is the envelope of every notification.
type Event struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// DatasetReloaded is the payload of MessageTypeDatasetReloaded.
type DatasetReloaded struct {
	Datasets   []DatasetSummary `json:"datasets"`
	LoadedAt   time.Time        `json:"loaded_at"`
	DurationMS int64            `json:"duration_ms"`
}

// DatasetSummary is the per-dataset part of a reload notification.
type DatasetSummary struct {
	Name       string `json:"name"`
	Records    int    `json:"records"`
	Sites      int    `json:"sites"`
	Dropped    int    `json:"dropped"`
	Unresolved int    `json:"unresolved"`
}

// ReloadFailed is the payload of MessageTypeReloadFailed.
type ReloadFailed struct {
	Error string `json:"error"`
}

// Connected is the payload of MessageTypeConnect.
type Connected struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}
