// Package events publishes dashboard notifications. A Fanout delivers each
// event to every configured sink: the WebSocket hub always, Kafka when
// enabled.
package events
