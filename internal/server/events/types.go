// Package events fans out menumerge client events to the realtime transports.
//
// The client hooks publish into a Broker, which hands every event to each
// registered Subscriber (WebSocket, SSE, Kafka).
package events

import "time"

// EventType represents the type of event.
type EventType string

// Event types.
const (
	// Client hook events.
	SnapshotReplaced EventType = "snapshot.replaced"
	PrimarySubmitted EventType = "primary.submitted"
	CycleFailed      EventType = "cycle.failed"

	// Manual trigger from the admin endpoint.
	CycleTriggered EventType = "cycle.triggered"

	// Transport events.
	ClientConnected EventType = "client.connected"
)

// Event is one published event.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
