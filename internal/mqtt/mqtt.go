// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/totally-not-vj/tempo-traffic-control/internal/traffic"
)

// Topic is the MQTT topic for signal switch events.
const Topic = "traffic/intersection/signal/events"

// TopicSystem is the MQTT topic for daemon lifecycle events.
const TopicSystem = "traffic/intersection/signal/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a signal switch event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event SwitchEvent) error

	// PublishSystem sends a daemon lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SwitchEvent records one change of the active green direction.
type SwitchEvent struct {
	Timestamp time.Time
	From      traffic.Direction
	To        traffic.Direction
	Reason    traffic.SwitchReason
	Counts    traffic.Counts
}

// SystemEvent represents a daemon lifecycle event (startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure for switch events.
type Payload struct {
	Signal SignalPayload `json:"signal"`
}

// SignalPayload contains the switch event details.
type SignalPayload struct {
	Timestamp string     `json:"timestamp"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Reason    string     `json:"reason"`
	Counts    CountsJSON `json:"counts"`
}

// CountsJSON is the JSON representation of per-direction counts.
type CountsJSON struct {
	North int `json:"north"`
	South int `json:"south"`
	East  int `json:"east"`
	West  int `json:"west"`
}

// FormatPayload creates the JSON payload for a switch event.
func FormatPayload(event SwitchEvent) ([]byte, error) {
	payload := Payload{
		Signal: SignalPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			From:      string(event.From),
			To:        string(event.To),
			Reason:    string(event.Reason),
			Counts: CountsJSON{
				North: event.Counts.North,
				South: event.Counts.South,
				East:  event.Counts.East,
				West:  event.Counts.West,
			},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
