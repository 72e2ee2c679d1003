package state

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for lifecycle status payloads.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event            string     `json:"event,omitempty"`
	Reason           string     `json:"reason,omitempty"`
	Signal           string     `json:"signal"`
	ManualOverride   bool       `json:"manual_override"`
	DetectionActive  bool       `json:"detection_active"`
	PhaseAgeSeconds  int64      `json:"phase_age_seconds"`
	UptimeSeconds    int64      `json:"uptime_seconds"`
	StartTime        string     `json:"start_time"`
	Timestamp        string     `json:"timestamp"`
	Counts           CountsJSON `json:"counts"`
	TotalVehicles    int        `json:"total_vehicles"`
	MQTT             MQTTStatus `json:"mqtt"`
	Config           ConfigJSON `json:"config"`
}

// CountsJSON is the JSON representation of per-direction counts.
type CountsJSON struct {
	North int `json:"north"`
	South int `json:"south"`
	East  int `json:"east"`
	West  int `json:"west"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	CycleMs     int64  `json:"cycle_ms"`
	BackoffMs   int64  `json:"backoff_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	CountsTopic string `json:"counts_topic"`
	HTTPAddr    string `json:"http_addr"`
}

// FormatStatusEvent returns the JSON status payload for an MQTT lifecycle
// event (STARTUP, SHUTDOWN, HEARTBEAT).
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := StatusInner{
		Event:           event,
		Reason:          reason,
		Signal:          string(snap.Active),
		ManualOverride:  snap.Override,
		DetectionActive: snap.DetectionActive,
		PhaseAgeSeconds: int64(snap.PhaseAge().Truncate(time.Second).Seconds()),
		UptimeSeconds:   int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:       snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:       snap.Now.UTC().Format(time.RFC3339),
		Counts: CountsJSON{
			North: snap.Counts.North,
			South: snap.Counts.South,
			East:  snap.Counts.East,
			West:  snap.Counts.West,
		},
		TotalVehicles: snap.Counts.Total(),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			CycleMs:     snap.Config.CycleMs,
			BackoffMs:   snap.Config.BackoffMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			CountsTopic: snap.Config.CountsTopic,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
