package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/totally-not-vj/tempo-traffic-control/internal/traffic"
)

func TestFormatPayload(t *testing.T) {
	event := SwitchEvent{
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		From:      traffic.North,
		To:        traffic.South,
		Reason:    traffic.ReasonStarvation,
		Counts:    traffic.Counts{North: 1, South: 20, East: 2, West: 3},
	}

	data, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if p.Signal.Timestamp != "2026-01-01T12:00:00Z" {
		t.Errorf("timestamp: got %q", p.Signal.Timestamp)
	}
	if p.Signal.From != "north" || p.Signal.To != "south" {
		t.Errorf("transition: got %s -> %s, want north -> south", p.Signal.From, p.Signal.To)
	}
	if p.Signal.Reason != "STARVATION" {
		t.Errorf("reason: got %q, want STARVATION", p.Signal.Reason)
	}
	if p.Signal.Counts.South != 20 {
		t.Errorf("south count: got %d, want 20", p.Signal.Counts.South)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	data, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}

	var p SystemPayload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal system payload: %v", err)
	}
	if p.System.Event != "SHUTDOWN" || p.System.Reason != "SIGTERM" {
		t.Errorf("got event=%q reason=%q", p.System.Event, p.System.Reason)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"signal":"north"}}`)
	event := SystemEvent{Event: "HEARTBEAT", RawPayload: raw}

	data, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}
	if string(data) != string(raw) {
		t.Errorf("raw payload not passed through: got %s", data)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	event := SwitchEvent{To: traffic.East, Reason: traffic.ReasonMaxTime}
	if err := f.Publish(event); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	if len(f.Events) != 1 || f.Events[0].To != traffic.East {
		t.Errorf("events: got %+v", f.Events)
	}
	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("system events: got %+v", f.SystemEvents)
	}
	if len(f.Payloads) != 1 || len(f.SystemPayloads) != 1 {
		t.Errorf("payloads: got %d/%d, want 1/1", len(f.Payloads), len(f.SystemPayloads))
	}

	f.Reset()
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("Reset did not clear recorded events")
	}
}
