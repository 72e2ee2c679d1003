package control

import (
	"errors"
	"testing"
	"time"

	"github.com/totally-not-vj/tempo-traffic-control/internal/mqtt"
	"github.com/totally-not-vj/tempo-traffic-control/internal/state"
	"github.com/totally-not-vj/tempo-traffic-control/internal/traffic"
)

func newTestGateway(t *testing.T) (*Gateway, *state.Store, *mqtt.FakePublisher, time.Time) {
	t.Helper()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := state.New(start, state.Config{Broker: "tcp://localhost:1883"})
	pub := mqtt.NewFakePublisher()
	at := start.Add(10 * time.Second)
	g := NewGateway(store, pub, func() time.Time { return at })
	return g, store, pub, at
}

func TestSetManual(t *testing.T) {
	g, store, pub, at := newTestGateway(t)

	snap, err := g.SetManual("EAST")
	if err != nil {
		t.Fatalf("SetManual: %v", err)
	}
	if snap.Active != traffic.East || !snap.Override {
		t.Errorf("got active=%s override=%v, want east/true", snap.Active, snap.Override)
	}
	if !snap.PhaseStart.Equal(at) {
		t.Errorf("phase start: got %v, want %v", snap.PhaseStart, at)
	}

	// The store itself must reflect the override.
	if got := store.Snapshot(); got.Active != traffic.East || !got.Override {
		t.Errorf("store: got active=%s override=%v", got.Active, got.Override)
	}

	if len(pub.Events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.Events))
	}
	event := pub.Events[0]
	if event.From != traffic.North || event.To != traffic.East || event.Reason != traffic.ReasonManual {
		t.Errorf("event: got %s -> %s (%s)", event.From, event.To, event.Reason)
	}
}

func TestSetManualInvalidDirection(t *testing.T) {
	g, store, pub, _ := newTestGateway(t)

	before := store.Snapshot()
	snap, err := g.SetManual("northeast")
	if err == nil {
		t.Fatal("expected error for invalid direction")
	}
	var invalid *traffic.InvalidDirectionError
	if !errors.As(err, &invalid) {
		t.Fatalf("error type %T, want *traffic.InvalidDirectionError", err)
	}

	// No mutation at all: the returned and stored state match the prior state.
	after := store.Snapshot()
	before.Now, after.Now, snap.Now = time.Time{}, time.Time{}, time.Time{}
	if after != before {
		t.Errorf("state changed on invalid direction:\nbefore %+v\nafter  %+v", before, after)
	}
	if snap != before {
		t.Errorf("returned snapshot changed on invalid direction: %+v", snap)
	}
	if len(pub.Events) != 0 {
		t.Errorf("expected no published events, got %d", len(pub.Events))
	}
}

func TestClearManual(t *testing.T) {
	g, store, pub, at := newTestGateway(t)

	if _, err := g.SetManual("south"); err != nil {
		t.Fatalf("SetManual: %v", err)
	}
	pub.Reset()

	snap := g.ClearManual()
	if snap.Override {
		t.Error("override should be clear")
	}
	if snap.Active != traffic.South {
		t.Errorf("active: got %s, want south (clear must not touch it)", snap.Active)
	}
	if !snap.PhaseStart.Equal(at) {
		t.Errorf("phase start: got %v, want %v (clear must not reset it)", snap.PhaseStart, at)
	}

	if len(pub.Events) != 1 || pub.Events[0].Reason != traffic.ReasonResume {
		t.Fatalf("expected one RESUME event, got %+v", pub.Events)
	}

	// Idempotent: a second clear changes nothing and emits nothing.
	pub.Reset()
	second := g.ClearManual()
	snap.Now, second.Now = time.Time{}, time.Time{}
	if second != snap {
		t.Errorf("double clear diverged:\nfirst  %+v\nsecond %+v", snap, second)
	}
	if len(pub.Events) != 0 {
		t.Errorf("second clear should not publish, got %d events", len(pub.Events))
	}
	_ = store
}

func TestGatewayPublishFailureDoesNotBlockOverride(t *testing.T) {
	g, store, pub, _ := newTestGateway(t)
	pub.PublishError = errors.New("broker down")

	if _, err := g.SetManual("west"); err != nil {
		t.Fatalf("SetManual: %v", err)
	}
	if got := store.Snapshot(); got.Active != traffic.West || !got.Override {
		t.Errorf("override not applied despite publish failure: %+v", got)
	}
}
