package state

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/totally-not-vj/tempo-traffic-control/internal/traffic"
)

func testConfig() Config {
	return Config{
		CycleMs:     100,
		BackoffMs:   1000,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		CountsTopic: "traffic/intersection/counts",
		HTTPAddr:    ":5000",
	}
}

func TestNewStore(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New(start, testConfig())

	snap := s.Snapshot()
	if snap.Active != traffic.North {
		t.Errorf("initial active: got %s, want north", snap.Active)
	}
	if snap.Override {
		t.Error("initial override should be false")
	}
	if snap.Counts != (traffic.Counts{}) {
		t.Errorf("initial counts: got %+v, want zero", snap.Counts)
	}
	if !snap.PhaseStart.Equal(start) {
		t.Errorf("initial phase start: got %v, want %v", snap.PhaseStart, start)
	}
	if !snap.StartTime.Equal(start) {
		t.Errorf("start time: got %v, want %v", snap.StartTime, start)
	}
	if snap.Now.IsZero() {
		t.Error("snapshot Now should be populated")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New(start, testConfig())

	snap := s.Snapshot()
	s.SetCounts(traffic.Counts{North: 9})

	if snap.Counts.North != 0 {
		t.Error("earlier snapshot changed after SetCounts")
	}
	if got := s.Snapshot().Counts.North; got != 9 {
		t.Errorf("new snapshot north: got %d, want 9", got)
	}
}

func TestSwitchResetsPhaseTimer(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New(start, testConfig())

	at := start.Add(10 * time.Second)
	s.Switch(traffic.East, at)

	snap := s.Snapshot()
	if snap.Active != traffic.East {
		t.Errorf("active: got %s, want east", snap.Active)
	}
	if !snap.PhaseStart.Equal(at) {
		t.Errorf("phase start: got %v, want %v", snap.PhaseStart, at)
	}

	// A self-switch must still reset the timer.
	later := at.Add(31 * time.Second)
	s.Switch(traffic.East, later)
	snap = s.Snapshot()
	if snap.Active != traffic.East {
		t.Errorf("active after self-switch: got %s, want east", snap.Active)
	}
	if !snap.PhaseStart.Equal(later) {
		t.Errorf("phase start after self-switch: got %v, want %v", snap.PhaseStart, later)
	}
}

func TestOverrideSetAndClear(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New(start, testConfig())

	at := start.Add(5 * time.Second)
	s.SetOverride(traffic.West, at)

	snap := s.Snapshot()
	if snap.Active != traffic.West || !snap.Override {
		t.Errorf("after SetOverride: got active=%s override=%v", snap.Active, snap.Override)
	}
	if !snap.PhaseStart.Equal(at) {
		t.Errorf("phase start: got %v, want %v", snap.PhaseStart, at)
	}

	// Clear leaves direction and timer alone.
	s.ClearOverride()
	snap = s.Snapshot()
	if snap.Override {
		t.Error("override should be clear")
	}
	if snap.Active != traffic.West {
		t.Errorf("active after clear: got %s, want west", snap.Active)
	}
	if !snap.PhaseStart.Equal(at) {
		t.Errorf("phase start after clear: got %v, want %v", snap.PhaseStart, at)
	}
}

func TestClearOverrideIdempotent(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New(start, testConfig())

	s.SetOverride(traffic.South, start.Add(time.Second))
	s.ClearOverride()
	first := s.Snapshot()
	s.ClearOverride()
	second := s.Snapshot()

	if first.Override != second.Override ||
		first.Active != second.Active ||
		!first.PhaseStart.Equal(second.PhaseStart) {
		t.Errorf("double clear diverged: first=%+v second=%+v", first, second)
	}
}

// TestSnapshotAtomicity hammers the store with paired writes and checks
// that every observed snapshot matches one fully-applied commit: the active
// direction always appears with the phase-start written alongside it, and
// counts always appear as one of the committed aggregates.
func TestSnapshotAtomicity(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New(start, testConfig())

	// Each direction is only ever committed with its paired timestamp.
	phaseFor := map[traffic.Direction]time.Time{
		traffic.North: start,
		traffic.South: start.Add(1 * time.Hour),
		traffic.East:  start.Add(2 * time.Hour),
		traffic.West:  start.Add(3 * time.Hour),
	}
	// Counts are only ever committed with all four fields equal.
	countsFor := func(n int) traffic.Counts {
		return traffic.Counts{North: n, South: n, East: n, West: n}
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		for {
			select {
			case <-stop:
				return
			default:
			}
			d := traffic.Order[i%len(traffic.Order)]
			if i%2 == 0 {
				s.Switch(d, phaseFor[d])
			} else {
				s.SetOverride(d, phaseFor[d])
				s.ClearOverride()
			}
			i++
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			s.SetCounts(countsFor(i % 50))
		}
	}()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		snap := s.Snapshot()

		if !snap.Active.Valid() {
			t.Fatalf("snapshot with invalid active direction %q", snap.Active)
		}
		if want := phaseFor[snap.Active]; !snap.PhaseStart.Equal(want) {
			t.Fatalf("torn snapshot: active=%s phase=%v, want %v", snap.Active, snap.PhaseStart, want)
		}
		c := snap.Counts
		if c.South != c.North || c.East != c.North || c.West != c.North {
			t.Fatalf("torn counts: %+v", c)
		}
	}

	close(stop)
	wg.Wait()
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New(start, testConfig())
	s.SetCounts(traffic.Counts{North: 4, South: 3, East: 2, West: 1})
	s.Switch(traffic.East, start.Add(time.Minute))
	s.SetDetectionActive(true)
	s.SetMQTTConnected(true)

	snap := s.Snapshot()
	snap.Now = start.Add(90 * time.Second)

	var sj StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "HEARTBEAT", ""), &sj); err != nil {
		t.Fatalf("unmarshal status payload: %v", err)
	}

	if sj.Status.Event != "HEARTBEAT" {
		t.Errorf("event: got %q, want HEARTBEAT", sj.Status.Event)
	}
	if sj.Status.Signal != "east" {
		t.Errorf("signal: got %q, want east", sj.Status.Signal)
	}
	if sj.Status.TotalVehicles != 10 {
		t.Errorf("total: got %d, want 10", sj.Status.TotalVehicles)
	}
	if sj.Status.PhaseAgeSeconds != 30 {
		t.Errorf("phase age: got %d, want 30", sj.Status.PhaseAgeSeconds)
	}
	if sj.Status.UptimeSeconds != 90 {
		t.Errorf("uptime: got %d, want 90", sj.Status.UptimeSeconds)
	}
	if !sj.Status.DetectionActive {
		t.Error("detection_active should be true")
	}
	if !sj.Status.MQTT.Connected {
		t.Error("mqtt.connected should be true")
	}
	if sj.Status.Config.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("config broker: got %q", sj.Status.Config.Broker)
	}
}
