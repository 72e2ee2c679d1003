// Package state holds the shared traffic state for the daemon: the smoothed
// per-direction counts plus the signal fields (active green direction, phase
// timer, manual-override flag). One Store is created at startup and shared
// by the control loop, the override gateway, and the HTTP handlers.
package state

import (
	"sync"
	"time"

	"github.com/totally-not-vj/tempo-traffic-control/internal/traffic"
)

// Config carries daemon configuration for status display.
type Config struct {
	CycleMs     int64
	BackoffMs   int64
	HeartbeatMs int64
	Broker      string
	CountsTopic string
	HTTPAddr    string
}

// Snapshot is a point-in-time copy of the shared state. It is a value
// type, safe to use after the lock is released.
type Snapshot struct {
	Counts     traffic.Counts
	Active     traffic.Direction
	Override   bool
	PhaseStart time.Time

	StartTime       time.Time
	DetectionActive bool
	MQTTConnected   bool
	Config          Config
	Now             time.Time
}

// PhaseAge returns how long the active direction has held green.
func (s Snapshot) PhaseAge() time.Duration {
	return s.Now.Sub(s.PhaseStart)
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Store guards the shared aggregate behind one lock. Writers always mutate
// related fields together (active direction and phase timer in one step),
// so no reader can observe a half-applied transition. Lock hold time is
// field assignment/copy only; no I/O happens under the lock.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

// New creates a Store with zeroed counts, green on north, the override flag
// clear, and the phase timer started at start.
func New(start time.Time, cfg Config) *Store {
	return &Store{
		snap: Snapshot{
			Active:     traffic.North,
			PhaseStart: start,
			StartTime:  start,
			Config:     cfg,
		},
	}
}

// Snapshot returns a point-in-time copy of the shared state.
// The Now field is set to the current time at the moment of the call.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	snap.Now = time.Now()
	return snap
}

// SetCounts replaces all four smoothed counts in one step.
func (s *Store) SetCounts(c traffic.Counts) {
	s.mu.Lock()
	s.snap.Counts = c
	s.mu.Unlock()
}

// Switch makes d the active green direction and restarts the phase timer.
// Callers commit every controller decision through here, including one that
// re-selects the already-active direction: the timer reset is the point.
func (s *Store) Switch(d traffic.Direction, now time.Time) {
	s.mu.Lock()
	s.snap.Active = d
	s.snap.PhaseStart = now
	s.mu.Unlock()
}

// SetOverride puts the signal under manual control: d goes green, the
// override flag is raised, and the phase timer restarts, all in one step.
func (s *Store) SetOverride(d traffic.Direction, now time.Time) {
	s.mu.Lock()
	s.snap.Active = d
	s.snap.Override = true
	s.snap.PhaseStart = now
	s.mu.Unlock()
}

// ClearOverride returns the signal to automatic control. The active
// direction and phase timer are left untouched; clearing an already-clear
// override is a legal no-op.
func (s *Store) ClearOverride() {
	s.mu.Lock()
	s.snap.Override = false
	s.mu.Unlock()
}

// SetDetectionActive records whether the control loop currently owns the
// detector session.
func (s *Store) SetDetectionActive(active bool) {
	s.mu.Lock()
	s.snap.DetectionActive = active
	s.mu.Unlock()
}

// SetMQTTConnected records the broker connection state for status display.
func (s *Store) SetMQTTConnected(connected bool) {
	s.mu.Lock()
	s.snap.MQTTConnected = connected
	s.mu.Unlock()
}
