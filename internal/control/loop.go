package control

import (
	"fmt"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/totally-not-vj/tempo-traffic-control/internal/detect"
	"github.com/totally-not-vj/tempo-traffic-control/internal/led"
	"github.com/totally-not-vj/tempo-traffic-control/internal/mqtt"
	"github.com/totally-not-vj/tempo-traffic-control/internal/state"
	"github.com/totally-not-vj/tempo-traffic-control/internal/traffic"
)

// maxContractViolations is how many consecutive corrupt snapshots the loop
// tolerates before treating the state as unrecoverable.
const maxContractViolations = 3

// LoopConfig wires the control loop's collaborators. Source, Publisher and
// Store are required; Status, LEDs and Now are optional.
type LoopConfig struct {
	Source    detect.Source
	Publisher mqtt.Publisher
	Status    mqtt.ConnectionStatus
	Store     *state.Store
	LEDs      led.Driver
	Policy    traffic.Policy
	Backoff   time.Duration // pause after a detector failure
	Heartbeat time.Duration // heartbeat interval (0 disables)
	Now       func() time.Time
}

// RunLoop drives one detection-and-control cycle per tick until a stop
// signal arrives. The detector session is owned by the loop: it is closed
// on every exit path. tick and sig are injected so tests can drive the loop
// deterministically.
//
// Per cycle: read raw counts from the detector, smooth them against the
// previous values, commit, take a fresh snapshot (an override may have
// landed since the counts commit and the decision must see it), evaluate
// the switching rules, and commit any switch together with its timer reset.
// A detector failure leaves the shared state untouched: the loop logs,
// arms a backoff deadline, and ignores ticks until it passes.
func RunLoop(cfg LoopConfig, tick <-chan time.Time, sig <-chan os.Signal) error {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	defer cfg.Source.Close()

	cfg.Store.SetDetectionActive(true)
	defer cfg.Store.SetDetectionActive(false)

	var (
		backoffUntil  time.Time
		lastHeartbeat = now()
		violations    int
		ledReady      bool
		ledOverride   bool
	)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			publishShutdown(cfg, now(), signalName(s))
			return nil

		case <-tick:
			t := now()
			if t.Before(backoffUntil) {
				continue
			}

			raw, err := cfg.Source.Counts()
			if err != nil {
				log.Printf("detection error: %v", err)
				backoffUntil = t.Add(cfg.Backoff)
				continue
			}

			prev := cfg.Store.Snapshot()
			cfg.Store.SetCounts(traffic.SmoothCounts(prev.Counts, raw))

			snap := cfg.Store.Snapshot()
			if !snap.Active.Valid() {
				violations++
				log.Printf("corrupt state snapshot: active direction %q (occurrence %d)", snap.Active, violations)
				if violations >= maxContractViolations {
					return fmt.Errorf("shared state corrupted: invalid active direction %q in %d consecutive cycles", snap.Active, violations)
				}
				continue
			}
			violations = 0

			decision, ok := cfg.Policy.Decide(snap.Counts, snap.Active, snap.Override, t.Sub(snap.PhaseStart))
			if ok {
				cfg.Store.Switch(decision.Target, t)
				logSwitch(snap, decision)

				event := mqtt.SwitchEvent{
					Timestamp: t,
					From:      snap.Active,
					To:        decision.Target,
					Reason:    decision.Reason,
					Counts:    snap.Counts,
				}
				if err := cfg.Publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
				}
			}

			if cfg.Status != nil {
				cfg.Store.SetMQTTConnected(cfg.Status.IsConnected())
			}

			if cfg.LEDs != nil && (!ledReady || snap.Override != ledOverride) {
				if err := cfg.LEDs.Set(true, snap.Override); err != nil {
					log.Printf("led update error: %v", err)
				}
				ledReady = true
				ledOverride = snap.Override
			}

			if cfg.Heartbeat > 0 && t.Sub(lastHeartbeat) >= cfg.Heartbeat {
				lastHeartbeat = t
				hb := cfg.Store.Snapshot()
				event := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: state.FormatStatusEvent(hb, "HEARTBEAT", ""),
				}
				if err := cfg.Publisher.PublishSystem(event); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func publishShutdown(cfg LoopConfig, t time.Time, reason string) {
	if cfg.Status != nil {
		cfg.Store.SetMQTTConnected(cfg.Status.IsConnected())
	}
	snap := cfg.Store.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: state.FormatStatusEvent(snap, "SHUTDOWN", reason),
	}
	if err := cfg.Publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}

func logSwitch(snap state.Snapshot, d traffic.Decision) {
	switch d.Reason {
	case traffic.ReasonMaxTime:
		log.Printf("max green time exceeded, switching to %s", d.Target)
	case traffic.ReasonStarvation:
		log.Printf("smart switch: %s(%d) -> %s(%d)",
			snap.Active, snap.Counts.Get(snap.Active), d.Target, snap.Counts.Get(d.Target))
	case traffic.ReasonEmergency:
		log.Printf("emergency switch for high traffic: %s(%d)", d.Target, snap.Counts.Get(d.Target))
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
