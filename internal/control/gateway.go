// Package control owns the two actors that mutate the shared traffic state:
// the periodic control loop and the manual override gateway. Both act on
// the same state.Store; everything else only reads snapshots.
package control

import (
	"log"
	"time"

	"github.com/totally-not-vj/tempo-traffic-control/internal/mqtt"
	"github.com/totally-not-vj/tempo-traffic-control/internal/state"
	"github.com/totally-not-vj/tempo-traffic-control/internal/traffic"
)

// Gateway exposes the manual override operations invoked by the HTTP API.
type Gateway struct {
	store     *state.Store
	publisher mqtt.Publisher
	now       func() time.Time
}

// NewGateway creates a Gateway acting on store. publisher may be nil (no
// events emitted); now may be nil (wall clock).
func NewGateway(store *state.Store, publisher mqtt.Publisher, now func() time.Time) *Gateway {
	if now == nil {
		now = time.Now
	}
	return &Gateway{store: store, publisher: publisher, now: now}
}

// SetManual validates the requested direction and, when valid, forces it
// green and suspends automatic switching until ClearManual. On an invalid
// direction the shared state is left entirely untouched and the returned
// error names the rejected value and the valid set.
func (g *Gateway) SetManual(raw string) (state.Snapshot, error) {
	d, err := traffic.ParseDirection(raw)
	if err != nil {
		return g.store.Snapshot(), err
	}

	before := g.store.Snapshot()
	at := g.now()
	g.store.SetOverride(d, at)
	log.Printf("manual override activated: %s", d)

	g.publishSwitch(before.Active, d, traffic.ReasonManual, at)
	return g.store.Snapshot(), nil
}

// ClearManual ends the override and returns the signal to automatic
// control. The active direction and phase timer are left alone; clearing
// an already-clear override is a legal no-op.
func (g *Gateway) ClearManual() state.Snapshot {
	before := g.store.Snapshot()
	g.store.ClearOverride()
	log.Printf("manual override ended, automatic control resumed")

	if before.Override {
		g.publishSwitch(before.Active, before.Active, traffic.ReasonResume, g.now())
	}
	return g.store.Snapshot()
}

func (g *Gateway) publishSwitch(from, to traffic.Direction, reason traffic.SwitchReason, at time.Time) {
	if g.publisher == nil {
		return
	}
	event := mqtt.SwitchEvent{
		Timestamp: at,
		From:      from,
		To:        to,
		Reason:    reason,
		Counts:    g.store.Snapshot().Counts,
	}
	if err := g.publisher.Publish(event); err != nil {
		log.Printf("publish override event: %v", err)
	}
}
