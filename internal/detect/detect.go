// Package detect defines the boundary to the external vehicle-detection
// pipeline. The vision side (frame capture, background subtraction, region
// assignment) runs elsewhere; this package only transports its output: one
// raw vehicle count per approach, read once per control cycle.
package detect

import (
	"errors"

	"github.com/totally-not-vj/tempo-traffic-control/internal/traffic"
)

// ErrNoFrame is returned by Source.Counts when no usable detection result
// is available. Callers treat it as transient: log, back off, retry on a
// later cycle.
var ErrNoFrame = errors.New("no detection counts available")

// DefaultTopic is the MQTT topic where the vision pipeline publishes raw
// counts.
const DefaultTopic = "traffic/intersection/counts"

// Source produces raw per-direction vehicle counts.
type Source interface {
	// Counts returns the most recent raw counts from the detector.
	// Returns ErrNoFrame when the detector has not produced a usable
	// result recently enough.
	Counts() (traffic.Counts, error)

	// Close releases the detector session.
	Close() error
}
