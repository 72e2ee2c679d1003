// Package led drives the cabinet indicator LEDs with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
//
// The LEDs indicate daemon health (detector session alive, manual override
// in force) for whoever opens the cabinet; they are not signal heads.
package led

// Driver sets the two indicator LEDs.
type Driver interface {
	// Set updates the detection-active and override LEDs.
	Set(detection, override bool) error

	// Close turns both LEDs off and releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinDetection = 26 // detection session alive
	DefaultPinOverride  = 16 // manual override in force
)
