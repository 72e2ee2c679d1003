//go:build linux

package led

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealDriver drives indicator LEDs on actual hardware using the Linux GPIO
// character device.
type RealDriver struct {
	chip      *gpiocdev.Chip
	detection *gpiocdev.Line
	override  *gpiocdev.Line
}

// NewRealDriver requests the two indicator lines as outputs, initially off.
func NewRealDriver(pinDetection, pinOverride int) (*RealDriver, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	detLine, err := chip.RequestLine(pinDetection, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request detection pin %d: %w", pinDetection, err)
	}

	ovrLine, err := chip.RequestLine(pinOverride, gpiocdev.AsOutput(0))
	if err != nil {
		detLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request override pin %d: %w", pinOverride, err)
	}

	return &RealDriver{
		chip:      chip,
		detection: detLine,
		override:  ovrLine,
	}, nil
}

// Set updates both indicator LEDs.
func (r *RealDriver) Set(detection, override bool) error {
	if err := r.detection.SetValue(boolToValue(detection)); err != nil {
		return fmt.Errorf("set detection led: %w", err)
	}
	if err := r.override.SetValue(boolToValue(override)); err != nil {
		return fmt.Errorf("set override led: %w", err)
	}
	return nil
}

// Close turns both LEDs off and releases GPIO resources, so a stopped
// daemon never shows a live detector.
func (r *RealDriver) Close() error {
	var errs []error

	if r.detection != nil {
		if err := r.detection.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear detection led: %w", err))
		}
		if err := r.detection.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close detection line: %w", err))
		}
	}
	if r.override != nil {
		if err := r.override.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear override led: %w", err))
		}
		if err := r.override.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close override line: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func boolToValue(on bool) int {
	if on {
		return 1
	}
	return 0
}
