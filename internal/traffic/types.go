// Package traffic contains pure signal-control logic for the intersection
// daemon. This package has NO external dependencies (no MQTT, HTTP, OS, or
// time.Sleep). Time is always injectable via time.Duration parameters.
package traffic

import (
	"fmt"
	"strings"
)

// Direction identifies one approach to the intersection.
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Order is the fixed iteration order used wherever the four approaches are
// scanned. Tie-breaking in Counts.Busiest depends on it.
var Order = [4]Direction{North, South, East, West}

// Valid reports whether d is a member of the closed direction set.
func (d Direction) Valid() bool {
	switch d {
	case North, South, East, West:
		return true
	}
	return false
}

// InvalidDirectionError reports a direction string outside the closed set.
type InvalidDirectionError struct {
	Value string
}

func (e *InvalidDirectionError) Error() string {
	return fmt.Sprintf("invalid direction %q, valid directions: north, south, east, west", e.Value)
}

// ParseDirection converts a caller-supplied string to a Direction.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", &InvalidDirectionError{Value: s}
	}
	return d, nil
}

// Counts holds one smoothed vehicle count per approach. All four approaches
// are always present by construction; the zero value means an empty
// intersection. Counts is a value type, so copying it yields an independent
// snapshot.
type Counts struct {
	North int
	South int
	East  int
	West  int
}

// Get returns the count for d. Directions outside the closed set read as zero.
func (c Counts) Get(d Direction) int {
	switch d {
	case North:
		return c.North
	case South:
		return c.South
	case East:
		return c.East
	case West:
		return c.West
	}
	return 0
}

// Set stores n as the count for d. Directions outside the closed set are
// ignored.
func (c *Counts) Set(d Direction, n int) {
	switch d {
	case North:
		c.North = n
	case South:
		c.South = n
	case East:
		c.East = n
	case West:
		c.West = n
	}
}

// Total returns the sum of all four counts.
func (c Counts) Total() int {
	return c.North + c.South + c.East + c.West
}

// Busiest returns the approach with the highest count, and that count.
// Approaches are scanned in Order and the first maximum wins (strict
// greater-than), so equal counts resolve deterministically to the earlier
// direction.
func (c Counts) Busiest() (Direction, int) {
	best := Order[0]
	bestCount := c.Get(best)
	for _, d := range Order[1:] {
		if n := c.Get(d); n > bestCount {
			best = d
			bestCount = n
		}
	}
	return best, bestCount
}
