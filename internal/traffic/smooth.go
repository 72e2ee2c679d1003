package traffic

// Smooth blends a raw observation into the previous smoothed count using a
// fixed-weight exponential moving average: floor(0.7*previous + 0.3*observed).
// Integer arithmetic keeps the floor exact for non-negative inputs.
//
// Raw per-frame detections are noisy (occlusion, partial contours); the
// fast-decaying average trades a few cycles of lag for stability so the
// controller does not chase single-frame spikes. An observation of zero is
// a valid input and pulls the average toward zero.
func Smooth(previous, observed int) int {
	return (7*previous + 3*observed) / 10
}

// SmoothCounts applies Smooth independently per approach.
func SmoothCounts(previous, observed Counts) Counts {
	var c Counts
	for _, d := range Order {
		c.Set(d, Smooth(previous.Get(d), observed.Get(d)))
	}
	return c
}
