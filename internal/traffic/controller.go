package traffic

import "time"

// Policy holds the tunable constants for automatic switching.
type Policy struct {
	MaxGreen      time.Duration // ceiling on any green phase regardless of traffic
	MinGreen      time.Duration // floor before a normal automatic switch
	HighThreshold int           // smoothed count considered congested
	LowThreshold  int           // smoothed count considered idle
}

// DefaultPolicy returns the stock tuning for a four-way intersection.
func DefaultPolicy() Policy {
	return Policy{
		MaxGreen:      30 * time.Second,
		MinGreen:      8 * time.Second,
		HighThreshold: 15,
		LowThreshold:  3,
	}
}

// SwitchReason identifies which rule produced a switch decision.
type SwitchReason string

const (
	ReasonMaxTime    SwitchReason = "MAX_TIME"
	ReasonStarvation SwitchReason = "STARVATION"
	ReasonEmergency  SwitchReason = "EMERGENCY"
	ReasonManual     SwitchReason = "MANUAL"
	ReasonResume     SwitchReason = "RESUME"
)

// Decision is the outcome of one controller evaluation.
type Decision struct {
	Target Direction
	Reason SwitchReason
}

// Decide evaluates the switching rules against one consistent snapshot of
// the shared state: the smoothed counts, the active green direction, the
// manual-override flag, and the elapsed time of the current phase.
//
// Rules are independent and evaluated in priority order; the first match
// wins:
//
//  1. elapsed > MaxGreen: switch to the busiest approach. The target may be
//     the already-active direction; the caller must still commit the switch
//     so the phase timer resets.
//  2. elapsed > MinGreen, active approach idle (count < LowThreshold), and
//     a different approach congested (count > HighThreshold): switch there.
//  3. A different approach above 2*HighThreshold with elapsed past half the
//     minimum green: switch immediately, pre-empting the normal floor.
//
// With override set, Decide never switches: manual control stays in force
// until explicitly cleared.
func (p Policy) Decide(counts Counts, active Direction, override bool, elapsed time.Duration) (Decision, bool) {
	if override {
		return Decision{}, false
	}

	current := counts.Get(active)
	busiest, busiestCount := counts.Busiest()

	if elapsed > p.MaxGreen {
		return Decision{Target: busiest, Reason: ReasonMaxTime}, true
	}

	if elapsed > p.MinGreen &&
		current < p.LowThreshold &&
		busiestCount > p.HighThreshold &&
		busiest != active {
		return Decision{Target: busiest, Reason: ReasonStarvation}, true
	}

	if busiestCount > 2*p.HighThreshold &&
		busiest != active &&
		elapsed > p.emergencyFloor() {
		return Decision{Target: busiest, Reason: ReasonEmergency}, true
	}

	return Decision{}, false
}

// emergencyFloor halves MinGreen in whole seconds. The integer division is
// deliberate: a 9s minimum green yields a 4s emergency floor, not 4.5s.
func (p Policy) emergencyFloor() time.Duration {
	return time.Duration(int64(p.MinGreen/time.Second)/2) * time.Second
}
