package led

// IndicatorState is one recorded Set call.
type IndicatorState struct {
	Detection bool
	Override  bool
}

// FakeDriver records indicator updates for test assertions.
type FakeDriver struct {
	// States contains every Set call in order.
	States []IndicatorState

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDriver creates a FakeDriver for testing.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

// Set records the requested indicator state.
func (f *FakeDriver) Set(detection, override bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.States = append(f.States, IndicatorState{Detection: detection, Override: override})
	return nil
}

// Last returns the most recent recorded state, or a zero state if none.
func (f *FakeDriver) Last() IndicatorState {
	if len(f.States) == 0 {
		return IndicatorState{}
	}
	return f.States[len(f.States)-1]
}

// Close marks the driver as closed.
func (f *FakeDriver) Close() error {
	f.Closed = true
	return nil
}
