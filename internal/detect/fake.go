package detect

import (
	"errors"

	"github.com/totally-not-vj/tempo-traffic-control/internal/traffic"
)

// FakeSource is a test double that returns scripted count readings.
type FakeSource struct {
	// Samples contains scripted counts to return.
	// Each call to Counts() consumes the next sample.
	Samples []traffic.Counts

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// Err, if set, will be returned by Counts()
	Err error
}

// NewFakeSource creates a FakeSource with the given samples.
func NewFakeSource(samples []traffic.Counts) *FakeSource {
	return &FakeSource{Samples: samples}
}

// Counts returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSource) Counts() (traffic.Counts, error) {
	if f.Err != nil {
		return traffic.Counts{}, f.Err
	}

	if len(f.Samples) == 0 {
		return traffic.Counts{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the source to the beginning of samples.
func (f *FakeSource) Reset() {
	f.index = 0
	f.Closed = false
}
