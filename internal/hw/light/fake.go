package light

import (
	"sync"
	"time"
)

// FakeLight records the applied targets for tests.
type FakeLight struct {
	mu sync.Mutex

	Warm, Cool uint8
	On         bool
	Closed     bool
	SetCalls   int
	OffCalls   int

	// History holds every applied (warm, cool) pair in order.
	History [][2]uint8

	// SetErr, if set, is returned by Set (transient-failure tests).
	SetErr error
}

// NewFakeLight creates a dark fake light.
func NewFakeLight() *FakeLight {
	return &FakeLight{}
}

func (f *FakeLight) Set(warmPct, coolPct uint8, fade time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetErr != nil {
		return f.SetErr
	}
	f.Warm, f.Cool = warmPct, coolPct
	f.On = warmPct > 0 || coolPct > 0
	f.SetCalls++
	f.History = append(f.History, [2]uint8{warmPct, coolPct})
	return nil
}

func (f *FakeLight) Off() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Warm, f.Cool = 0, 0
	f.On = false
	f.OffCalls++
	f.History = append(f.History, [2]uint8{0, 0})
	return nil
}

func (f *FakeLight) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Last returns the most recent applied pair.
func (f *FakeLight) Last() (uint8, uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Warm, f.Cool
}
