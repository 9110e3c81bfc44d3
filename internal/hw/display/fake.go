package display

import "sync"

// FakeDisplay records calls for tests.
type FakeDisplay struct {
	mu sync.Mutex

	Hour, Minute int
	Showing      bool
	Enabled      bool
	LowPower     bool
	Closed       bool

	// Ops is the call trace, e.g. "show 07:30", "clear", "enable off".
	Ops []string

	// ShowErr, if set, is returned by Show (transient-failure tests).
	ShowErr error
}

// NewFakeDisplay creates an enabled fake display.
func NewFakeDisplay() *FakeDisplay {
	return &FakeDisplay{Enabled: true}
}

func (f *FakeDisplay) Show(hour, minute int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ShowErr != nil {
		return f.ShowErr
	}
	f.Hour, f.Minute = hour, minute
	f.Showing = true
	f.Ops = append(f.Ops, opShow(hour, minute))
	return nil
}

func (f *FakeDisplay) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Showing = false
	f.Ops = append(f.Ops, "clear")
	return nil
}

func (f *FakeDisplay) SetEnabled(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Enabled = on
	f.Ops = append(f.Ops, "enable "+onOff(on))
	return nil
}

func (f *FakeDisplay) SetLowPower(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LowPower = on
	f.Ops = append(f.Ops, "lowpower "+onOff(on))
	return nil
}

func (f *FakeDisplay) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Trace returns a copy of the op log.
func (f *FakeDisplay) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Ops))
	copy(out, f.Ops)
	return out
}

func opShow(hour, minute int) string {
	const digits = "0123456789"
	return "show " + string([]byte{
		digits[hour/10], digits[hour%10], ':', digits[minute/10], digits[minute%10],
	})
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
