package buttonpin

import "sync"

// FakePin is a test double returning a settable button level.
type FakePin struct {
	mu      sync.Mutex
	level   bool
	Closed  bool
	ReadErr error
}

// NewFakePin creates a released fake button.
func NewFakePin() *FakePin {
	return &FakePin{}
}

// Press sets the level to held-down.
func (f *FakePin) Press() { f.set(true) }

// Release sets the level to released.
func (f *FakePin) Release() { f.set(false) }

func (f *FakePin) set(level bool) {
	f.mu.Lock()
	f.level = level
	f.mu.Unlock()
}

func (f *FakePin) Pressed() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadErr != nil {
		return false, f.ReadErr
	}
	return f.level, nil
}

func (f *FakePin) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
