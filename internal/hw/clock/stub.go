//go:build !linux

package clock

import (
	"errors"
	"time"
)

// RealClock uses the system clock. Setting it is unsupported off-Linux.
type RealClock struct {
	start time.Time
}

// NewRealClock creates the system clock adapter.
func NewRealClock() *RealClock {
	return &RealClock{start: time.Now()}
}

func (c *RealClock) Now() time.Time { return time.Now() }

func (c *RealClock) Set(t time.Time) error {
	return errors.New("clock: set not supported on this platform")
}

func (c *RealClock) Monotonic() time.Duration { return time.Since(c.start) }
