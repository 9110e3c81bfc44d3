//go:build linux

package clock

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// RealClock uses the system clock. Set requires CAP_SYS_TIME.
type RealClock struct {
	start time.Time
}

// NewRealClock creates the system clock adapter.
func NewRealClock() *RealClock {
	return &RealClock{start: time.Now()}
}

// Now returns the current local time.
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Set steps the system clock to t.
func (c *RealClock) Set(t time.Time) error {
	tv := unix.NsecToTimeval(t.UnixNano())
	if err := unix.Settimeofday(&tv); err != nil {
		return fmt.Errorf("settimeofday: %w", err)
	}
	return nil
}

// Monotonic returns the interval since process start. time.Since uses the
// monotonic reading, so a Set does not disturb it.
func (c *RealClock) Monotonic() time.Duration {
	return time.Since(c.start)
}
