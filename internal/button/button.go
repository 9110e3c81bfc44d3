// Package button turns a raw debounced button level into press events.
// The classifier is pure: the caller feeds it sampled levels with timestamps,
// so tests drive it with synthetic time and no hardware.
package button

import "time"

// Event is a classified button event.
type Event int

const (
	EventNone Event = iota
	EventShort
	EventLong
)

// String returns a human-readable name for the event.
func (e Event) String() string {
	switch e {
	case EventShort:
		return "short"
	case EventLong:
		return "long"
	default:
		return "none"
	}
}

// Fixed classification constants. LongPressThreshold was settled at 2 s;
// sub-second thresholds produced accidental manual-light activations.
const (
	LongPressThreshold = 2000 * time.Millisecond
	DebounceInterval   = 25 * time.Millisecond
)

// Classifier holds the per-press state. It is recreated from scratch on every
// cold resume; nothing here survives hibernation.
type Classifier struct {
	longPress time.Duration
	debounce  time.Duration

	stable       bool
	hasPending   bool
	pendingLevel bool
	pendingSince time.Time

	pressStart   time.Time
	longReported bool
}

// NewClassifier creates a classifier with the fixed thresholds.
func NewClassifier() *Classifier {
	return New(LongPressThreshold, DebounceInterval)
}

// New creates a classifier with explicit thresholds (tests).
func New(longPress, debounce time.Duration) *Classifier {
	return &Classifier{longPress: longPress, debounce: debounce}
}

// Poll feeds one raw level sample and returns the event it completes, if any.
//
// Short fires on release when the press stayed below the long threshold.
// Long fires exactly once, the moment the held duration first reaches the
// threshold, while the button is still down; the eventual release emits
// nothing further.
func (c *Classifier) Poll(raw bool, now time.Time) Event {
	level, changed := c.debounced(raw, now)

	if changed && level {
		// Press started. Date it from the first raw edge so the long
		// threshold is not skewed by the debounce window.
		c.pressStart = c.pendingCommittedAt(now)
		c.longReported = false
		return EventNone
	}

	if level && !c.longReported && now.Sub(c.pressStart) >= c.longPress {
		c.longReported = true
		return EventLong
	}

	if changed && !level {
		held := now.Sub(c.pressStart)
		if c.longReported || held >= c.longPress {
			c.longReported = false
			return EventNone
		}
		return EventShort
	}

	return EventNone
}

// debounced tracks the raw level and commits a new stable level only after it
// has held steady for the debounce interval. Returns the stable level and
// whether it changed on this sample.
func (c *Classifier) debounced(raw bool, now time.Time) (bool, bool) {
	if raw == c.stable {
		c.hasPending = false
		return c.stable, false
	}

	if !c.hasPending || c.pendingLevel != raw {
		c.hasPending = true
		c.pendingLevel = raw
		c.pendingSince = now
		return c.stable, false
	}

	if now.Sub(c.pendingSince) < c.debounce {
		return c.stable, false
	}

	c.stable = raw
	c.hasPending = false
	return c.stable, true
}

// pendingCommittedAt returns the instant the just-committed level was first
// seen, falling back to now for a zero debounce window.
func (c *Classifier) pendingCommittedAt(now time.Time) time.Time {
	if c.pendingSince.IsZero() {
		return now
	}
	return c.pendingSince
}

// MeasurePress actively samples an already-in-progress press and returns how
// long it lasts, up to max. Used on button wake: the classifier was not
// running during hibernation, so the press that woke the device is measured
// directly. Returns 0 when the button is no longer down.
func MeasurePress(pressed func() bool, now func() time.Time, sleep func(time.Duration), max time.Duration) time.Duration {
	if !pressed() {
		return 0
	}

	start := now()
	for pressed() {
		sleep(10 * time.Millisecond)
		if now().Sub(start) >= max {
			break
		}
	}
	return now().Sub(start)
}
