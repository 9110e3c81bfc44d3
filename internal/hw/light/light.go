// Package light drives the warm/cool LED pair with hardware abstraction.
// The real implementation writes the sysfs PWM interface; the fake records
// the last target for tests.
package light

import "time"

// Light controls the two-channel dimmable lamp. Percentages are 0-100.
type Light interface {
	// Set applies the warm/cool duty pair, optionally fading over fade.
	// A zero fade applies immediately.
	Set(warmPct, coolPct uint8, fade time.Duration) error

	// Off forces both channels dark.
	Off() error

	// Close turns the lamp off and releases the PWM channels.
	Close() error
}
