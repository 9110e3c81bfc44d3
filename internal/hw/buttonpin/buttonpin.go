// Package buttonpin provides the raw button level with hardware abstraction.
// The real implementation uses the Linux GPIO character device; the fake
// replays scripted samples.
package buttonpin

// Pin reads the logical button level.
type Pin interface {
	// Pressed returns true while the button is held down.
	Pressed() (bool, error)

	// Close releases GPIO resources.
	Close() error
}
