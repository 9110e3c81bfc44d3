//go:build !linux

package light

import (
	"errors"
	"time"
)

// RealLight is not available on non-Linux platforms.
type RealLight struct{}

// NewRealLight returns an error on non-Linux platforms.
func NewRealLight(chipDir string, warmChannel, coolChannel int) (*RealLight, error) {
	return nil, errors.New("light: not supported on this platform (requires Linux)")
}

func (l *RealLight) Set(warmPct, coolPct uint8, fade time.Duration) error {
	return errors.New("light: not supported")
}
func (l *RealLight) Off() error   { return errors.New("light: not supported") }
func (l *RealLight) Close() error { return nil }
