//go:build !linux

package display

import "errors"

// RealDisplay is not available on non-Linux platforms.
type RealDisplay struct{}

// NewRealDisplay returns an error on non-Linux platforms.
func NewRealDisplay(chipName string, sdaPin, sclPin int, intensity uint8) (*RealDisplay, error) {
	return nil, errors.New("display: not supported on this platform (requires Linux)")
}

func (d *RealDisplay) Show(hour, minute int) error { return errors.New("display: not supported") }
func (d *RealDisplay) Clear() error                { return errors.New("display: not supported") }
func (d *RealDisplay) SetEnabled(on bool) error    { return errors.New("display: not supported") }
func (d *RealDisplay) SetLowPower(on bool) error   { return errors.New("display: not supported") }
func (d *RealDisplay) Close() error                { return nil }
