//go:build !linux

package buttonpin

import "errors"

// RealPin is not available on non-Linux platforms.
type RealPin struct{}

// NewRealPin returns an error on non-Linux platforms.
func NewRealPin(chipName string, pin int) (*RealPin, error) {
	return nil, errors.New("buttonpin: not supported on this platform (requires Linux)")
}

func (p *RealPin) Pressed() (bool, error) { return false, errors.New("buttonpin: not supported") }
func (p *RealPin) Close() error           { return nil }
