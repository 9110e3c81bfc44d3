//go:build !linux

package battery

import "errors"

// RealSensor is not available on non-Linux platforms.
type RealSensor struct{}

// NewRealSensor returns an error on non-Linux platforms.
func NewRealSensor(chipName string, enablePin int, iioDir string, iioChannel int) (*RealSensor, error) {
	return nil, errors.New("battery: not supported on this platform (requires Linux)")
}

func (s *RealSensor) Percent() (uint8, error) { return 0, errors.New("battery: not supported") }
func (s *RealSensor) Close() error            { return nil }
