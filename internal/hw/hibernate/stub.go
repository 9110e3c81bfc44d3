//go:build !linux

package hibernate

import "errors"

// RealSleeper is not available on non-Linux platforms.
type RealSleeper struct{}

// NewRealSleeper returns a sleeper whose operations fail on non-Linux platforms.
func NewRealSleeper(rtcDir, wakeupSrc, stateFile string, buttonHeld func() bool) *RealSleeper {
	return &RealSleeper{}
}

func (s *RealSleeper) Cause() Cause                 { return CausePowerOn }
func (s *RealSleeper) ArmTimer(seconds uint64) error { return errors.New("hibernate: not supported") }
func (s *RealSleeper) ArmLevelWake() error          { return errors.New("hibernate: not supported") }
func (s *RealSleeper) Enter() error                 { return errors.New("hibernate: not supported") }
