// Package device defines the persisted device configuration and its store.
// Config is the only state (besides the wake-cause register) that survives
// hibernation; everything else is rebuilt from it on cold resume.
package device

import (
	"errors"
	"fmt"
)

// Canonical value ranges. SunriseDuration deliberately allows 1 minute so a
// test ramp can be observed end to end on real hardware.
const (
	MinSunriseDurationMin = 1
	MaxSunriseDurationMin = 60
)

// ErrInvalidValue is returned when a config field is outside its range.
var ErrInvalidValue = errors.New("device: config value out of range")

// Config is the persisted device configuration.
type Config struct {
	AlarmHour          uint8
	AlarmMinute        uint8
	AlarmEnabled       bool
	ColorTemp          uint8 // 0 = cool only .. 100 = warm only
	WakeBright         uint8 // target brightness percent at ramp end
	SunriseDurationMin uint8
}

// Default returns the factory configuration.
func Default() Config {
	return Config{
		AlarmHour:          7,
		AlarmMinute:        0,
		AlarmEnabled:       true,
		ColorTemp:          70,
		WakeBright:         80,
		SunriseDurationMin: 30,
	}
}

// Validate checks every field against its canonical range.
func (c Config) Validate() error {
	if c.AlarmHour > 23 {
		return fmt.Errorf("%w: alarm_hour=%d", ErrInvalidValue, c.AlarmHour)
	}
	if c.AlarmMinute > 59 {
		return fmt.Errorf("%w: alarm_minute=%d", ErrInvalidValue, c.AlarmMinute)
	}
	if c.ColorTemp > 100 {
		return fmt.Errorf("%w: color_temp=%d", ErrInvalidValue, c.ColorTemp)
	}
	if c.WakeBright > 100 {
		return fmt.Errorf("%w: wake_bright=%d", ErrInvalidValue, c.WakeBright)
	}
	if c.SunriseDurationMin < MinSunriseDurationMin || c.SunriseDurationMin > MaxSunriseDurationMin {
		return fmt.Errorf("%w: sunrise_duration=%d", ErrInvalidValue, c.SunriseDurationMin)
	}
	return nil
}

// Store persists device configuration across hibernation cycles.
type Store interface {
	// Load returns the stored configuration. A missing or corrupt record is
	// repaired: defaults are persisted and returned, not an error.
	Load() (Config, error)

	// Save persists the configuration. Out-of-range values are rejected.
	Save(Config) error
}
