// Package clock abstracts the real-time clock so time arithmetic stays
// testable and the wall clock can be stepped by a wireless time-sync.
package clock

import (
	"time"

	"github.com/rs/zerolog/log"
)

// BuildTime is the firmware build timestamp in RFC3339, injected at link
// time: -ldflags "-X .../internal/hw/clock.BuildTime=...". Used to seed an
// unset RTC so relative scheduling works before the first time-sync.
var BuildTime string

// Clock reads and sets the wall clock and provides a monotonic counter.
type Clock interface {
	// Now returns the current local wall-clock time.
	Now() time.Time

	// Set steps the wall clock to t.
	Set(t time.Time) error

	// Monotonic returns a reading of the monotonic interval counter,
	// unaffected by Set.
	Monotonic() time.Duration
}

// SeedFromBuild sets the clock to the build timestamp when sane(now) fails.
// Best effort: a parse or set failure is logged, never fatal, since with the
// fallback wake interval the device limps along until a time-sync arrives.
func SeedFromBuild(c Clock, sane func(time.Time) bool) {
	if sane(c.Now()) {
		return
	}
	if BuildTime == "" {
		log.Warn().Msg("Clock not sane and no build timestamp available")
		return
	}
	t, err := time.Parse(time.RFC3339, BuildTime)
	if err != nil {
		log.Warn().Err(err).Str("build_time", BuildTime).Msg("Clock not sane and build timestamp unparseable")
		return
	}
	if err := c.Set(t.Local()); err != nil {
		log.Warn().Err(err).Msg("Failed to seed clock from build timestamp")
		return
	}
	log.Warn().Time("seeded_to", t).Msg("Clock was unset; seeded from build timestamp")
}

// TimeOfDay returns t's date combined with the given time of day, preserving
// the date and location. This is the time-sync write semantic.
func TimeOfDay(t time.Time, hour, minute, second int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, second, 0, t.Location())
}
