// Package schedule computes the time until the next sunrise ramp start.
// All functions are pure: the caller supplies the wall-clock "now" and a
// timezone, which keeps the arithmetic testable without a real clock.
package schedule

import (
	"time"

	"github.com/dawnlamp/dawnlamp/internal/device"
)

// SanityFloor is the earliest wall-clock instant considered sane.
// A clock reading before 2023-01-01T00:00:00Z means the RTC was never set.
const SanityFloor = int64(1672531200)

// FallbackSeconds is the wake interval used when the clock is not sane or the
// alarm is disabled. Short on purpose: a device with a broken clock re-wakes
// soon so a wireless time-sync has a chance to land.
const FallbackSeconds = uint64(60)

// TimeSane reports whether now passes the clock-sanity predicate.
func TimeSane(now time.Time) bool {
	return now.Unix() >= SanityFloor
}

// NextAlarmAt returns the next instant the alarm itself (ramp end) is due:
// today's alarm_hour:alarm_minute:00 in loc, rolled to tomorrow when already
// passed.
func NextAlarmAt(cfg device.Config, now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	target := time.Date(local.Year(), local.Month(), local.Day(),
		int(cfg.AlarmHour), int(cfg.AlarmMinute), 0, 0, loc)
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

// SecondsUntilSunriseStart returns the number of seconds until the sunrise
// ramp should begin. The ramp starts sunrise_duration minutes before the alarm
// instant; when the ramp start has itself already passed (late wake, mid-day
// resume) the whole event rolls one more day so a just-armed timer never
// re-triggers immediately. The result is always >= 1.
func SecondsUntilSunriseStart(cfg device.Config, now time.Time, loc *time.Location) uint64 {
	if !cfg.AlarmEnabled || !TimeSane(now) {
		return FallbackSeconds
	}

	delta := int64(NextRampStart(cfg, now, loc).Sub(now) / time.Second)
	if delta < 1 {
		delta = 1
	}
	return uint64(delta)
}

// NextRampStart returns the next ramp-start instant, rolled one extra day
// when today's has already passed.
func NextRampStart(cfg device.Config, now time.Time, loc *time.Location) time.Time {
	alarmAt := NextAlarmAt(cfg, now, loc)
	rampStart := alarmAt.Add(-time.Duration(cfg.SunriseDurationMin) * time.Minute)
	if !rampStart.After(now) {
		rampStart = rampStart.AddDate(0, 0, 1)
	}
	return rampStart
}

// AlarmDue reports whether the ramp-start instant has been reached. Used by
// the always-on variant, which polls instead of arming a hardware timer.
func AlarmDue(cfg device.Config, now, rampStart time.Time) bool {
	if !cfg.AlarmEnabled || !TimeSane(now) {
		return false
	}
	return !now.Before(rampStart)
}
