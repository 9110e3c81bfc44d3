package schedule

import (
	"testing"
	"time"

	"github.com/dawnlamp/dawnlamp/internal/device"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func cfgAt(hour, minute, duration uint8) device.Config {
	cfg := device.Default()
	cfg.AlarmHour = hour
	cfg.AlarmMinute = minute
	cfg.SunriseDurationMin = duration
	return cfg
}

func TestSecondsUntilSunriseStart(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		name string
		cfg  device.Config
		now  time.Time
		want uint64
	}{
		{
			name: "before_ramp_start",
			cfg:  cfgAt(7, 0, 30),
			// 06:25, ramp starts 06:30
			now:  time.Date(2024, 3, 10, 6, 25, 0, 0, loc),
			want: 5 * 60,
		},
		{
			name: "twenty_five_minutes_out",
			cfg:  cfgAt(7, 0, 30),
			now:  time.Date(2024, 3, 10, 6, 5, 0, 0, loc),
			want: 1500,
		},
		{
			name: "past_ramp_start_rolls_full_day",
			cfg:  cfgAt(7, 0, 30),
			// 06:35: the alarm (07:00) is still ahead but the ramp start
			// (06:30) has passed, so the event rolls to tomorrow.
			now:  time.Date(2024, 3, 10, 6, 35, 0, 0, loc),
			want: 24*3600 - 5*60,
		},
		{
			name: "mid_day_resume",
			cfg:  cfgAt(7, 0, 30),
			now:  time.Date(2024, 3, 10, 13, 0, 0, 0, loc),
			want: (24-13)*3600 + 6*3600 + 30*60,
		},
		{
			name: "exactly_at_ramp_start_rolls",
			cfg:  cfgAt(7, 0, 30),
			now:  time.Date(2024, 3, 10, 6, 30, 0, 0, loc),
			want: 24 * 3600,
		},
		{
			name: "one_minute_ramp",
			cfg:  cfgAt(0, 30, 1),
			now:  time.Date(2024, 3, 10, 0, 0, 0, 0, loc),
			want: 29 * 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SecondsUntilSunriseStart(tt.cfg, tt.now, loc)
			if got != tt.want {
				t.Errorf("SecondsUntilSunriseStart() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSecondsUntilSunriseStartFallbacks(t *testing.T) {
	loc := time.UTC
	sane := time.Date(2024, 3, 10, 6, 0, 0, 0, loc)

	disabled := cfgAt(7, 0, 30)
	disabled.AlarmEnabled = false
	if got := SecondsUntilSunriseStart(disabled, sane, loc); got != FallbackSeconds {
		t.Errorf("disabled alarm: got %d, want fallback %d", got, FallbackSeconds)
	}

	unsane := time.Unix(SanityFloor-1, 0)
	if got := SecondsUntilSunriseStart(cfgAt(7, 0, 30), unsane, loc); got != FallbackSeconds {
		t.Errorf("unsane clock: got %d, want fallback %d", got, FallbackSeconds)
	}
}

func TestSecondsUntilSunriseStartBounds(t *testing.T) {
	loc := mustLoc(t, "Europe/Berlin")
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, loc)

	// Sweep a day of "now" values against a grid of configs; the result must
	// always land in [1, 24h+duration].
	for hour := uint8(0); hour < 24; hour += 3 {
		for _, dur := range []uint8{1, 5, 30, 60} {
			cfg := cfgAt(hour, 15, dur)
			for minOfDay := 0; minOfDay < 24*60; minOfDay += 97 {
				now := base.Add(time.Duration(minOfDay) * time.Minute)
				got := SecondsUntilSunriseStart(cfg, now, loc)
				max := uint64(24*3600) + uint64(dur)*60
				if got < 1 || got > max {
					t.Fatalf("cfg=%02d:15/%dm now=%s: got %d, outside [1,%d]",
						hour, dur, now, got, max)
				}
			}
		}
	}
}

func TestTimeSane(t *testing.T) {
	if TimeSane(time.Unix(SanityFloor-1, 0)) {
		t.Error("instant before floor must not be sane")
	}
	if !TimeSane(time.Unix(SanityFloor, 0)) {
		t.Error("floor instant must be sane")
	}
}

func TestNextAlarmAtRollsToTomorrow(t *testing.T) {
	loc := time.UTC
	cfg := cfgAt(7, 0, 30)

	now := time.Date(2024, 3, 10, 8, 0, 0, 0, loc)
	next := NextAlarmAt(cfg, now, loc)
	want := time.Date(2024, 3, 11, 7, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("NextAlarmAt = %s, want %s", next, want)
	}
}

func TestAlarmDue(t *testing.T) {
	cfg := cfgAt(7, 0, 30)
	rampStart := time.Date(2024, 3, 10, 6, 30, 0, 0, time.UTC)

	if AlarmDue(cfg, rampStart.Add(-time.Second), rampStart) {
		t.Error("not due one second early")
	}
	if !AlarmDue(cfg, rampStart, rampStart) {
		t.Error("due exactly at ramp start")
	}

	cfg.AlarmEnabled = false
	if AlarmDue(cfg, rampStart.Add(time.Hour), rampStart) {
		t.Error("disabled alarm never due")
	}
}
