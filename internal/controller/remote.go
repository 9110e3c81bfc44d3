package controller

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dawnlamp/dawnlamp/internal/device"
	"github.com/dawnlamp/dawnlamp/internal/hw/clock"
	"github.com/dawnlamp/dawnlamp/internal/ledger"
	"github.com/dawnlamp/dawnlamp/internal/schedule"
	"github.com/dawnlamp/dawnlamp/internal/wireless"
)

// The controller is the wireless.Handler: every characteristic write lands
// here, on the wireless goroutine. Handlers only touch shared state through
// updateConfig/signal, then return — the control loop applies the change on
// its next tick. A write is acknowledged by the wireless service only after
// these methods return, so the persist-then-ack ordering holds.

func (c *Controller) HandleWrite(char wireless.Char, data []byte) error {
	switch char {
	case wireless.CharAlarm:
		rec, err := wireless.ParseAlarmRecord(data)
		if err != nil {
			return err
		}
		return c.updateConfig("alarm", func(cfg *device.Config) {
			cfg.AlarmHour = rec.Hour
			cfg.AlarmMinute = rec.Minute
			cfg.AlarmEnabled = rec.Enabled
		})

	case wireless.CharTimeSync:
		h, m, s, err := wireless.ParseTimeSync(data)
		if err != nil {
			return err
		}
		return c.syncTime(h, m, s)

	case wireless.CharColorTemp:
		v, err := wireless.ParsePercentByte(data)
		if err != nil {
			return err
		}
		return c.updateConfig("color_temp", func(cfg *device.Config) { cfg.ColorTemp = v })

	case wireless.CharWakeBright:
		v, err := wireless.ParsePercentByte(data)
		if err != nil {
			return err
		}
		return c.updateConfig("wake_bright", func(cfg *device.Config) { cfg.WakeBright = v })

	case wireless.CharDuration:
		v, err := wireless.ParseDurationByte(data)
		if err != nil {
			return err
		}
		return c.updateConfig("duration", func(cfg *device.Config) { cfg.SunriseDurationMin = v })
	}

	return fmt.Errorf("%w: characteristic %q not writable", wireless.ErrMalformed, char)
}

func (c *Controller) HandleRead(char wireless.Char) ([]byte, error) {
	switch char {
	case wireless.CharAlarm:
		cfg := c.Config()
		return wireless.FormatAlarmRecord(wireless.AlarmRecord{
			Hour:    cfg.AlarmHour,
			Minute:  cfg.AlarmMinute,
			Enabled: cfg.AlarmEnabled,
		}), nil

	case wireless.CharBattery:
		if c.battery == nil {
			return nil, fmt.Errorf("controller: battery sensor unavailable")
		}
		pct, err := c.battery.Percent()
		if err != nil {
			return nil, fmt.Errorf("controller: battery read: %w", err)
		}
		return []byte{pct}, nil
	}

	return nil, fmt.Errorf("%w: characteristic %q not readable", wireless.ErrMalformed, char)
}

func (c *Controller) SessionOpened(id string) {
	c.mu.Lock()
	c.sessionOpen = true
	c.sleepAt = time.Time{} // an attaching companion cancels pending idle-sleep
	c.mu.Unlock()
	c.signal()
}

func (c *Controller) SessionClosed(id string) {
	now := c.clk.Now()
	c.mu.Lock()
	c.sessionOpen = false
	if c.configWritten {
		c.configWritten = false
		c.sleepAt = now.Add(c.opts.IdleSleepDelay)
	}
	c.mu.Unlock()
	c.signal()
}

// updateConfig validates, persists and publishes one mutation. The schedule
// consequence is recomputed before returning so the peer's ack implies the
// new wake interval is in force.
func (c *Controller) updateConfig(field string, mutate func(*device.Config)) error {
	c.mu.Lock()
	next := c.cfg
	mutate(&next)
	if err := next.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.store.Save(next); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("controller: persist %s: %w", field, err)
	}
	c.cfg = next
	c.refresh = true
	c.configWritten = true
	c.mu.Unlock()

	now := c.clk.Now()
	wakeSec := schedule.SecondsUntilSunriseStart(next, now, c.opts.Location)
	log.Info().Str("field", field).Uint64("wake_sec", wakeSec).Msg("Config written")
	c.record(ledger.EventConfigWritten, map[string]any{"field": field})

	c.signal()
	return nil
}

// syncTime steps the wall clock's time-of-day, preserving the date.
func (c *Controller) syncTime(h, m, s int) error {
	now := c.clk.Now()
	next := clock.TimeOfDay(now, h, m, s)
	if err := c.clk.Set(next); err != nil {
		return fmt.Errorf("controller: set clock: %w", err)
	}
	log.Info().Time("was", now).Time("now", next).Msg("Clock synced")

	c.mu.Lock()
	c.refresh = true
	c.configWritten = true
	c.mu.Unlock()
	c.signal()
	return nil
}
