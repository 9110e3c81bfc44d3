// Package controller owns the device's mode state machine. One instance holds
// every collaborator (display, lamp, battery, button, clock, hibernation,
// wireless service) and all shared mutable state; the wireless goroutine
// reaches that state only through the narrow Handler methods in remote.go,
// and the control loop picks changes up at its next tick via the refresh
// flag and wake signal.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dawnlamp/dawnlamp/internal/button"
	"github.com/dawnlamp/dawnlamp/internal/device"
	"github.com/dawnlamp/dawnlamp/internal/gradient"
	"github.com/dawnlamp/dawnlamp/internal/hw/battery"
	"github.com/dawnlamp/dawnlamp/internal/hw/buttonpin"
	"github.com/dawnlamp/dawnlamp/internal/hw/clock"
	"github.com/dawnlamp/dawnlamp/internal/hw/display"
	"github.com/dawnlamp/dawnlamp/internal/hw/hibernate"
	"github.com/dawnlamp/dawnlamp/internal/hw/light"
	"github.com/dawnlamp/dawnlamp/internal/ledger"
	"github.com/dawnlamp/dawnlamp/internal/schedule"
	"github.com/dawnlamp/dawnlamp/internal/wireless"
)

// Mode is the controller's current top-level state.
type Mode int

const (
	ModeDeepSleepPending Mode = iota
	ModeActiveIdle
	ModeAlarmGradient
	ModeManualLight
)

func (m Mode) String() string {
	switch m {
	case ModeActiveIdle:
		return "active_idle"
	case ModeAlarmGradient:
		return "alarm_gradient"
	case ModeManualLight:
		return "manual_light"
	default:
		return "deep_sleep_pending"
	}
}

// Options are the fixed timing knobs, populated from runtime config.
type Options struct {
	ShowWindow     time.Duration // how long the time stays up after a wake
	IdleTick       time.Duration // loop period in ActiveIdle / ManualLight
	GradientTick   time.Duration // loop period during the sunrise ramp
	IdleSleepDelay time.Duration // grace after a config session closes
	MeasureCeiling time.Duration // wake-press measurement cap
	AlwaysOn       bool          // diagnostics mode: never hibernate
	Location       *time.Location
}

// DefaultOptions returns the production timings.
func DefaultOptions() Options {
	return Options{
		ShowWindow:     15 * time.Second,
		IdleTick:       200 * time.Millisecond,
		GradientTick:   100 * time.Millisecond,
		IdleSleepDelay: 3 * time.Second,
		MeasureCeiling: 6 * time.Second,
		Location:       time.Local,
	}
}

func (o *Options) applyDefaults() {
	d := DefaultOptions()
	if o.ShowWindow == 0 {
		o.ShowWindow = d.ShowWindow
	}
	if o.IdleTick == 0 {
		o.IdleTick = d.IdleTick
	}
	if o.GradientTick == 0 {
		o.GradientTick = d.GradientTick
	}
	if o.IdleSleepDelay == 0 {
		o.IdleSleepDelay = d.IdleSleepDelay
	}
	if o.MeasureCeiling == 0 {
		o.MeasureCeiling = d.MeasureCeiling
	}
	if o.Location == nil {
		o.Location = d.Location
	}
}

// Controller is the mode state machine. Light, battery, pin and wireless may
// be nil when their peripheral failed to initialize; every touch point is
// nil-guarded so the device degrades instead of crashing.
type Controller struct {
	opts Options

	store   device.Store
	clk     clock.Clock
	disp    display.Display
	light   light.Light
	battery battery.Sensor
	pin     buttonpin.Pin
	sleeper hibernate.Sleeper
	ledger  *ledger.Ledger

	svc        *wireless.Service
	classifier *button.Classifier
	measure    func() time.Duration

	mu            sync.Mutex
	cfg           device.Config
	mode          Mode
	refresh       bool
	sessionOpen   bool
	configWritten bool
	sleepAt       time.Time // pending idle-sleep deadline, zero when none

	wake chan struct{}
}

// New builds a controller. The config is loaded (and repaired if needed) from
// the store up front so every mode starts from persisted state.
func New(opts Options, store device.Store, clk clock.Clock, disp display.Display,
	lamp light.Light, bat battery.Sensor, pin buttonpin.Pin,
	sleeper hibernate.Sleeper, lg *ledger.Ledger) (*Controller, error) {

	opts.applyDefaults()
	cfg, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("controller: load config: %w", err)
	}

	c := &Controller{
		opts:       opts,
		store:      store,
		clk:        clk,
		disp:       disp,
		light:      lamp,
		battery:    bat,
		pin:        pin,
		sleeper:    sleeper,
		ledger:     lg,
		classifier: button.NewClassifier(),
		cfg:        cfg,
		wake:       make(chan struct{}, 1),
	}
	c.measure = c.measureWakePress
	return c, nil
}

// AttachWireless hands the controller its config-channel service. Optional;
// without it the device still wakes, ramps and sleeps.
func (c *Controller) AttachWireless(svc *wireless.Service) {
	c.svc = svc
}

// Config returns a snapshot of the persisted device config.
func (c *Controller) Config() device.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Run dispatches on the wake cause, drives the resulting mode to completion
// and commits hibernation. On real hardware it does not return except on
// context cancellation or a fatal arming error. In always-on mode it loops
// forever instead.
func (c *Controller) Run(ctx context.Context) error {
	if c.opts.AlwaysOn {
		return c.runAlwaysOn(ctx)
	}

	cause := c.sleeper.Cause()
	log.Info().Str("cause", cause.String()).Msg("Controller started")

	var err error
	switch cause {
	case hibernate.CauseTimer:
		err = c.runAlarmGradient(ctx)
	case hibernate.CauseButton:
		held := c.measure()
		log.Debug().Dur("held", held).Msg("Wake press measured")
		if held >= button.LongPressThreshold {
			err = c.runManualLight(ctx)
		} else {
			err = c.runShowTime(ctx)
		}
	default:
		err = c.runShowTime(ctx)
	}
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		// Shutdown request, not a mode exit: leave hibernation unarmed.
		return nil
	}
	return c.enterHibernation()
}

// runShowTime is ActiveIdle: display the time for the show window, stay
// reachable over wireless, and escalate to ManualLight on a long press.
func (c *Controller) runShowTime(ctx context.Context) error {
	c.setMode(ModeActiveIdle)
	c.displayWake()
	c.setDiscoverable(true)

	deadline := c.clk.Now().Add(c.opts.ShowWindow)
	for {
		now := c.clk.Now()
		c.showTime(now)

		// Short is a no-op here: the time is already showing and the window
		// runs out at its original deadline.
		if c.pollButton(now) == button.EventLong {
			return c.runManualLight(ctx)
		}

		c.consumeRefresh()

		if !c.sessionActive() {
			if due, at := c.idleSleepDue(now); due {
				log.Debug().Time("requested_at", at).Msg("Idle-sleep grace elapsed")
				return nil
			}
			if now.After(deadline) {
				return nil
			}
		}

		if !c.sleepTick(ctx, c.opts.IdleTick) {
			return nil
		}
	}
}

// runAlarmGradient is the sunrise ramp and its sustain phase. Config is
// re-read every tick so wireless writes to brightness, color temperature or
// duration apply immediately; a changed duration rescales the curve without
// resetting progress. Any press ends the mode and forces the lamp dark.
func (c *Controller) runAlarmGradient(ctx context.Context) error {
	c.setMode(ModeAlarmGradient)
	c.displayWake()
	c.setDiscoverable(true)
	log.Info().Msg("Sunrise ramp starting")

	start := c.clk.Monotonic()
	sustained := false
	for {
		now := c.clk.Now()
		cfg := c.Config()
		c.consumeRefresh()

		elapsed := c.clk.Monotonic() - start
		total := time.Duration(cfg.SunriseDurationMin) * time.Minute
		tgt := gradient.At(elapsed, total, cfg.WakeBright, cfg.ColorTemp)
		c.setLight(tgt.Warm, tgt.Cool)
		c.showTime(now)

		if !sustained && elapsed >= total {
			sustained = true
			log.Info().Uint8("wake_bright", cfg.WakeBright).Msg("Sunrise ramp complete")
			c.record(ledger.EventAlarmFired, map[string]any{
				"duration_min": cfg.SunriseDurationMin,
			})
		}

		// Short is the only mode-ending gesture during the ramp and sustain;
		// a long press means the user is fumbling for the light, not asking
		// for a different mode.
		if c.pollButton(now) == button.EventShort {
			c.lightOff()
			if !sustained {
				log.Info().Dur("elapsed", elapsed).Msg("Sunrise ramp cancelled")
				c.record(ledger.EventAlarmCancelled, map[string]any{
					"elapsed_sec": int(elapsed / time.Second),
				})
			}
			return nil
		}

		if !c.sleepTick(ctx, c.opts.GradientTick) {
			c.lightOff()
			return nil
		}
	}
}

// runManualLight holds the lamp at the configured target. A short press
// opens a discoverability window; a long press turns the lamp off and exits.
func (c *Controller) runManualLight(ctx context.Context) error {
	c.setMode(ModeManualLight)
	c.displayWake()
	c.record(ledger.EventManualLight, nil)

	var discoverUntil time.Time
	for {
		now := c.clk.Now()
		cfg := c.Config()
		c.consumeRefresh()

		tgt := gradient.Mix(cfg.WakeBright, cfg.ColorTemp)
		c.setLight(tgt.Warm, tgt.Cool)
		c.showTime(now)

		switch c.pollButton(now) {
		case button.EventLong:
			c.lightOff()
			return nil
		case button.EventShort:
			discoverUntil = now.Add(c.opts.ShowWindow)
			c.setDiscoverable(true)
		}

		if !discoverUntil.IsZero() && now.After(discoverUntil) && !c.sessionActive() {
			discoverUntil = time.Time{}
			c.setDiscoverable(false)
		}

		if !c.sleepTick(ctx, c.opts.IdleTick) {
			c.lightOff()
			return nil
		}
	}
}

// runAlwaysOn is the diagnostics variant: the process stays resident, the
// hardware timer is replaced by a per-tick due check, and hibernation is
// never armed.
func (c *Controller) runAlwaysOn(ctx context.Context) error {
	c.setMode(ModeActiveIdle)
	c.displayWake()
	c.setDiscoverable(true)
	log.Info().Msg("Controller started in always-on mode")

	now := c.clk.Now()
	rampStart := schedule.NextRampStart(c.Config(), now, c.opts.Location)
	log.Info().Time("ramp_start", rampStart).Msg("Next sunrise scheduled")

	for {
		now = c.clk.Now()
		cfg := c.Config()

		if c.consumeRefresh() {
			rampStart = schedule.NextRampStart(cfg, now, c.opts.Location)
			log.Info().Time("ramp_start", rampStart).Msg("Sunrise rescheduled")
		}

		if schedule.AlarmDue(cfg, now, rampStart) {
			if err := c.runAlarmGradient(ctx); err != nil {
				return err
			}
			c.setMode(ModeActiveIdle)
			c.setDiscoverable(true)
			rampStart = schedule.NextRampStart(c.Config(), c.clk.Now(), c.opts.Location)
			log.Info().Time("ramp_start", rampStart).Msg("Next sunrise scheduled")
		}

		c.showTime(now)

		if c.pollButton(now) == button.EventLong {
			if err := c.runManualLight(ctx); err != nil {
				return err
			}
			c.setMode(ModeActiveIdle)
			c.setDiscoverable(true)
		}

		if !c.sleepTick(ctx, c.opts.IdleTick) {
			return nil
		}
	}
}

// enterHibernation quiesces every peripheral, arms the freshly recomputed
// wake timer plus the button level wake, then commits. The wireless stack is
// released before anything is armed so a landing write can never race the
// countdown it is supposed to reschedule.
func (c *Controller) enterHibernation() error {
	c.setMode(ModeDeepSleepPending)

	if err := c.disp.Clear(); err != nil {
		log.Warn().Err(err).Msg("Display clear failed")
	}
	if err := c.disp.SetEnabled(false); err != nil {
		log.Warn().Err(err).Msg("Display disable failed")
	}
	if err := c.disp.SetLowPower(true); err != nil {
		log.Warn().Err(err).Msg("Display low-power failed")
	}
	c.lightOff()

	if c.svc != nil {
		if err := c.svc.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("Wireless shutdown failed")
		}
	}

	cfg := c.Config()
	now := c.clk.Now()
	seconds := schedule.SecondsUntilSunriseStart(cfg, now, c.opts.Location)

	if err := c.sleeper.ArmTimer(seconds); err != nil {
		return fmt.Errorf("controller: arm wake timer: %w", err)
	}
	if err := c.sleeper.ArmLevelWake(); err != nil {
		// Timer wake is still armed; the lamp loses button wake until the
		// next boot but the alarm fires.
		log.Warn().Err(err).Msg("Button level wake arm failed")
	}

	c.record(ledger.EventHibernateEntered, map[string]any{"wake_sec": seconds})
	log.Info().Uint64("wake_sec", seconds).Bool("clock_sane", schedule.TimeSane(now)).
		Msg("Entering hibernation")
	return c.sleeper.Enter()
}

// --- shared-state plumbing ---

func (c *Controller) setMode(m Mode) {
	c.mu.Lock()
	prev := c.mode
	c.mode = m
	c.mu.Unlock()
	if prev != m {
		log.Info().Str("from", prev.String()).Str("to", m.String()).Msg("Mode transition")
	}
}

// signal nudges the control loop out of its tick wait.
func (c *Controller) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// consumeRefresh clears and returns the remote-change flag.
func (c *Controller) consumeRefresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.refresh
	c.refresh = false
	return r
}

func (c *Controller) sessionActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionOpen
}

func (c *Controller) idleSleepDue(now time.Time) (bool, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sleepAt.IsZero() || now.Before(c.sleepAt) {
		return false, time.Time{}
	}
	return true, c.sleepAt
}

// sleepTick waits out one loop period, returning early on a wake signal.
// It reports false once ctx is cancelled.
func (c *Controller) sleepTick(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-c.wake:
		return true
	case <-t.C:
		return true
	}
}

// --- peripheral helpers (nil-guarded, per-tick errors logged and skipped) ---

func (c *Controller) displayWake() {
	if err := c.disp.SetLowPower(false); err != nil {
		log.Warn().Err(err).Msg("Display wake failed")
	}
	if err := c.disp.SetEnabled(true); err != nil {
		log.Warn().Err(err).Msg("Display enable failed")
	}
}

func (c *Controller) showTime(now time.Time) {
	local := now.In(c.opts.Location)
	if err := c.disp.Show(local.Hour(), local.Minute()); err != nil {
		log.Warn().Err(err).Msg("Display update failed")
	}
}

func (c *Controller) setLight(warm, cool uint8) {
	if c.light == nil {
		return
	}
	if err := c.light.Set(warm, cool, 0); err != nil {
		log.Warn().Err(err).Msg("Lamp update failed")
	}
}

func (c *Controller) lightOff() {
	if c.light == nil {
		return
	}
	if err := c.light.Off(); err != nil {
		log.Warn().Err(err).Msg("Lamp off failed")
	}
}

func (c *Controller) pollButton(now time.Time) button.Event {
	if c.pin == nil {
		return button.EventNone
	}
	raw, err := c.pin.Pressed()
	if err != nil {
		log.Warn().Err(err).Msg("Button read failed")
		raw = false
	}
	ev := c.classifier.Poll(raw, now)
	if ev != button.EventNone {
		log.Debug().Str("event", ev.String()).Msg("Button")
	}
	return ev
}

func (c *Controller) setDiscoverable(on bool) {
	if c.svc != nil {
		c.svc.SetDiscoverable(on)
	}
}

// measureWakePress samples the still-held wake press to classify it.
func (c *Controller) measureWakePress() time.Duration {
	if c.pin == nil {
		return 0
	}
	pressed := func() bool {
		p, err := c.pin.Pressed()
		return err == nil && p
	}
	return button.MeasurePress(pressed, time.Now, time.Sleep, c.opts.MeasureCeiling)
}

func (c *Controller) record(eventType ledger.EventType, payload map[string]any) {
	if c.ledger == nil {
		return
	}
	if err := c.ledger.Append(eventType, "controller", payload); err != nil {
		log.Warn().Err(err).Str("event", string(eventType)).Msg("Ledger append failed")
	}
}
