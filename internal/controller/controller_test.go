package controller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawnlamp/dawnlamp/internal/button"
	"github.com/dawnlamp/dawnlamp/internal/device"
	"github.com/dawnlamp/dawnlamp/internal/hw/buttonpin"
	"github.com/dawnlamp/dawnlamp/internal/hw/clock"
	"github.com/dawnlamp/dawnlamp/internal/hw/display"
	"github.com/dawnlamp/dawnlamp/internal/hw/hibernate"
	"github.com/dawnlamp/dawnlamp/internal/hw/light"
	"github.com/dawnlamp/dawnlamp/internal/wireless"
)

// rig wires a controller to a full set of fakes with millisecond ticks so
// scenarios complete quickly. The fake clock only moves when the test
// advances it; the loop itself ticks in real time.
type rig struct {
	store   *device.FakeStore
	clk     *clock.FakeClock
	disp    *display.FakeDisplay
	lamp    *light.FakeLight
	pin     *buttonpin.FakePin
	sleeper *hibernate.FakeSleeper
	ctrl    *Controller
}

func newRig(t *testing.T, cause hibernate.Cause, opts Options) *rig {
	t.Helper()
	if opts.ShowWindow == 0 {
		opts.ShowWindow = 50 * time.Millisecond
	}
	opts.IdleTick = time.Millisecond
	opts.GradientTick = time.Millisecond
	if opts.IdleSleepDelay == 0 {
		opts.IdleSleepDelay = 10 * time.Millisecond
	}
	opts.Location = time.UTC

	r := &rig{
		store:   device.NewFakeStore(device.Default()),
		clk:     clock.NewFakeClock(time.Date(2026, 1, 5, 6, 0, 0, 0, time.UTC)),
		disp:    display.NewFakeDisplay(),
		lamp:    light.NewFakeLight(),
		pin:     buttonpin.NewFakePin(),
		sleeper: hibernate.NewFakeSleeper(cause),
	}
	ctrl, err := New(opts, r.store, r.clk, r.disp, r.lamp, nil, r.pin, r.sleeper, nil)
	require.NoError(t, err)
	r.ctrl = ctrl
	return r
}

func (r *rig) run(t *testing.T) chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- r.ctrl.Run(context.Background()) }()
	return done
}

func (r *rig) finish(t *testing.T, done chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not finish")
	}
}

// settle gives the real-time loop a few ticks to observe a clock step.
func settle() { time.Sleep(10 * time.Millisecond) }

// shortPress walks the fake pin through a debounced press and release.
func (r *rig) shortPress() {
	r.pin.Press()
	settle()
	r.clk.Advance(30 * time.Millisecond)
	settle()
	r.pin.Release()
	settle()
	r.clk.Advance(30 * time.Millisecond)
	settle()
}

// longPress holds the pin past the long-press threshold.
func (r *rig) longPress() {
	r.pin.Press()
	settle()
	r.clk.Advance(30 * time.Millisecond)
	settle()
	r.clk.Advance(button.LongPressThreshold)
	settle()
	r.pin.Release()
	settle()
	r.clk.Advance(30 * time.Millisecond)
	settle()
}

func TestTimerWakeCancelPressForcesLightOffAndHibernates(t *testing.T) {
	r := newRig(t, hibernate.CauseTimer, Options{})
	done := r.run(t)

	settle() // ramp running
	r.shortPress()
	r.finish(t, done)

	// Cancel forces the lamp dark before anything else happens.
	warm, cool := r.lamp.Last()
	assert.Equal(t, uint8(0), warm)
	assert.Equal(t, uint8(0), cool)

	// Quiesce then arm then commit, in that order.
	assert.Equal(t, []string{"arm_timer", "arm_level", "enter"}, r.sleeper.Sequence)
	assert.True(t, r.sleeper.Entered)

	ops := r.disp.Trace()
	require.GreaterOrEqual(t, len(ops), 3)
	tail := ops[len(ops)-3:]
	assert.Equal(t, []string{"clear", "enable off", "lowpower on"}, tail)
}

func TestTimerWakeArmsNextRampStart(t *testing.T) {
	r := newRig(t, hibernate.CauseTimer, Options{})
	done := r.run(t)

	settle()
	r.shortPress()
	r.finish(t, done)

	// Alarm 07:00, duration 30 min, now ~06:00 -> next ramp start ~06:30.
	assert.InDelta(t, 1800, float64(r.sleeper.ArmedSeconds), 5)
	assert.True(t, r.sleeper.LevelArmed)
}

func TestButtonWakeShortShowsTimeThenSleeps(t *testing.T) {
	r := newRig(t, hibernate.CauseButton, Options{})
	r.ctrl.measure = func() time.Duration { return 400 * time.Millisecond }
	done := r.run(t)

	settle()
	assert.Contains(t, r.disp.Trace(), "show 06:00")

	// No interaction: the show window elapses and the device goes back down.
	r.clk.Advance(60 * time.Millisecond)
	r.finish(t, done)
	assert.True(t, r.sleeper.Entered)
	// The lamp was never lit on this path.
	assert.Empty(t, r.lamp.History)
}

func TestShowWindowShortPressIsNoOp(t *testing.T) {
	r := newRig(t, hibernate.CauseButton, Options{})
	r.ctrl.measure = func() time.Duration { return 0 }
	done := r.run(t)
	settle()

	// The release commit lands at ~60 ms, past the 50 ms window. The press
	// must not push the deadline out: the device goes down right away,
	// without any further clock advance.
	r.shortPress()
	r.finish(t, done)
	assert.True(t, r.sleeper.Entered)
	assert.Empty(t, r.lamp.History)
}

func TestShowWindowLongPressEscalatesToManualLight(t *testing.T) {
	r := newRig(t, hibernate.CauseButton, Options{ShowWindow: time.Hour})
	r.ctrl.measure = func() time.Duration { return 0 }
	done := r.run(t)
	settle()
	assert.Empty(t, r.lamp.History, "idle shows the time with the lamp dark")

	// Escalation happens at the press, long before the window would end.
	r.longPress()
	warm, cool := r.lamp.Last()
	assert.Equal(t, uint8(56), warm)
	assert.Equal(t, uint8(24), cool)
	assert.False(t, r.sleeper.Entered)

	// A second long press turns the lamp off and commits hibernation.
	r.longPress()
	r.finish(t, done)
	assert.True(t, r.sleeper.Entered)
}

func TestGradientIgnoresLongPress(t *testing.T) {
	r := newRig(t, hibernate.CauseTimer, Options{})
	done := r.run(t)
	settle()

	// A long press mid-ramp is not a cancel gesture: the ramp keeps going.
	r.longPress()
	settle()
	assert.False(t, r.sleeper.Entered)
	warm, cool := r.lamp.Last()
	assert.NotEqual(t, [2]uint8{0, 0}, [2]uint8{warm, cool}, "ramp should still be lighting the lamp")

	r.shortPress()
	r.finish(t, done)
	assert.True(t, r.sleeper.Entered)
}

func TestButtonWakeLongGoesManualLight(t *testing.T) {
	r := newRig(t, hibernate.CauseButton, Options{})
	r.ctrl.measure = func() time.Duration { return 2500 * time.Millisecond }
	done := r.run(t)

	settle()
	// Defaults: wake_bright 80, color_temp 70 -> warm 56, cool 24.
	warm, cool := r.lamp.Last()
	assert.Equal(t, uint8(56), warm)
	assert.Equal(t, uint8(24), cool)

	r.longPress()
	r.finish(t, done)

	warm, cool = r.lamp.Last()
	assert.Equal(t, uint8(0), warm)
	assert.Equal(t, uint8(0), cool)
	assert.True(t, r.sleeper.Entered)
}

func TestRemoteAlarmWritePersistsAndReformats(t *testing.T) {
	r := newRig(t, hibernate.CausePowerOn, Options{})

	require.NoError(t, r.ctrl.HandleWrite(wireless.CharAlarm, []byte("06151")))
	assert.Equal(t, 1, r.store.SaveCalls)
	cfg := r.ctrl.Config()
	assert.Equal(t, uint8(6), cfg.AlarmHour)
	assert.Equal(t, uint8(15), cfg.AlarmMinute)
	assert.True(t, cfg.AlarmEnabled)

	v, err := r.ctrl.HandleRead(wireless.CharAlarm)
	require.NoError(t, err)
	assert.Equal(t, []byte("06151"), v)
}

func TestRemoteRejectsWithoutStateChange(t *testing.T) {
	r := newRig(t, hibernate.CausePowerOn, Options{})
	before := r.ctrl.Config()

	assert.Error(t, r.ctrl.HandleWrite(wireless.CharAlarm, []byte("2500")))
	assert.Error(t, r.ctrl.HandleWrite(wireless.CharDuration, []byte{0}))
	assert.Error(t, r.ctrl.HandleWrite(wireless.CharColorTemp, []byte{101}))
	assert.Error(t, r.ctrl.HandleWrite(wireless.CharBattery, []byte{1}))

	assert.Equal(t, 0, r.store.SaveCalls)
	assert.Equal(t, before, r.ctrl.Config())
}

func TestRemoteTimeSyncPreservesDate(t *testing.T) {
	r := newRig(t, hibernate.CausePowerOn, Options{})

	require.NoError(t, r.ctrl.HandleWrite(wireless.CharTimeSync, []byte("134502")))
	now := r.clk.Now()
	assert.Equal(t, time.Date(2026, 1, 5, 13, 45, 2, 0, time.UTC), now)
}

func TestSessionCloseAfterWriteRequestsIdleSleep(t *testing.T) {
	r := newRig(t, hibernate.CauseButton, Options{ShowWindow: time.Hour})
	r.ctrl.measure = func() time.Duration { return 0 }
	done := r.run(t)
	settle()

	r.ctrl.SessionOpened("s1")
	require.NoError(t, r.ctrl.HandleWrite(wireless.CharWakeBright, []byte{90}))
	r.ctrl.SessionClosed("s1")

	// Inside the grace period the device stays up.
	settle()
	assert.False(t, r.sleeper.Entered)

	r.clk.Advance(20 * time.Millisecond)
	r.finish(t, done)
	assert.True(t, r.sleeper.Entered)
}

func TestOpenSessionBlocksWindowExpiry(t *testing.T) {
	r := newRig(t, hibernate.CauseButton, Options{})
	r.ctrl.measure = func() time.Duration { return 0 }
	done := r.run(t)
	settle()

	r.ctrl.SessionOpened("s1")
	r.clk.Advance(time.Minute) // far past the show window
	settle()
	assert.False(t, r.sleeper.Entered)

	r.ctrl.SessionClosed("s1") // no write happened: plain window logic resumes
	r.clk.Advance(time.Minute)
	r.finish(t, done)
	assert.True(t, r.sleeper.Entered)
}

func TestAlwaysOnFiresGradientWithoutHibernating(t *testing.T) {
	r := newRig(t, hibernate.CausePowerOn, Options{AlwaysOn: true})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.ctrl.Run(ctx) }()

	settle()
	// Jump past the ramp start (06:30 for the 07:00 default alarm).
	r.clk.Advance(31 * time.Minute)
	settle()
	// Let some ramp time elapse so the floor-at-1 kicks in.
	r.clk.Advance(time.Second)
	settle()

	warm, cool := r.lamp.Last()
	assert.NotEqual(t, [2]uint8{0, 0}, [2]uint8{warm, cool}, "ramp should be lighting the lamp")

	r.shortPress() // cancel the ramp, back to idle
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not stop")
	}
	assert.False(t, r.sleeper.Entered)
	assert.False(t, r.sleeper.TimerArmed)
}
