//go:build linux

package hibernate

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// timerWakeSlack is how far past the recorded deadline a boot may land and
// still count as a timer wake. Boot of this board takes a few seconds.
const timerWakeSlack = 90 * time.Second

// RealSleeper hibernates the board: it arms the RTC wake alarm, marks the
// button line as a wakeup source and powers the system off. The wake-cause
// register is a tiny state file holding the armed deadline; together with the
// button level at boot it reconstructs the cause.
type RealSleeper struct {
	rtcDir    string // e.g. /sys/class/rtc/rtc0
	wakeupSrc string // e.g. /sys/devices/.../gpio-keys/power/wakeup
	stateFile string // armed-deadline register

	buttonHeld func() bool
	armed      uint64
}

// NewRealSleeper creates the sleeper. buttonHeld samples the button level and
// is consulted once, at Cause time.
func NewRealSleeper(rtcDir, wakeupSrc, stateFile string, buttonHeld func() bool) *RealSleeper {
	return &RealSleeper{
		rtcDir:     rtcDir,
		wakeupSrc:  wakeupSrc,
		stateFile:  stateFile,
		buttonHeld: buttonHeld,
	}
}

// Cause reads the wake-cause register. Priority: a held button always wins
// (the user is present), then a recorded deadline that has passed, then cold
// boot.
func (s *RealSleeper) Cause() Cause {
	if s.buttonHeld != nil && s.buttonHeld() {
		return CauseButton
	}

	deadline, err := s.readDeadline()
	if err != nil {
		return CausePowerOn
	}
	now := time.Now()
	if now.After(deadline.Add(-time.Second)) && now.Before(deadline.Add(timerWakeSlack)) {
		return CauseTimer
	}
	return CausePowerOn
}

// ArmTimer stages the RTC wake alarm.
func (s *RealSleeper) ArmTimer(seconds uint64) error {
	s.armed = seconds
	deadline := time.Now().Add(time.Duration(seconds) * time.Second)

	alarm := filepath.Join(s.rtcDir, "wakealarm")
	// Clear a previously armed alarm first; the RTC rejects rearming.
	if err := os.WriteFile(alarm, []byte("0"), 0o644); err != nil {
		return fmt.Errorf("clear rtc alarm: %w", err)
	}
	if err := os.WriteFile(alarm, []byte(strconv.FormatInt(deadline.Unix(), 10)), 0o644); err != nil {
		return fmt.Errorf("arm rtc alarm: %w", err)
	}

	if err := os.WriteFile(s.stateFile, []byte(strconv.FormatInt(deadline.Unix(), 10)), 0o644); err != nil {
		return fmt.Errorf("write wake register: %w", err)
	}
	return nil
}

// ArmLevelWake marks the button device as a wakeup source. Best effort: not
// every board routes the line to a wake-capable controller.
func (s *RealSleeper) ArmLevelWake() error {
	if s.wakeupSrc == "" {
		return nil
	}
	if err := os.WriteFile(s.wakeupSrc, []byte("enabled"), 0o644); err != nil {
		return fmt.Errorf("enable button wakeup: %w", err)
	}
	return nil
}

// Enter powers the system off. The armed RTC alarm or the button bring it
// back. Does not return: if the poweroff command itself fails the error is
// reported, otherwise the process blocks until the kernel kills it.
func (s *RealSleeper) Enter() error {
	log.Info().Uint64("armed_seconds", s.armed).Msg("Committing hibernation")

	cmd := exec.Command("systemctl", "poweroff")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("poweroff: %w (%s)", err, strings.TrimSpace(string(out)))
	}

	// Power loss is imminent; never hand control back to the mode loop.
	select {}
}

func (s *RealSleeper) readDeadline() (time.Time, error) {
	data, err := os.ReadFile(s.stateFile)
	if err != nil {
		return time.Time{}, err
	}
	unix, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, 0), nil
}
