// Package hibernate provides the deep-sleep primitive and the wake-cause
// register. Hibernation discards all volatile state; the only things visible
// on the far side are the persisted device config and the cause value.
package hibernate

// Cause identifies why the device came out of hibernation.
type Cause int

const (
	// CausePowerOn is a cold boot: first power, reset, or an unknown wake.
	CausePowerOn Cause = iota
	// CauseTimer means the armed wake timer expired (sunrise due).
	CauseTimer
	// CauseButton means the wake was the button being held.
	CauseButton
)

// String returns a human-readable name for the cause.
func (c Cause) String() string {
	switch c {
	case CauseTimer:
		return "timer"
	case CauseButton:
		return "button"
	default:
		return "power_on"
	}
}

// Sleeper is the hibernation primitive. The arm calls only stage the wake
// sources; nothing takes effect until Enter, which never returns on real
// hardware. The fake returns from Enter so tests can observe the full
// quiesce-and-arm sequence.
type Sleeper interface {
	// Cause reports why the current process instance woke up.
	Cause() Cause

	// ArmTimer stages a timer wake the given number of seconds ahead.
	ArmTimer(seconds uint64) error

	// ArmLevelWake stages a level-triggered wake on the button line.
	ArmLevelWake() error

	// Enter commits hibernation. On real hardware it does not return.
	Enter() error
}
