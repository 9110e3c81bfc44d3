package hibernate

// FakeSleeper records arming calls for tests. Enter returns instead of
// powering off, so a test drives the controller straight through the
// hibernation commit and then inspects the sequence.
type FakeSleeper struct {
	WakeCause Cause

	ArmedSeconds uint64
	TimerArmed   bool
	LevelArmed   bool
	Entered      bool
	EnterCount   int

	// Sequence is the ordered call trace: "arm_timer", "arm_level", "enter".
	Sequence []string

	ArmTimerErr error
	EnterErr    error
}

// NewFakeSleeper creates a fake that reports the given wake cause.
func NewFakeSleeper(cause Cause) *FakeSleeper {
	return &FakeSleeper{WakeCause: cause}
}

func (f *FakeSleeper) Cause() Cause {
	return f.WakeCause
}

func (f *FakeSleeper) ArmTimer(seconds uint64) error {
	if f.ArmTimerErr != nil {
		return f.ArmTimerErr
	}
	f.ArmedSeconds = seconds
	f.TimerArmed = true
	f.Sequence = append(f.Sequence, "arm_timer")
	return nil
}

func (f *FakeSleeper) ArmLevelWake() error {
	f.LevelArmed = true
	f.Sequence = append(f.Sequence, "arm_level")
	return nil
}

func (f *FakeSleeper) Enter() error {
	f.Entered = true
	f.EnterCount++
	f.Sequence = append(f.Sequence, "enter")
	return f.EnterErr
}
