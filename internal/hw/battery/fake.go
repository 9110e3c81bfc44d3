package battery

// FakeSensor returns a scripted battery level for tests.
type FakeSensor struct {
	Level   uint8
	Err     error
	Reads   int
	Closed  bool
}

// NewFakeSensor creates a fake sensor at the given level.
func NewFakeSensor(level uint8) *FakeSensor {
	return &FakeSensor{Level: level}
}

func (f *FakeSensor) Percent() (uint8, error) {
	f.Reads++
	if f.Err != nil {
		return 0, f.Err
	}
	return f.Level, nil
}

func (f *FakeSensor) Close() error {
	f.Closed = true
	return nil
}
