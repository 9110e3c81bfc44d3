package button

import (
	"testing"
	"time"
)

// runPress feeds the classifier a press of the given held duration, sampling
// every step, and returns all non-None events with their offsets.
func runPress(t *testing.T, c *Classifier, held, tail, step time.Duration) map[Event][]time.Duration {
	t.Helper()

	events := make(map[Event][]time.Duration)
	start := time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)

	for off := time.Duration(0); off <= held+tail; off += step {
		raw := off < held
		ev := c.Poll(raw, start.Add(off))
		if ev != EventNone {
			events[ev] = append(events[ev], off)
		}
	}
	return events
}

func TestShortPress(t *testing.T) {
	c := New(2000*time.Millisecond, 25*time.Millisecond)

	events := runPress(t, c, 500*time.Millisecond, time.Second, 10*time.Millisecond)

	if len(events[EventLong]) != 0 {
		t.Fatalf("short press emitted Long at %v", events[EventLong])
	}
	if len(events[EventShort]) != 1 {
		t.Fatalf("want exactly one Short, got %v", events[EventShort])
	}
}

func TestLongPressFiresBeforeRelease(t *testing.T) {
	c := New(2000*time.Millisecond, 25*time.Millisecond)

	events := runPress(t, c, 2100*time.Millisecond, time.Second, 10*time.Millisecond)

	longs := events[EventLong]
	if len(longs) != 1 {
		t.Fatalf("want exactly one Long, got %v", longs)
	}
	// Must fire while still held (release is at 2100ms), right at the
	// threshold given the 10ms sampling grid.
	if longs[0] < 2000*time.Millisecond || longs[0] > 2020*time.Millisecond {
		t.Errorf("Long fired at %v, want ~2000ms", longs[0])
	}
	if len(events[EventShort]) != 0 {
		t.Errorf("release after Long emitted Short at %v", events[EventShort])
	}
}

func TestVeryLongHoldEmitsSingleLong(t *testing.T) {
	c := New(2000*time.Millisecond, 25*time.Millisecond)

	events := runPress(t, c, 10*time.Second, time.Second, 10*time.Millisecond)

	if len(events[EventLong]) != 1 {
		t.Fatalf("want exactly one Long for a sustained hold, got %v", events[EventLong])
	}
}

func TestBounceSuppressed(t *testing.T) {
	c := New(2000*time.Millisecond, 25*time.Millisecond)
	start := time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)

	// 5ms contact bounce: alternating levels shorter than the debounce
	// interval must not produce any event.
	levels := []bool{true, false, true, false, true, false, false, false}
	for i, raw := range levels {
		at := start.Add(time.Duration(i) * 5 * time.Millisecond)
		if ev := c.Poll(raw, at); ev != EventNone {
			t.Fatalf("bounce sample %d produced %s", i, ev)
		}
	}
}

func TestConsecutivePresses(t *testing.T) {
	c := New(2000*time.Millisecond, 25*time.Millisecond)

	first := runPress(t, c, 300*time.Millisecond, 500*time.Millisecond, 10*time.Millisecond)
	if len(first[EventShort]) != 1 {
		t.Fatalf("first press: want one Short, got %v", first[EventShort])
	}

	second := runPress(t, c, 2500*time.Millisecond, 500*time.Millisecond, 10*time.Millisecond)
	if len(second[EventLong]) != 1 || len(second[EventShort]) != 0 {
		t.Fatalf("second press: want one Long and no Short, got %v", second)
	}
}

func TestMeasurePress(t *testing.T) {
	var virtual time.Duration
	now := func() time.Time {
		return time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC).Add(virtual)
	}
	sleep := func(d time.Duration) { virtual += d }

	t.Run("not_pressed", func(t *testing.T) {
		got := MeasurePress(func() bool { return false }, now, sleep, 6*time.Second)
		if got != 0 {
			t.Errorf("got %v, want 0", got)
		}
	})

	t.Run("released_after_300ms", func(t *testing.T) {
		virtual = 0
		release := 300 * time.Millisecond
		pressed := func() bool { return virtual < release }
		got := MeasurePress(pressed, now, sleep, 6*time.Second)
		if got < release || got > release+20*time.Millisecond {
			t.Errorf("got %v, want ~%v", got, release)
		}
	})

	t.Run("ceiling_bounds_stuck_button", func(t *testing.T) {
		virtual = 0
		got := MeasurePress(func() bool { return true }, now, sleep, 6*time.Second)
		if got < 6*time.Second || got > 6*time.Second+20*time.Millisecond {
			t.Errorf("got %v, want ceiling ~6s", got)
		}
	})
}
