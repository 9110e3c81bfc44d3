// Package display provides the segmented clock display with hardware
// abstraction. The real implementation drives a CH455-class controller over a
// bit-banged two-wire bus; the fake allows testing without hardware.
package display

// Display drives the 4-digit seven-segment clock face.
type Display interface {
	// Show renders HH.MM with the separator dot.
	Show(hour, minute int) error

	// Clear blanks all digits.
	Clear() error

	// SetEnabled switches the display output on or off.
	SetEnabled(on bool) error

	// SetLowPower toggles the controller's sleep bit. Used right before
	// hibernation; the display is unusable until SetLowPower(false).
	SetLowPower(on bool) error

	// Close releases bus resources.
	Close() error
}

// segForDigit returns the A..G (bit0..6) segment pattern; bit7 is the dot.
func segForDigit(d int) byte {
	seg := [10]byte{
		0b00111111, // 0
		0b00000110, // 1
		0b01011011, // 2
		0b01001111, // 3
		0b01100110, // 4
		0b01101101, // 5
		0b01111101, // 6
		0b00000111, // 7
		0b01111111, // 8
		0b01101111, // 9
	}
	if d < 0 || d > 9 {
		return 0
	}
	return seg[d]
}

// digitsForTime returns the four left-to-right segment bytes for HH.MM.
// There is no dedicated colon on this module; the DP on the hours-units digit
// serves as the separator.
func digitsForTime(hour, minute int) [4]byte {
	return [4]byte{
		segForDigit(hour / 10),
		segForDigit(hour%10) | 0x80,
		segForDigit(minute / 10),
		segForDigit(minute % 10),
	}
}
