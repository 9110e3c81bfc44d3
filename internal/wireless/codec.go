// Package wireless implements the configuration channel: characteristic
// codecs, the transport abstraction, session lifecycle and the advertiser
// reconciler. Events arrive from the transport's execution context; the
// controller consumes them through the Handler interface.
package wireless

import (
	"errors"
	"fmt"

	"github.com/dawnlamp/dawnlamp/internal/device"
)

// Char identifies one independently addressable characteristic.
type Char string

const (
	CharAlarm      Char = "alarm"
	CharTimeSync   Char = "timesync"
	CharBattery    Char = "battery"
	CharColorTemp  Char = "colortemp"
	CharWakeBright Char = "wakebright"
	CharDuration   Char = "duration"
)

// ErrMalformed is returned when a write payload cannot be normalized into
// any accepted encoding. The device state is unchanged in that case.
var ErrMalformed = errors.New("wireless: malformed payload")

// AlarmRecord is the decoded alarm characteristic value.
type AlarmRecord struct {
	Hour    uint8
	Minute  uint8
	Enabled bool
}

// FormatAlarmRecord encodes the canonical 5-byte ASCII wire form HHMME.
func FormatAlarmRecord(rec AlarmRecord) []byte {
	e := byte('0')
	if rec.Enabled {
		e = '1'
	}
	return []byte{
		'0' + rec.Hour/10, '0' + rec.Hour%10,
		'0' + rec.Minute/10, '0' + rec.Minute%10,
		e,
	}
}

// ParseAlarmRecord decodes an alarm write. The canonical form is 5 ASCII
// digits HHMME, but several generations of companion apps are still in the
// field, so the following legacy encodings are normalized first:
//
//   - bare 4-digit ASCII HHMM (enable defaults to 1)
//   - shorter decimal text ("730"), plus whitespace/NUL padding around any
//     text form
//   - packed BCD: 2 bytes HH MM, or 3 bytes HH MM EE
//   - little-endian integer (2 or 4 bytes) carrying decimal HH*100+MM
//
// Anything else, or any normalized value out of range, is rejected with
// ErrMalformed and no state change.
func ParseAlarmRecord(data []byte) (AlarmRecord, error) {
	if len(data) == 0 {
		return AlarmRecord{}, fmt.Errorf("%w: empty", ErrMalformed)
	}

	if digits, ok := textDigits(data); ok {
		return alarmFromText(digits)
	}

	switch len(data) {
	case 2:
		if rec, ok := alarmFromBCD(data[0], data[1], 1); ok {
			return rec, nil
		}
		// Not valid BCD: treat as a little-endian integer.
		return alarmFromDecimal(uint32(data[0]) | uint32(data[1])<<8)
	case 3:
		if rec, ok := alarmFromBCD(data[0], data[1], data[2]); ok {
			return rec, nil
		}
		return AlarmRecord{}, fmt.Errorf("%w: bad BCD %02x%02x%02x", ErrMalformed, data[0], data[1], data[2])
	case 4:
		v := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
		return alarmFromDecimal(v)
	}

	return AlarmRecord{}, fmt.Errorf("%w: %d bytes", ErrMalformed, len(data))
}

// textDigits trims whitespace/NUL padding and returns the digit run, or
// ok=false when any non-padding byte is not an ASCII digit.
func textDigits(data []byte) ([]byte, bool) {
	start, end := 0, len(data)
	for start < end && isPadding(data[start]) {
		start++
	}
	for end > start && isPadding(data[end-1]) {
		end--
	}
	if start == end {
		return nil, false
	}
	for _, b := range data[start:end] {
		if b < '0' || b > '9' {
			return nil, false
		}
	}
	return data[start:end], true
}

func isPadding(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == 0
}

func alarmFromText(digits []byte) (AlarmRecord, error) {
	enabled := true

	switch {
	case len(digits) == 5:
		switch digits[4] {
		case '0':
			enabled = false
		case '1':
			enabled = true
		default:
			return AlarmRecord{}, fmt.Errorf("%w: enable flag %q", ErrMalformed, digits[4])
		}
		digits = digits[:4]
	case len(digits) > 5:
		return AlarmRecord{}, fmt.Errorf("%w: %d digits", ErrMalformed, len(digits))
	}

	// Short legacy text ("730") is zero-padded to HHMM.
	var v uint32
	for _, d := range digits {
		v = v*10 + uint32(d-'0')
	}

	rec, err := alarmFromDecimal(v)
	if err != nil {
		return AlarmRecord{}, err
	}
	rec.Enabled = enabled
	return rec, nil
}

func alarmFromDecimal(v uint32) (AlarmRecord, error) {
	hour := v / 100
	minute := v % 100
	if hour > 23 || minute > 59 {
		return AlarmRecord{}, fmt.Errorf("%w: %04d out of range", ErrMalformed, v)
	}
	return AlarmRecord{Hour: uint8(hour), Minute: uint8(minute), Enabled: true}, nil
}

func alarmFromBCD(hh, mm, ee byte) (AlarmRecord, bool) {
	hour, okH := bcd(hh)
	minute, okM := bcd(mm)
	if !okH || !okM || hour > 23 || minute > 59 || ee > 1 {
		return AlarmRecord{}, false
	}
	return AlarmRecord{Hour: hour, Minute: minute, Enabled: ee == 1}, true
}

func bcd(b byte) (uint8, bool) {
	hi, lo := b>>4, b&0xF
	if hi > 9 || lo > 9 {
		return 0, false
	}
	return hi*10 + lo, true
}

// ParseTimeSync decodes the write-only time-sync characteristic: exactly 6
// ASCII digits HHMMSS.
func ParseTimeSync(data []byte) (hour, minute, second int, err error) {
	if len(data) != 6 {
		return 0, 0, 0, fmt.Errorf("%w: want 6 digits, got %d bytes", ErrMalformed, len(data))
	}
	for _, b := range data {
		if b < '0' || b > '9' {
			return 0, 0, 0, fmt.Errorf("%w: non-digit %q", ErrMalformed, b)
		}
	}
	hour = int(data[0]-'0')*10 + int(data[1]-'0')
	minute = int(data[2]-'0')*10 + int(data[3]-'0')
	second = int(data[4]-'0')*10 + int(data[5]-'0')
	if hour > 23 || minute > 59 || second > 59 {
		return 0, 0, 0, fmt.Errorf("%w: %02d:%02d:%02d out of range", ErrMalformed, hour, minute, second)
	}
	return hour, minute, second, nil
}

// ParsePercentByte decodes a single-byte 0-100 write (colortemp, wakebright).
func ParsePercentByte(data []byte) (uint8, error) {
	if len(data) != 1 {
		return 0, fmt.Errorf("%w: want 1 byte, got %d", ErrMalformed, len(data))
	}
	if data[0] > 100 {
		return 0, fmt.Errorf("%w: %d > 100", ErrMalformed, data[0])
	}
	return data[0], nil
}

// ParseDurationByte decodes the single-byte sunrise duration write, bounded
// to the canonical minute range.
func ParseDurationByte(data []byte) (uint8, error) {
	if len(data) != 1 {
		return 0, fmt.Errorf("%w: want 1 byte, got %d", ErrMalformed, len(data))
	}
	v := data[0]
	if v < device.MinSunriseDurationMin || v > device.MaxSunriseDurationMin {
		return 0, fmt.Errorf("%w: duration %d outside [%d,%d]", ErrMalformed,
			v, device.MinSunriseDurationMin, device.MaxSunriseDurationMin)
	}
	return v, nil
}
