package wireless

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlarmRecord(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want AlarmRecord
	}{
		{"canonical_enabled", []byte("07301"), AlarmRecord{7, 30, true}},
		{"canonical_disabled", []byte("07300"), AlarmRecord{7, 30, false}},
		{"bare_hhmm", []byte("0700"), AlarmRecord{7, 0, true}},
		{"short_text", []byte("730"), AlarmRecord{7, 30, true}},
		{"single_digit_text", []byte("5"), AlarmRecord{0, 5, true}},
		{"nul_padded", []byte("0730\x00"), AlarmRecord{7, 30, true}},
		{"whitespace_padded", []byte(" 0645 "), AlarmRecord{6, 45, true}},
		{"bcd_two_bytes", []byte{0x07, 0x30}, AlarmRecord{7, 30, true}},
		{"bcd_three_bytes_disabled", []byte{0x23, 0x59, 0x00}, AlarmRecord{23, 59, false}},
		{"bcd_three_bytes_enabled", []byte{0x06, 0x15, 0x01}, AlarmRecord{6, 15, true}},
		{"le_uint16", []byte{0xDA, 0x02}, AlarmRecord{7, 30, true}}, // 730
		{"le_uint32", []byte{0xDA, 0x02, 0x00, 0x00}, AlarmRecord{7, 30, true}},
		{"midnight", []byte("00001"), AlarmRecord{0, 0, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAlarmRecord(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAlarmRecordRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"hour_out_of_range", []byte("2500")},
		{"minute_out_of_range", []byte("0760")},
		{"bad_enable_flag", []byte("07302")},
		{"too_many_digits", []byte("073015")},
		{"only_padding", []byte("  \x00")},
		{"bcd_hour_out_of_range", []byte{0x24, 0x00, 0x01}},
		{"bcd_bad_nibble_three_bytes", []byte{0x0A, 0x30, 0x01}},
		{"le_uint16_out_of_range", []byte{0x6C, 0x09}}, // 2412
		{"le_uint32_out_of_range", []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{"odd_binary_length", []byte{0x07, 0x30, 0x01, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAlarmRecord(tt.data)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestFormatAlarmRecordRoundTrip(t *testing.T) {
	rec := AlarmRecord{Hour: 6, Minute: 5, Enabled: false}
	wire := FormatAlarmRecord(rec)
	assert.Equal(t, []byte("06050"), wire)

	got, err := ParseAlarmRecord(wire)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestParseTimeSync(t *testing.T) {
	h, m, s, err := ParseTimeSync([]byte("134502"))
	require.NoError(t, err)
	assert.Equal(t, 13, h)
	assert.Equal(t, 45, m)
	assert.Equal(t, 2, s)

	for _, bad := range [][]byte{
		[]byte("245959"),
		[]byte("126000"),
		[]byte("120060"),
		[]byte("1345"),
		[]byte("12a000"),
	} {
		_, _, _, err := ParseTimeSync(bad)
		assert.ErrorIs(t, err, ErrMalformed, "payload %q", bad)
	}
}

func TestParsePercentByte(t *testing.T) {
	v, err := ParsePercentByte([]byte{70})
	require.NoError(t, err)
	assert.Equal(t, uint8(70), v)

	_, err = ParsePercentByte([]byte{101})
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = ParsePercentByte([]byte{50, 50})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseDurationByte(t *testing.T) {
	v, err := ParseDurationByte([]byte{45})
	require.NoError(t, err)
	assert.Equal(t, uint8(45), v)

	_, err = ParseDurationByte([]byte{0})
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = ParseDurationByte([]byte{61})
	assert.ErrorIs(t, err, ErrMalformed)
}
