package device_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawnlamp/dawnlamp/internal/db"
	"github.com/dawnlamp/dawnlamp/internal/device"
)

func openStore(t *testing.T) (*device.SQLiteStore, *db.DB) {
	t.Helper()
	database, err := db.Open("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return device.NewSQLiteStore(database.DB), database
}

func TestLoadEmptyPersistsDefaults(t *testing.T) {
	store, database := openStore(t)

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, device.Default(), cfg)

	// The repair actually wrote a row.
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM device_config`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _ := openStore(t)

	want := device.Config{
		AlarmHour:          6,
		AlarmMinute:        45,
		AlarmEnabled:       false,
		ColorTemp:          30,
		WakeBright:         100,
		SunriseDurationMin: 10,
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveRejectsOutOfRange(t *testing.T) {
	store, _ := openStore(t)

	bad := device.Default()
	bad.AlarmHour = 24
	assert.ErrorIs(t, store.Save(bad), device.ErrInvalidValue)

	bad = device.Default()
	bad.SunriseDurationMin = 0
	assert.ErrorIs(t, store.Save(bad), device.ErrInvalidValue)
}

func TestLoadRepairsCorruptRow(t *testing.T) {
	store, database := openStore(t)
	require.NoError(t, store.Save(device.Default()))

	// Corrupt the row behind the store's back.
	_, err := database.Exec(`UPDATE device_config SET wake_bright = 250 WHERE id = 1`)
	require.NoError(t, err)

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, device.Default(), cfg)

	// The repair was persisted, not just returned.
	var wb int
	require.NoError(t, database.QueryRow(`SELECT wake_bright FROM device_config WHERE id = 1`).Scan(&wb))
	assert.Equal(t, int(device.Default().WakeBright), wb)
}
