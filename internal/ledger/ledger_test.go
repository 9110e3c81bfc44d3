package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawnlamp/dawnlamp/internal/db"
	"github.com/dawnlamp/dawnlamp/internal/ledger"
)

func openLedger(t *testing.T) (*ledger.Ledger, *db.DB) {
	t.Helper()
	database, err := db.Open("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return ledger.New(database.DB), database
}

func TestAppendAndGetByType(t *testing.T) {
	lg, _ := openLedger(t)

	require.NoError(t, lg.Append(ledger.EventAlarmFired, "controller", map[string]any{"duration_min": 30}))
	require.NoError(t, lg.Append(ledger.EventAlarmCancelled, "controller", map[string]any{"elapsed_sec": 12}))
	require.NoError(t, lg.Append(ledger.EventHibernateEntered, "controller", nil))

	fired, err := lg.GetByType(ledger.EventAlarmFired, 10)
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, "controller", fired[0].Source)
	assert.EqualValues(t, 30, fired[0].Payload["duration_min"])

	// Nil payload survives the round trip as nil.
	hib, err := lg.GetByType(ledger.EventHibernateEntered, 10)
	require.NoError(t, err)
	require.Len(t, hib, 1)
	assert.Nil(t, hib[0].Payload)
}

func TestCleanupDropsOnlyExpired(t *testing.T) {
	lg, database := openLedger(t)

	require.NoError(t, lg.Append(ledger.EventConfigWritten, "wireless", nil))
	// Backdate one entry past the retention window.
	old := time.Now().UTC().AddDate(0, 0, -40).Unix()
	_, err := database.Exec(
		`INSERT INTO event_ledger (event_type, timestamp, payload, source) VALUES (?, ?, '', 'wireless')`,
		string(ledger.EventConfigWritten), old)
	require.NoError(t, err)

	removed, err := lg.Cleanup(30)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	left, err := lg.GetByType(ledger.EventConfigWritten, 10)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}
