package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serebryakov7/obd-logger/common"
)

func TestJournalLifecycle(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer db.Close()

	started := time.Date(2024, time.March, 7, 9, 5, 3, 0, time.UTC)
	require.NoError(t, BeginSession(db, common.SessionEntry{
		ID:        "a",
		File:      "recording_24_03_07__09_05_03_BEN.csv",
		Tag:       "BEN",
		Profile:   "fuelpw",
		StartedAt: started,
	}))
	assert.Error(t, BeginSession(db, common.SessionEntry{ID: "a"}))

	require.NoError(t, RecordRow(db, "a", 1000))
	require.NoError(t, RecordRow(db, "a", 1250))
	require.NoError(t, FinishSession(db, "a", started.Add(time.Minute), "interrupted"))

	e, err := GetSession(db, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, e.Rows)
	assert.EqualValues(t, 1250, e.LastRowMS)
	assert.True(t, e.Finished())
	assert.Equal(t, "interrupted", e.ExitReason)
	assert.Equal(t, "BEN", e.Tag)
}

func TestJournalUnknownSession(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer db.Close()

	assert.ErrorIs(t, RecordRow(db, "missing", 1), ErrUnknownSession)
	_, err = GetSession(db, "missing")
	assert.ErrorIs(t, err, ErrUnknownSession)
	assert.Error(t, BeginSession(db, common.SessionEntry{}))
}

func TestListSessionsSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	db, err := OpenDB(path)
	require.NoError(t, err)

	base := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)
	require.NoError(t, BeginSession(db, common.SessionEntry{ID: "z", StartedAt: base.Add(2 * time.Hour)}))
	require.NoError(t, BeginSession(db, common.SessionEntry{ID: "y", StartedAt: base}))
	require.NoError(t, BeginSession(db, common.SessionEntry{ID: "x", StartedAt: base.Add(time.Hour)}))
	require.NoError(t, db.Close())

	// журнал переживает перезапуск
	db, err = OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	entries, err := ListSessions(db)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "y", entries[0].ID)
	assert.Equal(t, "x", entries[1].ID)
	assert.Equal(t, "z", entries[2].ID)
	assert.False(t, entries[0].Finished())
}
