package database

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mmr.db")
	db, err := Open(path, zerolog.New(io.Discard))
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"players", "performance_history", "matches", "events"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpenIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mmr.db")
	first, err := Open(path, zerolog.New(io.Discard))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path, zerolog.New(io.Discard))
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}
