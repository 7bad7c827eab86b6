package storage

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	t.Parallel()

	dsn := sqliteDSN("/tmp/prism.db")
	assert.Equal(t,
		"/tmp/prism.db?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		dsn)
}

func TestOpenSQLite_PragmasApplyToPooledConnections(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "prism.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var journalMode string

	require.NoError(t, store.conn.QueryRow(`PRAGMA journal_mode`).Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int64

	require.NoError(t, store.conn.QueryRow(`PRAGMA busy_timeout`).Scan(&busyTimeout))
	assert.Equal(t, int64(5000), busyTimeout)
}
