package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesPragmas(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "documents.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	// Pin one connection so every query sees the same session state.
	conn, err := store.sqlDB.Conn(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	pragma := func(name string) string {
		var v string
		require.NoError(t, conn.QueryRowContext(context.Background(), "PRAGMA "+name).Scan(&v))
		return v
	}
	assert.Equal(t, "wal", pragma("journal_mode"))
	assert.Equal(t, "5000", pragma("busy_timeout"))
	assert.Equal(t, "1", pragma("foreign_keys"))
	assert.Equal(t, "1", pragma("synchronous"), "NORMAL")
}
