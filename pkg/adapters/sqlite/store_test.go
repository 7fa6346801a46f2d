package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/concierge/pkg/adapters/sqlite"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "docs.db"))
	ports.RunDocumentStoreContract(t, store)
}

func TestSQLiteStore_ReopenKeepsDocumentsAndMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.db")
	ctx := context.Background()

	first, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Append(ctx, domain.Document{
		ID: domain.DocumentID("s1"), SessionID: "s1", FormRef: "f", Name: "F - Preenchido",
		Status: domain.StatusValid, Data: map[string]string{"nif": "123456789"},
	}))
	require.NoError(t, first.Close())

	second := openStore(t, path)
	docs, err := second.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "123456789", docs[0].Data["nif"])
	assert.False(t, docs[0].CreatedAt.IsZero(), "missing timestamps are filled on append")

	err = second.Append(ctx, domain.Document{ID: "other", SessionID: "s1", Data: map[string]string{}})
	assert.ErrorIs(t, err, domain.ErrDocumentExists)
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}
