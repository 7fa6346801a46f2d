package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractForm() domain.FormDefinition {
	return domain.FormDefinition{
		ID:   "contract-form",
		Name: "Contract Form",
		Fields: []domain.FieldSpec{
			{ID: "name", Label: "Name", Type: domain.FieldText, Required: true},
			{ID: "age", Label: "Age", Type: domain.FieldNumber, Required: true},
		},
	}
}

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	conversationID := "contract-conv-" + time.Now().Format("20060102150405")
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession("session-1", conversationID, contractForm(), now)
		s.Collected["name"] = "Ana Silva"
		s.Attempts["age"] = 1
		s.Advance(contractForm())

		require.NoError(t, store.Save(ctx, conversationID, s), "Save should not return error")

		loaded, err := store.Load(ctx, conversationID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "session-1", loaded.ID)
		assert.Equal(t, "contract-form", loaded.FormID)
		assert.Equal(t, "age", loaded.Cursor)
		assert.Equal(t, "Ana Silva", loaded.Collected["name"])
		assert.Equal(t, 1, loaded.Attempts["age"])
		assert.True(t, loaded.UpdatedAt.Equal(now), "timestamps survive a round trip")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		s := domain.NewSession("session-2", conversationID, contractForm(), now)
		require.NoError(t, store.Save(ctx, conversationID, s))

		loaded, err := store.Load(ctx, conversationID)
		require.NoError(t, err)
		assert.Equal(t, "session-2", loaded.ID)
		assert.Empty(t, loaded.Collected)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, conversationID, domain.NewSession("s", conversationID, contractForm(), now)))

		require.NoError(t, store.Delete(ctx, conversationID), "Delete should not return error")

		_, err := store.Load(ctx, conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, conversationID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := conversationID + "-1"
		id2 := conversationID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewSession("a", id1, contractForm(), now)))
		require.NoError(t, store.Save(ctx, id2, domain.NewSession("b", id2, contractForm(), now)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunDocumentStoreContract verifies that a DocumentStore implementation appends
// documents in order and rejects a second document for the same session.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405")
	now := time.Now().UTC().Truncate(time.Second)

	doc := func(sessionID string) domain.Document {
		return domain.Document{
			ID:             domain.DocumentID(sessionID),
			Name:           "Contract Form - Preenchido",
			Category:       "Tests",
			Status:         domain.StatusValid,
			FormRef:        "contract-form",
			Data:           map[string]string{"name": "Ana Silva", "age": "42"},
			Content:        "Formulário: Contract Form",
			SessionID:      sessionID,
			ConversationID: "conv-" + suffix,
			CreatedAt:      now,
		}
	}

	first := "session-a-" + suffix
	second := "session-b-" + suffix

	t.Run("Append and List", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, doc(first)))
		require.NoError(t, store.Append(ctx, doc(second)))

		docs, err := store.List(ctx)
		require.NoError(t, err)

		var got []domain.Document
		for _, d := range docs {
			if d.SessionID == first || d.SessionID == second {
				got = append(got, d)
			}
		}
		require.Len(t, got, 2)
		assert.Equal(t, first, got[0].SessionID, "documents are listed oldest first")
		assert.Equal(t, domain.DocumentID(first), got[0].ID)
		assert.Equal(t, "42", got[0].Data["age"])
		assert.Equal(t, domain.StatusValid, got[0].Status)
		assert.True(t, got[0].CreatedAt.Equal(now))
	})

	t.Run("Append Duplicate Session", func(t *testing.T) {
		dup := doc(first)
		dup.Name = "should not replace"
		err := store.Append(ctx, dup)
		assert.ErrorIs(t, err, domain.ErrDocumentExists)

		docs, err := store.List(ctx)
		require.NoError(t, err)
		count := 0
		for _, d := range docs {
			if d.SessionID == first {
				count++
				assert.Equal(t, "Contract Form - Preenchido", d.Name)
			}
		}
		assert.Equal(t, 1, count)
	})
}
