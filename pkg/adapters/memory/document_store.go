package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/aretw0/concierge/pkg/domain"
)

// DocumentStore implements ports.DocumentStore in memory.
type DocumentStore struct {
	mu        sync.RWMutex
	docs      []domain.Document
	bySession map[string]int
}

// NewDocumentStore creates an empty document library.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{bySession: make(map[string]int)}
}

// Append adds doc unless a document for the same session exists.
func (s *DocumentStore) Append(ctx context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bySession[doc.SessionID]; ok {
		return domain.ErrDocumentExists
	}
	doc.Data = maps.Clone(doc.Data)
	s.bySession[doc.SessionID] = len(s.docs)
	s.docs = append(s.docs, doc)
	return nil
}

// List returns copies of all documents in append order.
func (s *DocumentStore) List(ctx context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Document, len(s.docs))
	for i, d := range s.docs {
		d.Data = maps.Clone(d.Data)
		out[i] = d
	}
	return out, nil
}
