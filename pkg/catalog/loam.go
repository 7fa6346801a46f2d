package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
)

// LoadDir opens a Loam repository at path in read-only strict mode and loads
// every document in it as a form.
func LoadDir(ctx context.Context, path string) (*Catalog, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return LoadRepository(ctx, repo)
}

// LoadRepository loads forms from an initialized Loam repository. Forms are
// ordered by their "order" key, then by id. A document without an "id" key
// takes its file name.
func LoadRepository(ctx context.Context, repo core.Repository) (*Catalog, error) {
	typed := loam.NewTypedRepository[FormMetadata](repo)
	docs, err := typed.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	metas := make([]FormMetadata, 0, len(docs))
	for _, doc := range docs {
		meta := doc.Data
		if meta.ID == "" {
			meta.ID = strings.TrimSuffix(doc.ID, filepath.Ext(doc.ID))
		}
		metas = append(metas, meta)
	}
	sort.SliceStable(metas, func(i, j int) bool {
		if metas[i].Order != metas[j].Order {
			return metas[i].Order < metas[j].Order
		}
		return metas[i].ID < metas[j].ID
	})

	forms := make([]domain.FormDefinition, len(metas))
	for i, m := range metas {
		forms[i] = m.ToDomain()
	}
	return New(forms...)
}
