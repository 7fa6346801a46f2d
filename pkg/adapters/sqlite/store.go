// Package sqlite provides a SQLite-backed document library.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/concierge/pkg/adapters/sqlite/migrations"
	"github.com/aretw0/concierge/pkg/domain"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// connPragmas run on every new connection, in the driver's _pragma form.
const connPragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"

// Store implements ports.DocumentStore on SQLite.
// The UNIQUE constraint on session_id enforces one document per session.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?" + connPragmas
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append inserts doc, mapping a session_id conflict to domain.ErrDocumentExists.
func (s *Store) Append(ctx context.Context, doc domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(doc.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("marshal document data: %w", err)
	}
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO documents (
		   id, session_id, conversation_id, form_ref, name, category, status, data_json, content, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID,
		doc.SessionID,
		doc.ConversationID,
		doc.FormRef,
		doc.Name,
		doc.Category,
		string(doc.Status),
		string(data),
		doc.Content,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDocumentExists
		}
		return fmt.Errorf("append document: %w", err)
	}
	return nil
}

// List returns every document in insertion order.
func (s *Store) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, session_id, conversation_id, form_ref, name, category, status, data_json, content, created_at
		 FROM documents ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		var (
			doc       domain.Document
			status    string
			dataJSON  string
			createdAt int64
		)
		if err := rows.Scan(&doc.ID, &doc.SessionID, &doc.ConversationID, &doc.FormRef,
			&doc.Name, &doc.Category, &status, &dataJSON, &doc.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal([]byte(dataJSON), &doc.Data); err != nil {
			return nil, fmt.Errorf("decode document %s data: %w", doc.ID, err)
		}
		doc.Status = domain.DocumentStatus(status)
		doc.CreatedAt = fromMillis(createdAt)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
