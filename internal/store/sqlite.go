package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/mixtape/internal/shared"
)

// SQLite implements [Store] over a single documents table.
//
// Bodies are stored as JSON text; equality queries use json_extract so no
// per-collection schema exists. One row, one document.
type SQLite struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-backed store over an open database connection.
// The documents table must already exist (see [RunMigrations]).
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// Get retrieves a document by collection and id.
func (s *SQLite) Get(ctx context.Context, collection, id string, out any) error {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s/%s", shared.ErrNotFound, collection, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read document %s/%s: %w", collection, id, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Put upserts a document keyed by collection and id.
func (s *SQLite) Put(ctx context.Context, collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s/%s: %v", shared.ErrStoreWrite, collection, id, err)
	}

	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, collection, id, body, now, now)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert %s/%s: %v", shared.ErrStoreWrite, collection, id, err)
	}
	return nil
}

// Update merges fields into an existing document via read-modify-write.
func (s *SQLite) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var body []byte
	err = tx.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s/%s", shared.ErrNotFound, collection, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read document %s/%s: %w", collection, id, err)
	}

	merged, err := mergeFields(body, fields)
	if err != nil {
		return fmt.Errorf("%w: failed to merge %s/%s: %v", shared.ErrStoreWrite, collection, id, err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE documents SET body = ?, updated_at = ? WHERE collection = ? AND id = ?",
		merged, time.Now(), collection, id,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update %s/%s: %v", shared.ErrStoreWrite, collection, id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit update of %s/%s: %v", shared.ErrStoreWrite, collection, id, err)
	}
	return nil
}

// Delete removes a document by collection and id.
func (s *SQLite) Delete(ctx context.Context, collection, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to delete %s/%s: %v", shared.ErrStoreWrite, collection, id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s/%s", shared.ErrNotFound, collection, id)
	}
	return nil
}

// Query returns all documents in a collection whose field equals value.
func (s *SQLite) Query(ctx context.Context, collection, field string, value any) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, body FROM documents WHERE collection = ? AND json_extract(body, ?) = ?",
		collection, "$."+field, value,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s by %s: %w", collection, field, err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ScanAll returns every document in a collection.
func (s *SQLite) ScanAll(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, body FROM documents WHERE collection = ?",
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

func collectDocuments(rows *sql.Rows) ([]Document, error) {
	var docs []Document
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, Document{ID: id, Data: json.RawMessage(body)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

// mergeFields applies partial-record merge semantics: top-level fields in
// the patch replace the corresponding fields of the stored body.
func mergeFields(body []byte, fields map[string]any) ([]byte, error) {
	var record map[string]any
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, err
	}

	for k, v := range fields {
		record[k] = v
	}

	return json.Marshal(record)
}
