package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/desertthunder/mixtape/internal/shared"
)

// Compile-time contract assertions.
var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
)

// Memory implements [Store] with mutex-guarded in-memory maps.
//
// Used by tests and ephemeral runs. Scans return documents in id order so
// output is deterministic.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]json.RawMessage // collection -> id -> body
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]json.RawMessage)}
}

func (m *Memory) Get(ctx context.Context, collection, id string, out any) error {
	m.mu.RLock()
	body, ok := m.data[collection][id]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s/%s", shared.ErrNotFound, collection, id)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *Memory) Put(ctx context.Context, collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s/%s: %v", shared.ErrStoreWrite, collection, id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data[collection] == nil {
		m.data[collection] = make(map[string]json.RawMessage)
	}
	m.data[collection][id] = body
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	body, ok := m.data[collection][id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", shared.ErrNotFound, collection, id)
	}

	merged, err := mergeFields(body, fields)
	if err != nil {
		return fmt.Errorf("%w: failed to merge %s/%s: %v", shared.ErrStoreWrite, collection, id, err)
	}
	m.data[collection][id] = merged
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[collection][id]; !ok {
		return fmt.Errorf("%w: %s/%s", shared.ErrNotFound, collection, id)
	}
	delete(m.data[collection], id)
	return nil
}

func (m *Memory) Query(ctx context.Context, collection, field string, value any) ([]Document, error) {
	want, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query value: %w", err)
	}

	all, err := m.ScanAll(ctx, collection)
	if err != nil {
		return nil, err
	}

	var docs []Document
	for _, doc := range all {
		var record map[string]json.RawMessage
		if err := json.Unmarshal(doc.Data, &record); err != nil {
			return nil, fmt.Errorf("failed to decode document %s/%s: %w", collection, doc.ID, err)
		}
		if got, ok := record[field]; ok && bytes.Equal(got, want) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *Memory) ScanAll(ctx context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.data[collection]))
	for id := range m.data[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, Document{ID: id, Data: m.data[collection][id]})
	}
	return docs, nil
}
