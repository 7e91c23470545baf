package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Memory is an in-process Store. It backs tests and the "memory" backend.
type Memory struct {
	mu   sync.RWMutex
	cols map[string]map[string]map[string]any
	hub  *hub
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		cols: make(map[string]map[string]map[string]any),
		hub:  newHub(),
	}
}

// Get returns the document at path/id.
func (m *Memory) Get(ctx context.Context, path, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.cols[path][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Path: path, Data: copyData(data)}, nil
}

// Query returns the documents of q.Path matching q.
func (m *Memory) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	docs := make([]Document, 0, len(m.cols[q.Path]))
	for id, data := range m.cols[q.Path] {
		docs = append(docs, Document{ID: id, Path: q.Path, Data: copyData(data)})
	}
	m.mu.RUnlock()
	return Apply(docs, q), nil
}

// Subscribe starts a live query.
func (m *Memory) Subscribe(ctx context.Context, q Query) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.hub.watch(ctx, q, m.Query), nil
}

// Subscribers reports how many live subscriptions watch path.
func (m *Memory) Subscribers(path string) int {
	return m.hub.count(path)
}

// Add stores data under a new id.
func (m *Memory) Add(ctx context.Context, path string, data map[string]any) (string, error) {
	id := ulid.Make().String()
	if err := m.Set(ctx, path, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Set creates or replaces path/id.
func (m *Memory) Set(ctx context.Context, path, id string, data map[string]any) error {
	return m.Batch(ctx, []Write{{Kind: WriteSet, Path: path, ID: id, Data: data}})
}

// Update merges patch into an existing document.
func (m *Memory) Update(ctx context.Context, path, id string, patch map[string]any) error {
	return m.Batch(ctx, []Write{{Kind: WriteUpdate, Path: path, ID: id, Data: patch}})
}

// Delete removes path/id. Deleting a missing document is not an error.
func (m *Memory) Delete(ctx context.Context, path, id string) error {
	return m.Batch(ctx, []Write{{Kind: WriteDelete, Path: path, ID: id}})
}

// Batch applies writes atomically: either all succeed or none is visible.
func (m *Memory) Batch(ctx context.Context, writes []Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	staged := make(map[string]map[string]map[string]any)
	lookup := func(path, id string) (map[string]any, bool) {
		if col, ok := staged[path]; ok {
			if d, ok := col[id]; ok {
				return d, d != nil
			}
		}
		d, ok := m.cols[path][id]
		return d, ok
	}
	stage := func(path, id string, data map[string]any) {
		if staged[path] == nil {
			staged[path] = make(map[string]map[string]any)
		}
		staged[path][id] = data
	}

	for i, w := range writes {
		switch w.Kind {
		case WriteSet:
			id := w.ID
			if id == "" {
				id = ulid.Make().String()
			}
			data, err := normalize(w.Data)
			if err != nil {
				m.mu.Unlock()
				return fmt.Errorf("write %d: %w", i, err)
			}
			stage(w.Path, id, data)
		case WriteUpdate:
			cur, ok := lookup(w.Path, w.ID)
			if !ok {
				m.mu.Unlock()
				return fmt.Errorf("write %d %s/%s: %w", i, w.Path, w.ID, ErrNotFound)
			}
			next := copyData(cur)
			merge(next, w.Data)
			data, err := normalize(next)
			if err != nil {
				m.mu.Unlock()
				return fmt.Errorf("write %d: %w", i, err)
			}
			stage(w.Path, w.ID, data)
		case WriteDelete:
			stage(w.Path, w.ID, nil)
		}
	}

	paths := make([]string, 0, len(staged))
	for path, col := range staged {
		paths = append(paths, path)
		for id, data := range col {
			if data == nil {
				delete(m.cols[path], id)
				continue
			}
			if m.cols[path] == nil {
				m.cols[path] = make(map[string]map[string]any)
			}
			m.cols[path][id] = data
		}
	}
	m.mu.Unlock()

	m.hub.notify(paths...)
	return nil
}

// copyData deep-copies normalized document data.
func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyData(t)
	case []any:
		cp := make([]any, len(t))
		for i := range t {
			cp[i] = copyValue(t[i])
		}
		return cp
	}
	return v
}
