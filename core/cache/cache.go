package cache

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/siherrmann/geobench/helper"
)

// Cache is a key-value store for expensive lookups such as geocoding
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Memory is an in-process Cache. It can be persisted as a JSON object.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]json.RawMessage
}

// NewMemory returns an empty memory cache
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]json.RawMessage)}
}

// Get returns the value for key and whether it was present
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Put stores value under key. Values must be valid JSON to be persisted.
func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = append(json.RawMessage(nil), value...)
	return nil
}

// Len returns the number of entries
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// WriteJSON writes all entries as one JSON object
func (m *Memory) WriteJSON(w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m.entries); err != nil {
		return helper.NewError("write cache", err)
	}
	return nil
}

// ReadJSON merges the entries of a JSON object into the cache
func (m *Memory) ReadJSON(r io.Reader) error {
	var entries map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return helper.NewError("read cache", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.entries[k] = v
	}
	return nil
}
