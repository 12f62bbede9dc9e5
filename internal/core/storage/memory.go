package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

var _ Storage = (*Memory)(nil)

type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Create(_ context.Context, key string, value []byte) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; ok {
		return fmt.Errorf("%w: %s", ErrExists, key)
	}
	m.blobs[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(m.blobs, key)
	return nil
}

func (m *Memory) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[key]
	return ok
}

func (m *Memory) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

func (m *Memory) Statistics() Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Statistics{Entries: len(m.blobs)}
	for _, v := range m.blobs {
		st.Bytes += int64(len(v))
	}
	return st
}
