package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const blobExt = ".blob"

var _ Storage = (*Dir)(nil)

// Dir stores one file per key under a root directory. Writes go through a
// temporary file so a crashed write never leaves a partial blob behind.
type Dir struct {
	root string
	mu   sync.RWMutex
}

// NewDir creates root if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) path(key string) string {
	return filepath.Join(d.root, key+blobExt)
}

func (d *Dir) Create(ctx context.Context, key string, value []byte) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.path(key)
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, key)
	}
	tmp, err := os.CreateTemp(d.root, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	if _, err = tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write blob: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close blob: %w", err)
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit blob: %w", err)
	}
	return nil
}

func (d *Dir) Read(ctx context.Context, key string) ([]byte, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, err := os.ReadFile(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return b, err
}

func (d *Dir) Delete(_ context.Context, key string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	err := os.Remove(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return err
}

func (d *Dir) Has(key string) bool {
	if !validKey(key) {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, err := os.Stat(d.path(key))
	return err == nil
}

func (d *Dir) Keys() []string {
	d.mu.RLock()
	entries, err := os.ReadDir(d.root)
	d.mu.RUnlock()
	if err != nil {
		return nil
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), blobExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), blobExt))
	}
	sort.Strings(keys)
	return keys
}

func (d *Dir) Statistics() Statistics {
	var st Statistics
	for _, k := range d.Keys() {
		info, err := os.Stat(d.path(k))
		if err != nil {
			continue
		}
		st.Entries++
		st.Bytes += info.Size()
	}
	return st
}
