package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps sent items in a JSON file. Expired entries are dropped on
// load and on save.
type FileStore struct {
	path  string
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]SentItem
}

// OpenFileStore loads path if it exists. A missing or empty file starts an
// empty store.
func OpenFileStore(path string, ttl time.Duration) (*FileStore, error) {
	fs := &FileStore{path: path, ttl: ttl, now: time.Now, items: make(map[string]SentItem)}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read sent store: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []SentItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal sent store: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, it := range items {
		if fs.live(it) {
			fs.items[it.Hash] = it
		}
	}
	return nil
}

func (fs *FileStore) live(it SentItem) bool {
	return fs.ttl <= 0 || it.SentAt.After(fs.now().Add(-fs.ttl))
}

func (fs *FileStore) Has(_ context.Context, hash string) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	it, ok := fs.items[hash]
	return ok && fs.live(it), nil
}

// Put records items and rewrites the file.
func (fs *FileStore) Put(_ context.Context, items []SentItem) error {
	fs.mu.Lock()
	for _, it := range items {
		fs.items[it.Hash] = it
	}
	for hash, it := range fs.items {
		if !fs.live(it) {
			delete(fs.items, hash)
		}
	}
	snapshot := make([]SentItem, 0, len(fs.items))
	for _, it := range fs.items {
		snapshot = append(snapshot, it)
	}
	fs.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sent store: %w", err)
	}
	if dir := filepath.Dir(fs.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create sent store dir: %w", err)
		}
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write sent store: %w", err)
	}
	return os.Rename(tmp, fs.path)
}

func (fs *FileStore) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.items)
}

func (fs *FileStore) Close() error { return nil }
