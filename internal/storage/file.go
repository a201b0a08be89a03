package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every key in a single JSON object on disk.
// The whole file is rewritten on each Set.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	// Touch file if not exists
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileStore{path: path}, nil
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.loadUnlocked()
	if err != nil {
		return nil, err
	}
	v, ok := docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.loadUnlocked()
	if err != nil {
		return err
	}
	docs[key] = string(value)
	return s.saveUnlocked(docs)
}

func (s *FileStore) loadUnlocked() (map[string]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	docs := make(map[string]string)
	if err := json.NewDecoder(f).Decode(&docs); err != nil {
		// empty or malformed -> start fresh
		return make(map[string]string), nil
	}
	return docs, nil
}

func (s *FileStore) saveUnlocked(docs map[string]string) error {
	f, err := os.OpenFile(s.path, os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open write: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
