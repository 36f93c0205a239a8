package series

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"DivPulse/internal/domain/models"
)

// FileStore persists datasets as one JSON document per dataset under a
// directory. Writes go through a temp file and rename so a crash mid-write
// never corrupts the stored copy. Per-name locks serialize writers without
// blocking unrelated datasets.
type FileStore struct {
	dir   string
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates the directory if needed and returns the store.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *FileStore) lock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

func (s *FileStore) path(name string) string {
	// Dataset names come from config validation, but keep path traversal out
	// of reach regardless.
	safe := strings.ReplaceAll(name, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, safe+".json")
}

// Load reads a stored dataset. A missing file returns (nil, nil).
func (s *FileStore) Load(_ context.Context, name string) (*models.Dataset, error) {
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()

	b, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dataset %q: %w", name, err)
	}
	var ds models.Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset %q: %w", name, err)
	}
	return &ds, nil
}

// Save writes the dataset atomically.
func (s *FileStore) Save(_ context.Context, ds *models.Dataset) error {
	if ds == nil || ds.Name == "" {
		return fmt.Errorf("save dataset: missing name")
	}
	l := s.lock(ds.Name)
	l.Lock()
	defer l.Unlock()

	b, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode dataset %q: %w", ds.Name, err)
	}

	target := s.path(ds.Name)
	tmp, err := os.CreateTemp(s.dir, ds.Name+".*.tmp")
	if err != nil {
		return fmt.Errorf("temp file for %q: %w", ds.Name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write dataset %q: %w", ds.Name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close dataset %q: %w", ds.Name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit dataset %q: %w", ds.Name, err)
	}
	return nil
}

// List returns the names of all stored datasets, sorted.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a stored dataset. Deleting a missing dataset is not an error.
func (s *FileStore) Delete(_ context.Context, name string) error {
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()

	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete dataset %q: %w", name, err)
	}
	return nil
}

// Health verifies the directory is still writable.
func (s *FileStore) Health(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("store dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store dir %q is not a directory", s.dir)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
