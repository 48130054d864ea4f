package console

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Saver persists a blob locally under a suggested name and returns where it went.
type Saver interface {
	Save(name string, blob []byte) (string, error)
}

// DirSaver writes blobs into a directory.
type DirSaver struct {
	Dir string
}

func (d DirSaver) Save(name string, blob []byte) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// MemorySaver keeps blobs in memory.
type MemorySaver struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *MemorySaver) Save(name string, blob []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[name] = blob
	return name, nil
}

// Get returns a saved blob.
func (m *MemorySaver) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[name]
	return b, ok
}
