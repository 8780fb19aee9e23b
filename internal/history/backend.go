package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Backend is the pluggable persistence target for the snapshot window. Load
// may return (nil, nil) for "nothing stored yet".
type Backend interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// FileBackend persists the window as one JSON file, written atomically via a
// temp file and rename.
type FileBackend struct {
	Path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

func (b *FileBackend) Load() ([]byte, error) {
	data, err := os.ReadFile(b.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return data, nil
}

func (b *FileBackend) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(b.Path), 0o755); err != nil {
		return fmt.Errorf("ensure data directory: %w", err)
	}
	tmp := fmt.Sprintf("%s.%d.tmp", b.Path, time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp history: %w", err)
	}
	if err := os.Rename(tmp, b.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}

// MemoryBackend keeps the serialized window in memory. Used in tests and as
// a null persistence target.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte

	LoadErr error
	SaveErr error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Load() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.LoadErr != nil {
		return nil, b.LoadErr
	}
	return b.data, nil
}

func (b *MemoryBackend) Save(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SaveErr != nil {
		return b.SaveErr
	}
	b.data = append([]byte(nil), data...)
	return nil
}

// Seed preloads raw backend content, bypassing Save.
func (b *MemoryBackend) Seed(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append([]byte(nil), data...)
}
