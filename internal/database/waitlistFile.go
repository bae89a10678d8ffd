package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ds124wfegd/eventwaitlist/internal/entity"
)

// FileStore keeps the table as one JSON document on local disk.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the document. A missing or empty file is an empty table.
func (s *FileStore) Load(_ context.Context) (entity.WaitlistTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entity.WaitlistTable{}, nil
		}
		return nil, fmt.Errorf("failed to read waitlist file: %w", err)
	}

	table, err := decodeTable(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode waitlist file %s: %w", s.path, err)
	}
	return table, nil
}

// Save writes to a temporary file next to the target and renames it into place,
// so readers see either the old document or the new one.
func (s *FileStore) Save(_ context.Context, table entity.WaitlistTable) error {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode waitlist: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	// Создаем директорию если нужно
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create waitlist directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write waitlist file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync waitlist file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close waitlist file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace waitlist file: %w", err)
	}
	return nil
}
