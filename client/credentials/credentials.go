// Package credentials holds the bearer token the client proxy attaches to
// authenticated requests.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Holder is read by the client proxy before every request and written after
// login, registration and logout.
type Holder interface {
	Token() string
	Set(token string) error
	Clear() error
}

// Memory keeps the token for the lifetime of the process only.
type Memory struct {
	mu    sync.RWMutex
	token string
}

func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Memory) Set(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error {
	return m.Set("")
}

type fileContents struct {
	Token string `json:"token"`
}

// FileStore persists the token in a JSON file readable only by the owner so a
// session survives restarts.
type FileStore struct {
	path  string
	mu    sync.RWMutex
	token string
}

// OpenFileStore loads the token saved at path, if any.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var contents fileContents
	if err := json.Unmarshal(raw, &contents); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}
	s.token = contents.Token
	return s, nil
}

func (s *FileStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *FileStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(fileContents{Token: token})
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create credentials dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	s.token = token
	return nil
}

// Clear forgets the token and removes the file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	s.token = ""
	return nil
}
