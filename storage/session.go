package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoSession is returned when no credential is stored under a key.
var ErrNoSession = errors.New("no stored session")

// SessionStore persists the team ID credential between runs. Keys are
// scoped by server origin ("<origin> teamID") so sessions against different
// servers never collide.
type SessionStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

type fileSessionStore struct {
	path string
	mu   sync.Mutex
}

// NewFileSessionStore keeps sessions in a single JSON file under dir,
// creating the directory if needed.
func NewFileSessionStore(dir string) (SessionStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory %s: %w", dir, err)
	}
	return &fileSessionStore{path: filepath.Join(dir, "sessions.json")}, nil
}

func (s *fileSessionStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	sessions := make(map[string]string)
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("session file is corrupt: %w", err)
	}
	return sessions, nil
}

// save writes via a temp file and rename, so a crash mid-write cannot lose
// every stored session.
func (s *fileSessionStore) save(sessions map[string]string) error {
	data, err := json.MarshalIndent(sessions, "", "\t")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *fileSessionStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return "", err
	}
	value, ok := sessions[key]
	if !ok {
		return "", ErrNoSession
	}
	return value, nil
}

func (s *fileSessionStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return err
	}
	sessions[key] = value
	return s.save(sessions)
}

func (s *fileSessionStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := sessions[key]; !ok {
		return nil
	}
	delete(sessions, key)
	return s.save(sessions)
}
