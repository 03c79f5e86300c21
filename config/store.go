package config

import (
	"sync"

	"tabformat/logger"
)

// Store persists the separator preference in the config file, leaving the
// other keys as they are
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store backed by the config file at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Separator returns the stored separator. A file that cannot be read is
// logged and treated as having no preference.
func (s *Store) Separator() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := Load(s.path)
	if err != nil {
		logger.Warn("separator preference unavailable: %v", err)
		return "", false
	}
	return cfg.Separator, cfg.Separator != ""
}

// SetSeparator stores sep; an empty value clears the preference
func (s *Store) SetSeparator(sep string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := Load(s.path)
	if err != nil {
		return err
	}
	cfg.Separator = sep
	return Save(s.path, cfg)
}

// MemoryStore keeps the preference in memory
type MemoryStore struct {
	mu  sync.Mutex
	sep string
}

// NewMemoryStore creates a store holding sep
func NewMemoryStore(sep string) *MemoryStore {
	return &MemoryStore{sep: sep}
}

func (s *MemoryStore) Separator() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sep, s.sep != ""
}

func (s *MemoryStore) SetSeparator(sep string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sep = sep
	return nil
}
