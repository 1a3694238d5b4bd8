package license

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/keygate/keygate-core/internal/atomicfile"
)

// CacheStore is the interface for the persisted verification cache. The
// store holds at most one record: the result of the most recent successful
// remote verification.
type CacheStore interface {
	// Load returns the current record, or nil if none exists.
	Load() (*CacheRecord, error)

	// Store persists the record, replacing any previous one.
	Store(record *CacheRecord) error
}

// DefaultCachePath returns the default license cache file path.
func DefaultCachePath() string {
	if envPath := os.Getenv("KEYGATE_LICENSE_CACHE_PATH"); envPath != "" {
		return envPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".keygate", "license.cache.json")
	}
	return filepath.Join(home, ".keygate", "license.cache.json")
}

// FileStore implements CacheStore using a JSON file. Reads are served from
// an in-memory copy; writes go to disk via atomic replace so a reader never
// observes a truncated record.
type FileStore struct {
	path string
	mu   sync.RWMutex

	record *CacheRecord
	loaded bool
}

// NewFileStore creates a file-backed cache store. If path is empty, the
// default location is used.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = DefaultCachePath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileStore{path: path}, nil
}

// Load returns the current record, or nil if none exists. A corrupt or
// missing cache file reads as "no record": the verifier then re-verifies
// remotely rather than trusting damaged state.
func (s *FileStore) Load() (*CacheRecord, error) {
	s.mu.RLock()
	if s.loaded {
		record := s.record
		s.mu.RUnlock()
		return record, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.record, nil
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.loaded = true
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read license cache: %w", err)
	}

	var record CacheRecord
	if err := json.Unmarshal(data, &record); err != nil {
		// Corrupt cache is treated as absent, not trusted.
		s.loaded = true
		return nil, nil
	}

	s.record = &record
	s.loaded = true
	return s.record, nil
}

// Store persists the record, replacing any previous one.
func (s *FileStore) Store(record *CacheRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal license cache: %w", err)
	}

	if err := atomicfile.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write license cache: %w", err)
	}

	s.record = record
	s.loaded = true
	return nil
}

// MemoryStore is an in-memory CacheStore for tests.
type MemoryStore struct {
	mu     sync.RWMutex
	record *CacheRecord
}

// NewMemoryStore creates an empty in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the current record, or nil if none exists.
func (s *MemoryStore) Load() (*CacheRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record, nil
}

// Store replaces the current record.
func (s *MemoryStore) Store(record *CacheRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = record
	return nil
}
