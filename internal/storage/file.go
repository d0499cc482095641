package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
)

// FileStore keeps credentials in a single JSON object keyed by username.
//
// Legacy documents that map usernames to plaintext passwords are accepted;
// those entries are hashed on load and the file is rewritten.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	creds  map[string]domain.Credential
	logger logger.Logger
}

// OpenFileStore loads path, creating parent directories as needed.
// A missing file is an empty store.
func OpenFileStore(path string, l logger.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: file backend requires a path")
	}
	if l == nil {
		l = logger.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, domain.ErrStorageError.WithCause(fmt.Errorf("create dir: %w", err))
	}

	s := &FileStore{
		path:   path,
		creds:  make(map[string]domain.Credential),
		logger: l,
	}
	migrated, err := s.load()
	if err != nil {
		return nil, err
	}
	if migrated > 0 {
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
		l.Info("hashed legacy plaintext credentials", "path", path, "count", migrated)
	}

	l.Info("credential file opened", "path", path, "users", len(s.creds))
	return s, nil
}

// load reads the document and returns how many plaintext entries were hashed.
func (s *FileStore) load() (int, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, domain.ErrStorageError.WithCause(fmt.Errorf("read %s: %w", s.path, err))
	}
	if len(data) == 0 {
		return 0, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, domain.ErrStorageError.WithCause(fmt.Errorf("decode %s: %w", s.path, err))
	}

	migrated := 0
	for username, raw := range doc {
		var plaintext string
		if err := json.Unmarshal(raw, &plaintext); err == nil {
			cred, err := domain.NewCredential(username, plaintext)
			if err != nil {
				s.logger.Warn("skipping invalid legacy credential", "username", username, "error", err)
				continue
			}
			s.creds[username] = *cred
			migrated++
			continue
		}

		var cred domain.Credential
		if err := json.Unmarshal(raw, &cred); err != nil {
			return 0, domain.ErrStorageError.WithCause(fmt.Errorf("decode user %q: %w", username, err))
		}
		cred.Username = username
		s.creds[username] = cred
	}
	return migrated, nil
}

// Get retrieves the credential for username.
func (s *FileStore) Get(_ context.Context, username string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[username]
	if !ok {
		return nil, domain.ErrCredentialNotFound
	}
	return &cred, nil
}

// Create stores cred and rewrites the file. The in-memory state is rolled
// back if the write fails.
func (s *FileStore) Create(_ context.Context, cred *domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.creds[cred.Username]; exists {
		return domain.ErrCredentialConflict
	}

	s.creds[cred.Username] = *cred
	if err := s.persistLocked(); err != nil {
		delete(s.creds, cred.Username)
		return err
	}
	return nil
}

// Count returns the number of stored credentials.
func (s *FileStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.creds), nil
}

// Close is a no-op; every change is already on disk.
func (s *FileStore) Close() error {
	return nil
}

// persistLocked writes the document to a temp file in the same directory
// and renames it over the target.
func (s *FileStore) persistLocked() error {
	data, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return domain.ErrStorageError.WithCause(fmt.Errorf("encode: %w", err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*.tmp")
	if err != nil {
		return domain.ErrStorageError.WithCause(fmt.Errorf("create temp: %w", err))
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return domain.ErrStorageError.WithCause(fmt.Errorf("write temp: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return domain.ErrStorageError.WithCause(fmt.Errorf("sync temp: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return domain.ErrStorageError.WithCause(fmt.Errorf("close temp: %w", err))
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return domain.ErrStorageError.WithCause(fmt.Errorf("chmod temp: %w", err))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return domain.ErrStorageError.WithCause(fmt.Errorf("rename: %w", err))
	}
	return nil
}
