package memory

import (
	"context"
	"sync"

	"github.com/yndnr/peerhub-go/internal/core/domain"
)

// CredentialStore provides in-memory storage for credentials.
type CredentialStore struct {
	mu    sync.RWMutex
	creds map[string]domain.Credential
}

// NewCredentialStore creates an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		creds: make(map[string]domain.Credential),
	}
}

// Get retrieves the credential for username.
func (s *CredentialStore) Get(_ context.Context, username string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[username]
	if !ok {
		return nil, domain.ErrCredentialNotFound
	}
	return &cred, nil
}

// Create stores a new credential.
func (s *CredentialStore) Create(_ context.Context, cred *domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.creds[cred.Username]; exists {
		return domain.ErrCredentialConflict
	}
	s.creds[cred.Username] = *cred
	return nil
}

// Count returns the number of stored credentials.
func (s *CredentialStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.creds), nil
}

// Close is a no-op.
func (s *CredentialStore) Close() error {
	return nil
}
