package service

import (
	"context"
	"errors"
	"sort"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
)

// CredentialRepository defines the storage interface for credentials.
//
// Get returns domain.ErrCredentialNotFound for unknown users and Create
// returns domain.ErrCredentialConflict for existing ones. I/O failures are
// wrapped in domain.ErrStorageError.
type CredentialRepository interface {
	// Get retrieves the credential for username.
	Get(ctx context.Context, username string) (*domain.Credential, error)

	// Create stores a new credential.
	Create(ctx context.Context, cred *domain.Credential) error

	// Count returns the number of stored credentials.
	Count(ctx context.Context) (int, error)
}

// dummyHash is verified against when the user does not exist so that
// unknown and known usernames cost the same.
var dummyHash, _ = domain.HashPassword("peerhub-dummy-password")

// CredentialService verifies and registers username/password pairs.
type CredentialService struct {
	repo   CredentialRepository
	logger logger.Logger
}

// NewCredentialService creates a CredentialService over repo.
func NewCredentialService(repo CredentialRepository, l logger.Logger) *CredentialService {
	if l == nil {
		l = logger.Discard()
	}
	return &CredentialService{repo: repo, logger: l}
}

// Verify checks username and password. Any mismatch, including an unknown
// user, returns ErrInvalidCredentials.
func (s *CredentialService) Verify(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return domain.ErrInvalidCredentials
	}

	cred, err := s.repo.Get(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			domain.VerifyPassword(password, dummyHash)
			return domain.ErrInvalidCredentials
		}
		return err
	}

	if !cred.Verify(password) {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// Register stores a new credential. Returns ErrCredentialConflict if the
// username is taken.
func (s *CredentialService) Register(ctx context.Context, username, password string) (*domain.Credential, error) {
	// 1. Validate and hash
	cred, err := domain.NewCredential(username, password)
	if err != nil {
		return nil, err
	}

	// 2. Persist
	if err := s.repo.Create(ctx, cred); err != nil {
		return nil, err
	}

	s.logger.Info("credential registered", "username", username)
	return cred, nil
}

// Seed registers every user in users that does not exist yet and returns
// how many were added. Existing users keep their stored password.
func (s *CredentialService) Seed(ctx context.Context, users map[string]string) (int, error) {
	names := make([]string, 0, len(users))
	for name := range users {
		names = append(names, name)
	}
	sort.Strings(names)

	added := 0
	for _, name := range names {
		_, err := s.Register(ctx, name, users[name])
		switch {
		case err == nil:
			added++
		case errors.Is(err, domain.ErrCredentialConflict):
			continue
		default:
			return added, err
		}
	}
	return added, nil
}

// Count returns the number of stored credentials.
func (s *CredentialService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
