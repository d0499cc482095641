package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/yndnr/peerhub-go/internal/core/domain"
)

// mockCredentialRepo is an in-memory CredentialRepository for tests.
type mockCredentialRepo struct {
	mu    sync.Mutex
	creds map[string]*domain.Credential
	err   error
}

func newMockCredentialRepo() *mockCredentialRepo {
	return &mockCredentialRepo{creds: make(map[string]*domain.Credential)}
}

func (m *mockCredentialRepo) Get(_ context.Context, username string) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.creds[username]
	if !ok {
		return nil, domain.ErrCredentialNotFound
	}
	return c, nil
}

func (m *mockCredentialRepo) Create(_ context.Context, cred *domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.creds[cred.Username]; ok {
		return domain.ErrCredentialConflict
	}
	m.creds[cred.Username] = cred
	return nil
}

func (m *mockCredentialRepo) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.creds), m.err
}

func TestCredentialService_RegisterVerify(t *testing.T) {
	ctx := context.Background()
	svc := NewCredentialService(newMockCredentialRepo(), nil)

	if _, err := svc.Register(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := svc.Verify(ctx, "alice", "pw"); err != nil {
		t.Errorf("Verify() error = %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "nope"},
		{"unknown user", "bob", "pw"},
		{"empty password", "alice", ""},
		{"empty username", "", "pw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Verify(ctx, tt.username, tt.password)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Errorf("Verify() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestCredentialService_RegisterConflict(t *testing.T) {
	ctx := context.Background()
	svc := NewCredentialService(newMockCredentialRepo(), nil)

	svc.Register(ctx, "alice", "pw")
	if _, err := svc.Register(ctx, "alice", "other"); !errors.Is(err, domain.ErrCredentialConflict) {
		t.Errorf("Register(duplicate) error = %v, want ErrCredentialConflict", err)
	}
	if err := svc.Verify(ctx, "alice", "pw"); err != nil {
		t.Error("duplicate registration must not replace the password")
	}
}

func TestCredentialService_RegisterValidation(t *testing.T) {
	svc := NewCredentialService(newMockCredentialRepo(), nil)
	if _, err := svc.Register(context.Background(), "", "pw"); !errors.Is(err, domain.ErrCredentialValidation) {
		t.Errorf("Register(empty) error = %v", err)
	}
}

func TestCredentialService_StorageError(t *testing.T) {
	repo := newMockCredentialRepo()
	repo.err = domain.ErrStorageError.WithDetails("disk gone")
	svc := NewCredentialService(repo, nil)

	if err := svc.Verify(context.Background(), "alice", "pw"); !errors.Is(err, domain.ErrStorageError) {
		t.Errorf("Verify() error = %v, want ErrStorageError", err)
	}
}

func TestCredentialService_Seed(t *testing.T) {
	ctx := context.Background()
	repo := newMockCredentialRepo()
	svc := NewCredentialService(repo, nil)
	svc.Register(ctx, "admin", "changed")

	added, err := svc.Seed(ctx, map[string]string{
		"admin":   "password",
		"client1": "123",
		"client2": "123",
	})
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if added != 2 {
		t.Errorf("Seed() added = %d, want 2", added)
	}
	if err := svc.Verify(ctx, "admin", "changed"); err != nil {
		t.Error("Seed must not overwrite existing users")
	}
	if n, _ := svc.Count(ctx); n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}
