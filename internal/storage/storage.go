package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/storage/memory"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
	"github.com/yndnr/peerhub-go/internal/telemetry/metric"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBadger = "badger"
)

// CredentialStore is a closable credential repository.
type CredentialStore interface {
	Get(ctx context.Context, username string) (*domain.Credential, error)
	Create(ctx context.Context, cred *domain.Credential) error
	Count(ctx context.Context) (int, error)
	io.Closer
}

// Config selects and configures a backend.
type Config struct {
	// Backend is one of memory, file or badger.
	Backend string

	// Path is the JSON file for the file backend and the data directory
	// for the badger backend.
	Path string

	// Badger tunes the badger backend.
	Badger BadgerConfig
}

// Open creates the configured backend. reg may be nil.
func Open(cfg Config, l logger.Logger, reg *metric.Registry) (CredentialStore, error) {
	if l == nil {
		l = logger.Discard()
	}

	switch cfg.Backend {
	case "", BackendMemory:
		return memory.NewCredentialStore(), nil
	case BackendFile:
		return OpenFileStore(cfg.Path, l)
	case BackendBadger:
		store, err := OpenBadgerStore(cfg.Path, cfg.Badger, l)
		if err != nil {
			return nil, err
		}
		if reg != nil {
			store.RegisterMetrics(reg)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
