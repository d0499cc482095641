package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
	"github.com/yndnr/peerhub-go/internal/telemetry/metric"
)

// credPrefix namespaces credential keys: cred/<username>.
const credPrefix = "cred/"

// BadgerConfig tunes the badger backend.
type BadgerConfig struct {
	// GCInterval is the interval between value-log GC runs. Zero disables GC.
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC.
	GCThreshold float64

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// InMemory runs badger without touching disk (tests).
	InMemory bool
}

// DefaultBadgerConfig returns the default badger tuning.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
		SyncWrites:  true,
	}
}

// BadgerStore stores credentials in Badger v3.
type BadgerStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger logger.Logger

	// Create is check-then-set; serialize it so conflicts are reported
	// instead of surfacing as badger.ErrConflict.
	createMu sync.Mutex

	lsmSize  prometheus.GaugeFunc
	vlogSize prometheus.GaugeFunc
	gcRuns   prometheus.Counter

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// OpenBadgerStore opens or creates a badger database in dir.
func OpenBadgerStore(dir string, cfg BadgerConfig, l logger.Logger) (*BadgerStore, error) {
	if dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("storage: badger backend requires a path")
	}
	if l == nil {
		l = logger.Discard()
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		cfg.GCThreshold = DefaultBadgerConfig().GCThreshold
	}

	opts := badger.DefaultOptions(dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: l.With("component", "badger")}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(fmt.Errorf("badger: open db: %w", err))
	}

	s := &BadgerStore{
		db:     db,
		cfg:    cfg,
		logger: l,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go s.gcLoop()

	l.Info("badger credential store opened", "dir", dir, "gc_interval", cfg.GCInterval)
	return s, nil
}

func credKey(username string) []byte {
	return []byte(credPrefix + username)
}

// Get retrieves the credential for username.
func (s *BadgerStore) Get(_ context.Context, username string) (*domain.Credential, error) {
	var cred domain.Credential

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(credKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cred)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrCredentialNotFound
	}
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(fmt.Errorf("badger: get %q: %w", username, err))
	}
	return &cred, nil
}

// Create stores a new credential.
func (s *BadgerStore) Create(_ context.Context, cred *domain.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return domain.ErrStorageError.WithCause(fmt.Errorf("badger: encode: %w", err))
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	err = s.db.Update(func(txn *badger.Txn) error {
		key := credKey(cred.Username)
		if _, err := txn.Get(key); err == nil {
			return domain.ErrCredentialConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if errors.Is(err, domain.ErrCredentialConflict) {
		return domain.ErrCredentialConflict
	}
	if err != nil {
		return domain.ErrStorageError.WithCause(fmt.Errorf("badger: create %q: %w", cred.Username, err))
	}
	return nil
}

// Count returns the number of stored credentials.
func (s *BadgerStore) Count(_ context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(credPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, domain.ErrStorageError.WithCause(fmt.Errorf("badger: count: %w", err))
	}
	return n, nil
}

// GC runs value-log GC until badger reports nothing left to rewrite and
// returns the number of rewrites.
func (s *BadgerStore) GC() (int, error) {
	runs := 0
	for {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return runs, fmt.Errorf("badger: gc: %w", err)
		}
		runs++
	}
	if s.gcRuns != nil && runs > 0 {
		s.gcRuns.Add(float64(runs))
	}
	return runs, nil
}

// RegisterMetrics exports database size and GC activity into reg.
func (s *BadgerStore) RegisterMetrics(reg *metric.Registry) *BadgerStore {
	s.lsmSize = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "peerhub",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes.",
	}, func() float64 {
		lsm, _ := s.db.Size()
		return float64(lsm)
	})
	s.vlogSize = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "peerhub",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes.",
	}, func() float64 {
		_, vlog := s.db.Size()
		return float64(vlog)
	})
	s.gcRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "peerhub",
		Subsystem: "badger",
		Name:      "gc_rewrites_total",
		Help:      "Value log files rewritten by GC.",
	})

	reg.MustRegister(s.lsmSize, s.vlogSize, s.gcRuns)
	return s
}

// Close stops the GC loop and closes the database.
func (s *BadgerStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh

		if cerr := s.db.Close(); cerr != nil {
			err = fmt.Errorf("badger: close db: %w", cerr)
			return
		}
		s.logger.Info("badger credential store closed")
	})
	return err
}

// gcLoop runs periodic value-log GC.
func (s *BadgerStore) gcLoop() {
	defer close(s.doneCh)

	if s.cfg.GCInterval <= 0 || s.cfg.InMemory {
		<-s.stopCh
		return
	}

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.GC(); err != nil {
				s.logger.Error("badger gc failed", "error", err)
			}
		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
