package service

import (
	"context"
	"sync"
	"time"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
	"github.com/yndnr/peerhub-go/internal/telemetry/metric"
)

// Directory holds registered peers in insertion order and the separate set
// of connected peers that the relay delivers to.
//
// The two collections have their own locks. Register and Connect take mu
// and then connMu; nothing takes them in the other order.
type Directory struct {
	mu      sync.RWMutex
	entries map[string]*domain.PeerRecord
	order   []string

	connMu    sync.RWMutex
	connected map[string]domain.PeerRecord
	connOrder []string

	ttl     time.Duration
	now     func() time.Time
	logger  logger.Logger
	metrics *metric.Registry
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithPeerTTL expires entries ttl after their last registration.
// Zero keeps entries forever.
func WithPeerTTL(ttl time.Duration) DirectoryOption {
	return func(d *Directory) { d.ttl = ttl }
}

// WithDirectoryClock overrides the time source.
func WithDirectoryClock(now func() time.Time) DirectoryOption {
	return func(d *Directory) { d.now = now }
}

// WithDirectoryLogger sets the logger.
func WithDirectoryLogger(l logger.Logger) DirectoryOption {
	return func(d *Directory) { d.logger = l }
}

// WithDirectoryMetrics records registrations into reg.
func WithDirectoryMetrics(reg *metric.Registry) DirectoryOption {
	return func(d *Directory) { d.metrics = reg }
}

// NewDirectory creates an empty directory.
func NewDirectory(opts ...DirectoryOption) *Directory {
	d := &Directory{
		entries:   make(map[string]*domain.PeerRecord),
		connected: make(map[string]domain.PeerRecord),
		now:       time.Now,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register inserts or overwrites the entry for rec.Name in state Registered.
// An overwrite keeps the entry's list position and drops the name from the
// connected set, so the peer must connect again before it receives
// messages at the new endpoint. An empty host defaults to 127.0.0.1.
func (d *Directory) Register(rec domain.PeerRecord) (domain.PeerRecord, error) {
	// 1. Normalize and validate
	if rec.Host == "" {
		rec.Host = domain.DefaultPeerHost
	}
	if err := rec.Validate(); err != nil {
		return domain.PeerRecord{}, err
	}
	rec.State = domain.PeerRegistered
	rec.RegisteredAt = d.now()

	// 2. Upsert
	d.mu.Lock()
	d.purgeEntriesLocked(rec.RegisteredAt)
	if _, exists := d.entries[rec.Name]; !exists {
		d.order = append(d.order, rec.Name)
	}
	stored := rec
	d.entries[rec.Name] = &stored

	// 3. Invalidate the relay cache
	d.connMu.Lock()
	d.disconnectLocked(rec.Name)
	d.connMu.Unlock()
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.PeerRegistrations.Inc()
	}
	d.logger.Info("peer registered", "peer", rec.Name, "addr", rec.Addr())
	return rec, nil
}

// List returns a snapshot of the directory in insertion order.
func (d *Directory) List() []domain.PeerRecord {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.purgeEntriesLocked(now)
	out := make([]domain.PeerRecord, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, *d.entries[name])
	}
	return out
}

// Lookup returns the directory entry for name.
func (d *Directory) Lookup(name string) (domain.PeerRecord, bool) {
	now := d.now()

	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.entries[name]
	if !ok || rec.IsExpired(now, d.ttl) {
		return domain.PeerRecord{}, false
	}
	return *rec, true
}

// Connect copies the directory entry for name into the connected set and
// marks the entry Connected. Unknown names return ErrPeerNotFound and leave
// the connected set untouched.
func (d *Directory) Connect(name string) (domain.PeerRecord, error) {
	now := d.now()

	// 1. Promote in the directory
	d.mu.Lock()
	d.purgeEntriesLocked(now)
	entry, ok := d.entries[name]
	if !ok {
		d.mu.Unlock()
		return domain.PeerRecord{}, domain.ErrPeerNotFound.WithDetails(name)
	}
	entry.State = domain.PeerConnected
	snapshot := *entry

	// 2. Cache the endpoint for the relay
	d.connMu.Lock()
	if _, exists := d.connected[name]; !exists {
		d.connOrder = append(d.connOrder, name)
	}
	d.connected[name] = snapshot
	d.connMu.Unlock()
	d.mu.Unlock()

	d.logger.Info("peer connected", "peer", name, "addr", snapshot.Addr())
	return snapshot, nil
}

// ConnectedPeer returns the cached endpoint for name.
func (d *Directory) ConnectedPeer(name string) (domain.PeerRecord, bool) {
	now := d.now()

	d.connMu.RLock()
	defer d.connMu.RUnlock()

	rec, ok := d.connected[name]
	if !ok || rec.IsExpired(now, d.ttl) {
		return domain.PeerRecord{}, false
	}
	return rec, true
}

// ConnectedPeers returns the connected set in connect order.
func (d *Directory) ConnectedPeers() []domain.PeerRecord {
	now := d.now()

	d.connMu.Lock()
	defer d.connMu.Unlock()

	d.purgeConnectedLocked(now)
	out := make([]domain.PeerRecord, 0, len(d.connOrder))
	for _, name := range d.connOrder {
		out = append(out, d.connected[name])
	}
	return out
}

// Counts returns the sizes of the directory and the connected set.
func (d *Directory) Counts() (registered, connected int) {
	d.mu.RLock()
	registered = len(d.entries)
	d.mu.RUnlock()

	d.connMu.RLock()
	connected = len(d.connected)
	d.connMu.RUnlock()
	return registered, connected
}

// Purge removes expired entries from both collections and returns the
// number removed. It is a no-op when no TTL is configured.
func (d *Directory) Purge() int {
	if d.ttl <= 0 {
		return 0
	}
	now := d.now()

	d.mu.Lock()
	n := d.purgeEntriesLocked(now)
	d.mu.Unlock()

	d.connMu.Lock()
	n += d.purgeConnectedLocked(now)
	d.connMu.Unlock()

	if n > 0 {
		d.logger.Info("expired peers purged", "count", n)
	}
	return n
}

// Run purges expired peers every interval until ctx is done.
func (d *Directory) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || d.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Purge()
		}
	}
}

func (d *Directory) purgeEntriesLocked(now time.Time) int {
	if d.ttl <= 0 {
		return 0
	}
	kept := d.order[:0]
	removed := 0
	for _, name := range d.order {
		if d.entries[name].IsExpired(now, d.ttl) {
			delete(d.entries, name)
			removed++
			continue
		}
		kept = append(kept, name)
	}
	d.order = kept
	return removed
}

func (d *Directory) purgeConnectedLocked(now time.Time) int {
	if d.ttl <= 0 {
		return 0
	}
	kept := d.connOrder[:0]
	removed := 0
	for _, name := range d.connOrder {
		rec := d.connected[name]
		if rec.IsExpired(now, d.ttl) {
			delete(d.connected, name)
			removed++
			continue
		}
		kept = append(kept, name)
	}
	d.connOrder = kept
	return removed
}

func (d *Directory) disconnectLocked(name string) {
	if _, ok := d.connected[name]; !ok {
		return
	}
	delete(d.connected, name)
	for i, n := range d.connOrder {
		if n == name {
			d.connOrder = append(d.connOrder[:i], d.connOrder[i+1:]...)
			break
		}
	}
}
