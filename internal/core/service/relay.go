package service

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
	"github.com/yndnr/peerhub-go/internal/telemetry/metric"
)

// Relay payload formats.
const (
	privateFormat   = "[Private] %s: %s"
	broadcastFormat = "[Broadcast] %s: %s"
)

// Dialer opens outbound connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// RelayConfig bounds relay deliveries.
type RelayConfig struct {
	// DialTimeout bounds connection establishment per target.
	DialTimeout time.Duration

	// WriteTimeout bounds the payload write per target.
	WriteTimeout time.Duration

	// Workers is the broadcast fan-out concurrency.
	Workers int
}

// DefaultRelayConfig returns the default relay bounds.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		DialTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		Workers:      8,
	}
}

// BroadcastResult summarizes a broadcast.
type BroadcastResult struct {
	Attempted int
	Delivered int
	Failed    int
}

// Relay delivers text messages to connected peers over fresh TCP
// connections. Deliveries are never retried.
type Relay struct {
	dir     *Directory
	dialer  Dialer
	cfg     RelayConfig
	logger  logger.Logger
	metrics *metric.Registry
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithDialer overrides the outbound dialer.
func WithDialer(d Dialer) RelayOption {
	return func(r *Relay) { r.dialer = d }
}

// WithRelayLogger sets the logger.
func WithRelayLogger(l logger.Logger) RelayOption {
	return func(r *Relay) { r.logger = l }
}

// WithRelayMetrics records delivery outcomes into reg.
func WithRelayMetrics(reg *metric.Registry) RelayOption {
	return func(r *Relay) { r.metrics = reg }
}

// NewRelay creates a relay delivering to dir's connected set.
func NewRelay(dir *Directory, cfg RelayConfig, opts ...RelayOption) *Relay {
	def := DefaultRelayConfig()
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = def.DialTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	r := &Relay{
		dir:    dir,
		dialer: &net.Dialer{},
		cfg:    cfg,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Send delivers "[Private] from: message" to the connected peer to.
// Returns ErrPeerNotFound without dialing when to is not connected, and
// ErrDeliveryFailed when the dial or write fails.
func (r *Relay) Send(ctx context.Context, from, to, message string) error {
	// 1. Locked lookup only
	target, ok := r.dir.ConnectedPeer(to)
	if !ok {
		return domain.ErrPeerNotFound.WithDetails(to)
	}

	// 2. Deliver outside any lock; runs to completion even if the caller goes away
	ctx = context.WithoutCancel(ctx)
	payload := fmt.Sprintf(privateFormat, from, message)
	if err := r.deliver(ctx, "private", target, payload); err != nil {
		r.logger.WithContext(ctx).Warn("private delivery failed",
			"from", from, "to", to, "addr", target.Addr(), "error", err)
		return domain.ErrDeliveryFailed.WithDetails(to).WithCause(err)
	}

	r.logger.WithContext(ctx).Info("private message delivered", "from", from, "to", to)
	return nil
}

// Broadcast delivers "[Broadcast] from: message" to every connected peer
// except from. Individual failures are logged and counted.
func (r *Relay) Broadcast(ctx context.Context, from, message string) BroadcastResult {
	ctx = context.WithoutCancel(ctx)
	payload := fmt.Sprintf(broadcastFormat, from, message)

	var targets []domain.PeerRecord
	for _, p := range r.dir.ConnectedPeers() {
		if p.Name != from {
			targets = append(targets, p)
		}
	}

	var delivered, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(r.cfg.Workers)

	for _, target := range targets {
		target := target
		g.Go(func() error {
			if err := r.deliver(ctx, "broadcast", target, payload); err != nil {
				failed.Add(1)
				r.logger.WithContext(ctx).Warn("broadcast delivery failed",
					"from", from, "to", target.Name, "addr", target.Addr(), "error", err)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res := BroadcastResult{
		Attempted: len(targets),
		Delivered: int(delivered.Load()),
		Failed:    int(failed.Load()),
	}
	r.logger.WithContext(ctx).Info("broadcast finished",
		"from", from, "attempted", res.Attempted, "delivered", res.Delivered, "failed", res.Failed)
	return res
}

// deliver dials target, writes payload and closes.
func (r *Relay) deliver(ctx context.Context, kind string, target domain.PeerRecord, payload string) (err error) {
	start := time.Now()
	defer func() {
		if r.metrics == nil {
			return
		}
		result := "ok"
		if err != nil {
			result = "error"
		}
		r.metrics.RelayDeliveries.WithLabelValues(kind, result).Inc()
		r.metrics.RelayDuration.Observe(time.Since(start).Seconds())
	}()

	dialCtx, cancel := context.WithTimeout(ctx, r.cfg.DialTimeout)
	defer cancel()

	conn, err := r.dialer.DialContext(dialCtx, "tcp", target.Addr())
	if err != nil {
		return fmt.Errorf("dial %s: %w", target.Addr(), err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(r.cfg.WriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := conn.Write([]byte(payload)); err != nil {
		return fmt.Errorf("write %s: %w", target.Addr(), err)
	}
	return nil
}
