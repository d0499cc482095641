package peeragent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
)

// MaxMessageSize is the most bytes read from one delivery.
const MaxMessageSize = 4096

// Message is one received delivery.
type Message struct {
	Text       string
	RemoteAddr string
	ReceivedAt time.Time
}

// ListenerConfig configures a Listener.
type ListenerConfig struct {
	// Addr is the TCP listen address, e.g. "127.0.0.1:9001".
	Addr string

	// ReadTimeout bounds reading one delivery.
	ReadTimeout time.Duration
}

// Listener receives relay deliveries.
type Listener struct {
	cfg    ListenerConfig
	logger logger.Logger

	ln   net.Listener
	wg   sync.WaitGroup
	once sync.Once
	done chan struct{}

	mu       sync.Mutex
	messages []Message
	notify   chan Message
}

// NewListener creates a Listener. l may be nil.
func NewListener(cfg ListenerConfig, l logger.Logger) *Listener {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 5 * time.Second
	}
	if l == nil {
		l = logger.Discard()
	}
	return &Listener{
		cfg:    cfg,
		logger: l,
		notify: make(chan Message, 64),
		done:   make(chan struct{}),
	}
}

// Start binds the listen address and accepts in the background.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", l.cfg.Addr, err)
	}
	l.serve(ctx, ln)
	l.logger.Info("peer listener started", "addr", ln.Addr().String())
	return nil
}

func (l *Listener) serve(ctx context.Context, ln net.Listener) {
	l.ln = ln

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.acceptLoop(ctx)
	}()
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-l.done:
		}
	}()
}

// Addr returns the bound address, or nil before Start.
func (l *Listener) Addr() net.Addr {
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Port returns the bound TCP port, or 0 before Start.
func (l *Listener) Port() int {
	if addr, ok := l.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Messages returns a snapshot of every message received so far.
func (l *Listener) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Received delivers each message as it arrives. Messages are dropped from
// this channel, never from Messages, when nobody reads it.
func (l *Listener) Received() <-chan Message {
	return l.notify
}

// Close stops accepting and waits for in-flight reads.
func (l *Listener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		if l.ln != nil {
			err = l.ln.Close()
		}
		l.wg.Wait()
		l.logger.Info("peer listener stopped")
	})
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}

// acceptLoop retries failed Accepts with backoff until the listener is
// closed or ctx is done.
func (l *Listener) acceptLoop(ctx context.Context) {
	var backoff time.Duration
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			backoff = nextBackoff(backoff)
			l.logger.Warn("accept failed, retrying", "error", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return
			case <-l.done:
				return
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.handle(conn)
		}()
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > time.Second {
		d = time.Second
	}
	return d
}

// handle reads one delivery of at most MaxMessageSize bytes.
func (l *Listener) handle(conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout))
	buf, err := io.ReadAll(io.LimitReader(conn, MaxMessageSize))
	if err != nil && len(buf) == 0 {
		l.logger.Debug("delivery read failed", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}
	if len(buf) == 0 {
		return
	}

	msg := Message{
		Text:       string(buf),
		RemoteAddr: conn.RemoteAddr().String(),
		ReceivedAt: time.Now(),
	}
	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.mu.Unlock()

	select {
	case l.notify <- msg:
	default:
	}
	l.logger.Info("message received", "remote", msg.RemoteAddr, "message", msg.Text)
}
