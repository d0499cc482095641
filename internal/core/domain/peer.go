package domain

import (
	"net"
	"strconv"
	"time"
)

// DefaultPeerHost is used when a registration omits the host.
const DefaultPeerHost = "127.0.0.1"

// MaxPeerNameLength bounds directory keys.
const MaxPeerNameLength = 128

// PeerState is the presence state of a directory entry.
type PeerState int

const (
	// PeerRegistered means the peer announced itself but is not reachable for relay.
	PeerRegistered PeerState = iota

	// PeerConnected means the endpoint was cached in the connected set.
	PeerConnected
)

// String returns the lower-case state name used in JSON listings.
func (s PeerState) String() string {
	switch s {
	case PeerRegistered:
		return "registered"
	case PeerConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// PeerRecord is a peer directory entry.
type PeerRecord struct {
	// Name is the unique directory key.
	Name string

	// Item is the free-form payload announced with the registration.
	Item string

	// Host and Port form the relay endpoint.
	Host string
	Port int

	State PeerState

	// RegisteredAt is the time of the most recent registration.
	RegisteredAt time.Time
}

// Validate checks the record for use as a directory entry.
func (p *PeerRecord) Validate() error {
	if p.Name == "" {
		return ErrPeerValidation.WithDetails("name is required")
	}
	if len(p.Name) > MaxPeerNameLength {
		return ErrPeerValidation.WithDetails("name too long")
	}
	if p.Port < 1 || p.Port > 65535 {
		return ErrPeerValidation.WithDetails("port out of range: " + strconv.Itoa(p.Port))
	}
	return nil
}

// Addr returns the host:port dial address.
func (p *PeerRecord) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// IsExpired reports whether the registration is older than ttl.
// A zero ttl never expires.
func (p *PeerRecord) IsExpired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(p.RegisteredAt) >= ttl
}
