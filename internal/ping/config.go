package ping

import (
	"net"
	"time"

	"github.com/KilimcininKorOglu/sonda/internal/probe"
)

// MaxSize is the largest payload that fits in one IPv4 datagram next to
// the IPv4 and ICMP headers.
const MaxSize = 65535 - probe.IPv4HeaderLen - probe.HeaderLen

// Unbounded makes the pinger run until it is stopped.
const Unbounded = -1

// Config holds the configuration for an echo run. It is read-only once
// passed to New.
type Config struct {
	Host string // Target as given by the user
	Addr net.IP // Resolved IPv4 destination

	TTL      int           // Time-to-live of outgoing requests (default: 64)
	Size     int           // Payload bytes per request (default: 56)
	Count    int           // Requests to send, Unbounded for no limit
	Interval time.Duration // Delay between requests (default: 1s)
	Timeout  time.Duration // Per-request receive timeout (default: 1s)

	// Identifier tags outgoing requests. Zero uses the process identifier.
	Identifier uint16

	// Callback for every finished request (streaming output)
	OnRecord func(rec *Record)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TTL:      64,
		Size:     56,
		Count:    Unbounded,
		Interval: time.Second,
		Timeout:  probe.DefaultTimeout,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TTL < 1 || c.TTL > 255 {
		return ErrInvalidTTL
	}
	if c.Size < 0 || c.Size > MaxSize {
		return ErrInvalidSize
	}
	if c.Count == 0 || c.Count < Unbounded {
		return ErrInvalidCount
	}
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}
	if c.Timeout < 100*time.Millisecond {
		return ErrInvalidTimeout
	}
	if c.Addr == nil || c.Addr.To4() == nil {
		return ErrNoDestination
	}
	return nil
}

// identifier returns the configured identifier or the process one.
func (c *Config) identifier() uint16 {
	if c.Identifier != 0 {
		return c.Identifier
	}
	return probe.ProcessIdentifier()
}
