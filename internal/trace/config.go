package trace

import (
	"fmt"
	"time"

	"github.com/KilimcininKorOglu/sonda/internal/probe"
)

// DefaultPacketSize is the size of a probe: ICMP header plus payload.
const DefaultPacketSize = 40

// MaxPacketSize is the largest probe that fits in one IPv4 datagram.
const MaxPacketSize = 65535 - probe.IPv4HeaderLen

// MaxTTL is the largest value of the IPv4 TTL field.
const MaxTTL = 255

// Config holds the configuration for a trace operation.
type Config struct {
	// Probe settings
	ProbeCount int           // Number of probes per hop (default: 3)
	MaxHops    int           // Maximum TTL/hops (default: 30)
	FirstHop   int           // Starting TTL (default: 1)
	Timeout    time.Duration // Per-probe timeout (default: 1s)
	PacketSize int           // ICMP bytes per probe, header included (default: 40)
	ProbeType  uint8         // ICMP type of probes (default: echo request)

	// Socket settings
	Debug bool // Enable SO_DEBUG on the probe socket

	// Identifier tags outgoing probes. Zero uses the process identifier.
	Identifier uint16

	// Optional ASN/GeoIP annotation of responding hops
	Enricher Enricher

	// Callback for real-time hop updates (streaming output)
	OnHop func(hop *Hop) // Called after each hop is probed
}

// Enricher annotates a hop with data about its responder address.
type Enricher interface {
	EnrichHop(hop *Hop)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ProbeCount: 3,
		MaxHops:    30,
		FirstHop:   1,
		Timeout:    probe.DefaultTimeout,
		PacketSize: DefaultPacketSize,
		ProbeType:  probe.ICMPv4EchoRequest,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.FirstHop < 1 || c.FirstHop > MaxTTL {
		return ErrInvalidFirstHop
	}
	if c.MaxHops < 1 {
		return ErrZeroMaxHops
	}
	if c.MaxHops > MaxTTL {
		return ErrInvalidMaxHops
	}
	if c.ProbeCount < 1 || c.ProbeCount > 10 {
		return ErrInvalidProbeCount
	}
	if c.FirstHop > c.MaxHops {
		return ErrFirstHopBeyondMax
	}
	if c.Timeout < 100*time.Millisecond {
		return ErrInvalidTimeout
	}
	if c.PacketSize < probe.HeaderLen || c.PacketSize > MaxPacketSize {
		return ErrInvalidPacketSize
	}
	if c.ProbeType != probe.ICMPv4EchoRequest && c.ProbeType != probe.ICMPv4Timestamp {
		return ErrInvalidProbeType
	}
	return nil
}

// DatagramSize returns the size of one probe on the wire, IPv4 header
// included.
func (c *Config) DatagramSize() int {
	return c.PacketSize + probe.IPv4HeaderLen
}

func (c *Config) identifier() uint16 {
	if c.Identifier != 0 {
		return c.Identifier
	}
	return probe.ProcessIdentifier()
}

// ProbeMethod returns the name reported for probes of the given ICMP type.
func ProbeMethod(probeType uint8) string {
	return probe.TypeName(probeType)
}

// ParseProbeType maps a probe method name to its ICMP type.
func ParseProbeType(name string) (uint8, error) {
	switch name {
	case "", "echo":
		return probe.ICMPv4EchoRequest, nil
	case "timestamp":
		return probe.ICMPv4Timestamp, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidProbeType, name)
	}
}
