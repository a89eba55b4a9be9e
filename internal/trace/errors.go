package trace

import "errors"

// Trace-related errors.
var (
	// ErrInvalidFirstHop indicates the first TTL is outside 1-255
	ErrInvalidFirstHop = errors.New("first hop out of range")

	// ErrZeroMaxHops indicates a max TTL of zero
	ErrZeroMaxHops = errors.New("max_ttl should not be 0!")

	// ErrInvalidMaxHops indicates max hops is above 255
	ErrInvalidMaxHops = errors.New("max hops cannot be more than 255")

	// ErrInvalidProbeCount indicates probe count is out of valid range (1-10)
	ErrInvalidProbeCount = errors.New("use a valid probes number")

	// ErrFirstHopBeyondMax indicates the first TTL is above the max TTL
	ErrFirstHopBeyondMax = errors.New("first hop already out of range")

	// ErrInvalidTimeout indicates timeout is too short
	ErrInvalidTimeout = errors.New("timeout must be at least 100ms")

	// ErrInvalidPacketSize indicates a probe that cannot hold an ICMP header
	ErrInvalidPacketSize = errors.New("packet size must be between 8 and 65515")

	// ErrInvalidProbeType indicates an ICMP type that cannot be used as a probe
	ErrInvalidProbeType = errors.New("probe type must be echo (8) or timestamp (13)")

	// ErrNoDestination indicates no resolved address was given
	ErrNoDestination = errors.New("no destination address")
)
