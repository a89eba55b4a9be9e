package ping

import "errors"

// Ping-related errors.
var (
	// ErrInvalidTTL indicates the TTL is out of valid range (1-255)
	ErrInvalidTTL = errors.New("ttl must be between 1 and 255")

	// ErrInvalidSize indicates the payload does not fit in one IPv4 datagram
	ErrInvalidSize = errors.New("packet size must be between 0 and 65507")

	// ErrInvalidCount indicates a count that is neither positive nor unbounded
	ErrInvalidCount = errors.New("count must be positive, or -1 for unbounded")

	// ErrInvalidInterval indicates a non-positive send interval
	ErrInvalidInterval = errors.New("interval must be positive")

	// ErrInvalidTimeout indicates timeout is too short
	ErrInvalidTimeout = errors.New("timeout must be at least 100ms")

	// ErrNoDestination indicates no resolved address was given
	ErrNoDestination = errors.New("no destination address")

	// ErrNoReplies indicates the run finished without a single valid reply
	ErrNoReplies = errors.New("no replies received")
)
