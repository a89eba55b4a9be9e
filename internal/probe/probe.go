// Package probe provides the ICMP building blocks shared by ping and
// traceroute: the Internet checksum, the echo packet codec, the round-trip
// timer and the raw socket the probe loops talk to.
package probe

import (
	"net"
	"time"
)

// DefaultTimeout is how long a probe waits for a reply.
const DefaultTimeout = time.Second

// Conn is a raw ICMP socket as seen by the probe loops.
// Implementations include RawConn and the simulated socket in probetest.
type Conn interface {
	// WriteTo sends an encoded ICMP message to dst.
	WriteTo(b []byte, dst net.IP) error

	// ReadFrom reads one ICMP message (IP header stripped) into b.
	// It returns the number of bytes read, the sender address and the TTL
	// of the carrying IP datagram (0 when unknown). It returns ErrTimeout
	// when the read deadline passes.
	ReadFrom(b []byte) (n int, peer net.IP, ttl int, err error)

	// SetReadDeadline bounds the next ReadFrom calls.
	SetReadDeadline(t time.Time) error

	// SetTTL sets the Time-To-Live of outgoing datagrams. It is socket-wide.
	SetTTL(ttl int) error

	// Close releases the socket.
	Close() error
}
