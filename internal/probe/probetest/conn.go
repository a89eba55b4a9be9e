// Package probetest provides a simulated ICMP socket for testing the probe
// loops without raw sockets or network access.
package probetest

import (
	"net"
	"time"

	"github.com/KilimcininKorOglu/sonda/internal/probe"
)

// Responder builds the network's answer to one probe. msg is the encoded
// ICMP message and ttl the socket TTL it was sent with. Returning ok=false
// simulates a lost probe.
type Responder func(msg []byte, ttl int) (reply []byte, from net.IP, ok bool)

type datagram struct {
	data []byte
	from net.IP
	ttl  int
}

// Conn is a probe.Conn whose replies are produced synchronously by a
// Responder. ReadFrom returns probe.ErrTimeout when no reply is queued,
// so reads never block.
type Conn struct {
	// Respond answers every written probe. Nil drops everything.
	Respond Responder

	// ReplyTTL is reported as the TTL of every queued reply.
	ReplyTTL int

	// WriteErr and ReadErr, when set, are returned by WriteTo and ReadFrom.
	WriteErr error
	ReadErr  error

	ttl    int
	ttls   []int
	sent   [][]byte
	queue  []datagram
	closed bool
}

// NewConn returns a simulated socket answering with r.
func NewConn(r Responder) *Conn {
	return &Conn{
		Respond:  r,
		ReplyTTL: 64,
		ttl:      64,
	}
}

// WriteTo records the probe and queues the responder's answer.
func (c *Conn) WriteTo(b []byte, dst net.IP) error {
	if c.closed {
		return probe.ErrSocketClosed
	}
	if c.WriteErr != nil {
		return c.WriteErr
	}

	msg := append([]byte(nil), b...)
	c.sent = append(c.sent, msg)
	c.ttls = append(c.ttls, c.ttl)

	if c.Respond == nil {
		return nil
	}
	if reply, from, ok := c.Respond(msg, c.ttl); ok {
		c.Inject(reply, from)
	}
	return nil
}

// ReadFrom pops the oldest queued datagram.
func (c *Conn) ReadFrom(b []byte) (int, net.IP, int, error) {
	if c.closed {
		return 0, nil, 0, probe.ErrSocketClosed
	}
	if c.ReadErr != nil {
		return 0, nil, 0, c.ReadErr
	}
	if len(c.queue) == 0 {
		return 0, nil, 0, probe.ErrTimeout
	}

	d := c.queue[0]
	c.queue = c.queue[1:]
	n := copy(b, d.data)
	return n, d.from, d.ttl, nil
}

// SetReadDeadline is a no-op; reads never block.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return nil
}

// SetTTL sets the TTL recorded for subsequent probes.
func (c *Conn) SetTTL(ttl int) error {
	if ttl < 1 || ttl > 255 {
		return probe.ErrInvalidTTL
	}
	c.ttl = ttl
	return nil
}

// Close marks the socket closed.
func (c *Conn) Close() error {
	c.closed = true
	return nil
}

// Inject queues an unsolicited datagram.
func (c *Conn) Inject(data []byte, from net.IP) {
	c.queue = append(c.queue, datagram{
		data: append([]byte(nil), data...),
		from: from,
		ttl:  c.ReplyTTL,
	})
}

// Sent returns every probe written so far.
func (c *Conn) Sent() [][]byte {
	return c.sent
}

// TTLs returns the socket TTL in effect for every probe written so far.
func (c *Conn) TTLs() []int {
	return c.ttls
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	return c.closed
}
