package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"golang.org/x/net/ipv4"
)

// SocketConfig holds configuration for the raw ICMP socket.
type SocketConfig struct {
	// TTL is the initial Time-To-Live of outgoing datagrams (0 keeps the
	// system default).
	TTL int

	// Debug enables socket level debugging (SO_DEBUG).
	Debug bool
}

// RawConn implements Conn on top of a privileged "ip4:icmp" socket.
type RawConn struct {
	conn net.PacketConn
	pc   *ipv4.PacketConn
}

// Listen opens a raw ICMPv4 socket configured from config.
func Listen(config SocketConfig) (*RawConn, error) {
	if config.TTL < 0 || config.TTL > 255 {
		return nil, ErrInvalidTTL
	}

	lc := net.ListenConfig{}
	if config.Debug {
		lc.Control = func(network, address string, c syscall.RawConn) error {
			var optErr error
			if err := c.Control(func(fd uintptr) {
				optErr = setDebug(fd)
			}); err != nil {
				return err
			}
			return optErr
		}
	}

	conn, err := lc.ListenPacket(context.Background(), "ip4:icmp", "0.0.0.0")
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return nil, err
	}

	c := &RawConn{
		conn: conn,
		pc:   ipv4.NewPacketConn(conn),
	}

	// The TTL of replies is informational; platforms without
	// IP_RECVTTL simply report 0.
	_ = c.pc.SetControlMessage(ipv4.FlagTTL, true)

	if config.TTL > 0 {
		if err := c.SetTTL(config.TTL); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return c, nil
}

// WriteTo sends b to dst.
func (c *RawConn) WriteTo(b []byte, dst net.IP) error {
	if c.conn == nil {
		return ErrSocketClosed
	}
	_, err := c.conn.WriteTo(b, &net.IPAddr{IP: dst})
	return err
}

// ReadFrom reads the next ICMP message.
func (c *RawConn) ReadFrom(b []byte) (int, net.IP, int, error) {
	if c.conn == nil {
		return 0, nil, 0, ErrSocketClosed
	}

	n, cm, peer, err := c.pc.ReadFrom(b)
	if err != nil {
		if isTimeoutError(err) {
			return 0, nil, 0, ErrTimeout
		}
		return 0, nil, 0, err
	}

	ttl := 0
	if cm != nil {
		ttl = cm.TTL
	}

	return n, extractIP(peer), ttl, nil
}

// SetReadDeadline sets the deadline for future ReadFrom calls.
func (c *RawConn) SetReadDeadline(t time.Time) error {
	if c.conn == nil {
		return ErrSocketClosed
	}
	return c.pc.SetReadDeadline(t)
}

// SetTTL sets the TTL for outgoing packets.
func (c *RawConn) SetTTL(ttl int) error {
	if ttl < 1 || ttl > 255 {
		return ErrInvalidTTL
	}
	if c.conn == nil {
		return ErrSocketClosed
	}
	return c.pc.SetTTL(ttl)
}

// Close releases the socket.
func (c *RawConn) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Helper functions

func extractIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPAddr:
		return a.IP
	case *net.UDPAddr:
		return a.IP
	default:
		return nil
	}
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
