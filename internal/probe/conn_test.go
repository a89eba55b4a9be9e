package probe

import (
	"errors"
	"net"
	"os"
	"runtime"
	"testing"
	"time"
)

func TestListen(t *testing.T) {
	if !canCreateRawSocket() {
		t.Skip("Skipping: requires elevated privileges")
	}

	conn, err := Listen(SocketConfig{TTL: 64})
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer conn.Close()

	if err := conn.SetTTL(1); err != nil {
		t.Errorf("SetTTL(1) error = %v", err)
	}
}

func TestListen_InvalidTTL(t *testing.T) {
	if _, err := Listen(SocketConfig{TTL: 256}); !errors.Is(err, ErrInvalidTTL) {
		t.Errorf("Listen(TTL 256) error = %v, want ErrInvalidTTL", err)
	}
}

func TestRawConn_SetTTLRange(t *testing.T) {
	if !canCreateRawSocket() {
		t.Skip("Skipping: requires elevated privileges")
	}

	conn, err := Listen(SocketConfig{})
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer conn.Close()

	for _, ttl := range []int{0, -1, 256} {
		if err := conn.SetTTL(ttl); !errors.Is(err, ErrInvalidTTL) {
			t.Errorf("SetTTL(%d) error = %v, want ErrInvalidTTL", ttl, err)
		}
	}
}

func TestRawConn_EchoLocalhost(t *testing.T) {
	if !canCreateRawSocket() {
		t.Skip("Skipping: requires elevated privileges")
	}

	conn, err := Listen(SocketConfig{TTL: 64})
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer conn.Close()

	id := ProcessIdentifier()
	if err := conn.WriteTo(EncodeEcho(id, 1, 56, ICMPv4EchoRequest), net.IPv4(127, 0, 0, 1)); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	buf := make([]byte, 1500)
	deadline := time.Now().Add(2 * time.Second)
	if err := conn.SetReadDeadline(deadline); err != nil {
		t.Fatalf("SetReadDeadline() error = %v", err)
	}

	// The loopback interface also delivers our own request.
	for {
		n, peer, _, err := conn.ReadFrom(buf)
		if err != nil {
			t.Fatalf("ReadFrom() error = %v", err)
		}
		pkt, err := ParseICMPPacket(buf[:n])
		if err != nil || !pkt.IsEchoReply() || pkt.Identifier != id {
			continue
		}
		if !peer.Equal(net.IPv4(127, 0, 0, 1)) {
			t.Errorf("peer = %v, want 127.0.0.1", peer)
		}
		if pkt.Sequence != 1 {
			t.Errorf("Sequence = %d, want 1", pkt.Sequence)
		}
		return
	}
}

func TestRawConn_ReadTimeout(t *testing.T) {
	if !canCreateRawSocket() {
		t.Skip("Skipping: requires elevated privileges")
	}

	conn, err := Listen(SocketConfig{})
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error = %v", err)
	}

	_, _, _, err = conn.ReadFrom(make([]byte, 64))
	if !IsTimeout(err) {
		t.Errorf("ReadFrom() past deadline error = %v, want ErrTimeout", err)
	}
}

func TestRawConn_Closed(t *testing.T) {
	c := &RawConn{}

	if err := c.WriteTo([]byte{0}, net.IPv4(127, 0, 0, 1)); !errors.Is(err, ErrSocketClosed) {
		t.Errorf("WriteTo() on closed conn error = %v", err)
	}
	if _, _, _, err := c.ReadFrom(nil); !errors.Is(err, ErrSocketClosed) {
		t.Errorf("ReadFrom() on closed conn error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() twice error = %v", err)
	}
}

func TestExtractIP(t *testing.T) {
	ip := net.IPv4(10, 0, 0, 1)

	if got := extractIP(&net.IPAddr{IP: ip}); !got.Equal(ip) {
		t.Errorf("extractIP(IPAddr) = %v", got)
	}
	if got := extractIP(&net.UDPAddr{IP: ip, Port: 33434}); !got.Equal(ip) {
		t.Errorf("extractIP(UDPAddr) = %v", got)
	}
	if got := extractIP(nil); got != nil {
		t.Errorf("extractIP(nil) = %v, want nil", got)
	}
}

// canCreateRawSocket checks if we can create raw ICMP sockets.
func canCreateRawSocket() bool {
	if runtime.GOOS == "windows" {
		_, err := os.Open("\\\\.\\PHYSICALDRIVE0")
		return err == nil
	}
	return os.Getuid() == 0
}
