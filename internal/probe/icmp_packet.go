package probe

import (
	"encoding/binary"
	"os"
)

// ICMP message types for IPv4
const (
	ICMPv4EchoReply        = 0
	ICMPv4Unreachable      = 3
	ICMPv4SourceQuench     = 4
	ICMPv4Redirect         = 5
	ICMPv4EchoRequest      = 8
	ICMPv4TimeExceeded     = 11
	ICMPv4ParameterProblem = 12
	ICMPv4Timestamp        = 13
	ICMPv4TimestampReply   = 14
)

// ICMP unreachable codes
const (
	ICMPv4NetUnreachable      = 0
	ICMPv4HostUnreachable     = 1
	ICMPv4ProtocolUnreachable = 2
	ICMPv4PortUnreachable     = 3
)

const (
	// HeaderLen is the size of an ICMP echo header.
	HeaderLen = 8

	// IPv4HeaderLen is the size of an IPv4 header without options.
	IPv4HeaderLen = 20
)

// ICMPPacket represents a decoded or to-be-encoded ICMP message.
// Identifier and Sequence are only meaningful for echo messages.
type ICMPPacket struct {
	Type       uint8
	Code       uint8
	Checksum   uint16
	Identifier uint16
	Sequence   uint16
	Payload    []byte
}

// NewICMPEchoRequest creates a new ICMP Echo Request packet.
func NewICMPEchoRequest(id, seq uint16, payload []byte) *ICMPPacket {
	return &ICMPPacket{
		Type:       ICMPv4EchoRequest,
		Code:       0,
		Identifier: id,
		Sequence:   seq,
		Payload:    payload,
	}
}

// Marshal serializes the ICMP packet to bytes, calculating the checksum.
func (p *ICMPPacket) Marshal() ([]byte, error) {
	buf := make([]byte, HeaderLen+len(p.Payload))

	buf[0] = p.Type
	buf[1] = p.Code
	// Checksum at bytes 2-3 stays 0 for calculation
	binary.BigEndian.PutUint16(buf[4:6], p.Identifier)
	binary.BigEndian.PutUint16(buf[6:8], p.Sequence)

	if len(p.Payload) > 0 {
		copy(buf[HeaderLen:], p.Payload)
	}

	p.Checksum = Checksum(buf)
	binary.BigEndian.PutUint16(buf[2:4], p.Checksum)

	return buf, nil
}

// ParseICMPPacket parses an ICMP message from bytes.
func ParseICMPPacket(data []byte) (*ICMPPacket, error) {
	if len(data) < HeaderLen {
		return nil, ErrInvalidPacket
	}

	p := &ICMPPacket{
		Type:       data[0],
		Code:       data[1],
		Checksum:   binary.BigEndian.Uint16(data[2:4]),
		Identifier: binary.BigEndian.Uint16(data[4:6]),
		Sequence:   binary.BigEndian.Uint16(data[6:8]),
	}

	if len(data) > HeaderLen {
		p.Payload = make([]byte, len(data)-HeaderLen)
		copy(p.Payload, data[HeaderLen:])
	}

	return p, nil
}

// EchoPayload returns size bytes of printable filler cycling 'a'..'z'.
func EchoPayload(size int) []byte {
	if size <= 0 {
		return nil
	}
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = 'a' + byte(i%26)
	}
	return payload
}

// EncodeEcho builds a complete echo message of the given ICMP type with a
// payload of payloadSize filler bytes and a valid checksum.
func EncodeEcho(id, seq uint16, payloadSize int, icmpType uint8) []byte {
	p := NewICMPEchoRequest(id, seq, EchoPayload(payloadSize))
	p.Type = icmpType
	buf, _ := p.Marshal()
	return buf
}

// ProcessIdentifier returns the process ID truncated to 16 bits. It tags
// outgoing probes so replies can be told apart from those of other
// processes reading the same raw ICMP traffic.
func ProcessIdentifier() uint16 {
	return uint16(os.Getpid() & 0xffff)
}

// QuotedHeader extracts the type, identifier and sequence of the ICMP
// header quoted in the body of an ICMP error message (original IPv4 header
// followed by the first 8 bytes of the original datagram). body starts
// after the 8-byte ICMP error header.
func QuotedHeader(body []byte) (icmpType uint8, id, seq uint16, ok bool) {
	if len(body) < IPv4HeaderLen+HeaderLen {
		return 0, 0, 0, false
	}

	ipHeaderLen := int(body[0]&0x0f) * 4
	if ipHeaderLen < IPv4HeaderLen || len(body) < ipHeaderLen+HeaderLen {
		return 0, 0, 0, false
	}

	inner := body[ipHeaderLen:]
	return inner[0], binary.BigEndian.Uint16(inner[4:6]), binary.BigEndian.Uint16(inner[6:8]), true
}

// QuotedEcho is QuotedHeader restricted to quoted echo requests.
func QuotedEcho(body []byte) (id, seq uint16, ok bool) {
	icmpType, id, seq, ok := QuotedHeader(body)
	if !ok || icmpType != ICMPv4EchoRequest {
		return 0, 0, false
	}
	return id, seq, true
}

// IsError reports whether t is an ICMP error message type, whose body
// quotes the datagram that caused it.
func IsError(t uint8) bool {
	switch t {
	case ICMPv4Unreachable, ICMPv4SourceQuench, ICMPv4Redirect, ICMPv4TimeExceeded, ICMPv4ParameterProblem:
		return true
	}
	return false
}

// IsEchoReply checks if this is an ICMP Echo Reply.
func (p *ICMPPacket) IsEchoReply() bool {
	return p.Type == ICMPv4EchoReply
}
