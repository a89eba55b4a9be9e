package probetest

import (
	"encoding/binary"
	"net"

	"golang.org/x/net/ipv4"

	"github.com/KilimcininKorOglu/sonda/internal/probe"
)

// EchoReply turns an echo request into the matching echo reply.
func EchoReply(req []byte) []byte {
	reply := append([]byte(nil), req...)
	reply[0] = probe.ICMPv4EchoReply
	reply[1] = 0
	return Resum(reply)
}

// TimeExceeded builds the Time Exceeded message a router at src returns
// when req, sent to dst, expires in transit.
func TimeExceeded(req []byte, src, dst net.IP) []byte {
	return errorMessage(probe.ICMPv4TimeExceeded, 0, req, src, dst)
}

// Unreachable builds a Destination Unreachable message quoting req.
func Unreachable(code uint8, req []byte, src, dst net.IP) []byte {
	return errorMessage(probe.ICMPv4Unreachable, code, req, src, dst)
}

// Resum recomputes the checksum of an ICMP message in place.
func Resum(msg []byte) []byte {
	msg[2], msg[3] = 0, 0
	binary.BigEndian.PutUint16(msg[2:4], probe.Checksum(msg))
	return msg
}

// errorMessage builds an ICMP error carrying the original IPv4 header and
// the first 8 bytes of the original datagram.
func errorMessage(icmpType, code uint8, req []byte, src, dst net.IP) []byte {
	quoted := req
	if len(quoted) > probe.HeaderLen {
		quoted = quoted[:probe.HeaderLen]
	}

	h := &ipv4.Header{
		Version:  ipv4.Version,
		Len:      ipv4.HeaderLen,
		TotalLen: ipv4.HeaderLen + len(req),
		TTL:      1,
		Protocol: 1,
		Src:      src,
		Dst:      dst,
	}
	ip, err := h.Marshal()
	if err != nil {
		panic(err)
	}

	msg := make([]byte, probe.HeaderLen, probe.HeaderLen+len(ip)+len(quoted))
	msg[0] = icmpType
	msg[1] = code
	msg = append(msg, ip...)
	msg = append(msg, quoted...)
	return Resum(msg)
}
