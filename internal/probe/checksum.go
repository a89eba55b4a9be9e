package probe

import "encoding/binary"

// checksumOffset is the position of the checksum field in an ICMP header.
const checksumOffset = 2

// Checksum calculates the Internet Checksum (RFC 1071) of data.
// The checksum field of an ICMP header must be zero before calling it.
func Checksum(data []byte) uint16 {
	return ^fold(sum(data))
}

// ValidateChecksum verifies a packet by summing it including its stored
// checksum. The packet is valid when the folded sum is all ones.
func ValidateChecksum(data []byte) bool {
	return fold(sum(data)) == 0xffff
}

// VerifyChecksum recomputes the checksum of an ICMP message with the
// checksum field zeroed and compares it to the stored value. data is not
// modified.
func VerifyChecksum(data []byte) bool {
	if len(data) < checksumOffset+2 {
		return false
	}

	stored := binary.BigEndian.Uint16(data[checksumOffset:])

	buf := make([]byte, len(data))
	copy(buf, data)
	buf[checksumOffset] = 0
	buf[checksumOffset+1] = 0

	return Checksum(buf) == stored
}

// sum adds data as big-endian 16-bit words. A trailing odd byte is padded
// with zero on the right.
func sum(data []byte) uint64 {
	var s uint64

	for i := 0; i < len(data)-1; i += 2 {
		s += uint64(data[i])<<8 | uint64(data[i+1])
	}

	if len(data)%2 == 1 {
		s += uint64(data[len(data)-1]) << 8
	}

	return s
}

// fold folds carries above bit 15 back into the low 16 bits until none remain.
func fold(s uint64) uint16 {
	for s > 0xffff {
		s = (s >> 16) + (s & 0xffff)
	}
	return uint16(s)
}
