package ping

import (
	"fmt"
	"net"

	"github.com/KilimcininKorOglu/sonda/internal/stats"
)

// Outcome classifies what came back for one echo request.
type Outcome int

const (
	// Replied is a fully validated echo reply
	Replied Outcome = iota
	// ICMPError is any ICMP message other than an echo reply
	ICMPError
	// ChecksumMismatch is a reply whose checksum does not verify
	ChecksumMismatch
	// BadCode is an echo reply with a non-zero code
	BadCode
	// WrongID is an echo reply carrying another identifier
	WrongID
	// ShortPacket is a reply shorter than the request
	ShortPacket
	// ContentMismatch is a reply whose payload differs from the request
	ContentMismatch
	// Timeout means nothing arrived before the receive deadline
	Timeout
)

var outcomeNames = [...]string{
	Replied:          "replied",
	ICMPError:        "icmp-error",
	ChecksumMismatch: "checksum-mismatch",
	BadCode:          "bad-code",
	WrongID:          "wrong-id",
	ShortPacket:      "short-packet",
	ContentMismatch:  "content-mismatch",
	Timeout:          "timeout",
}

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(text []byte) error {
	for i, name := range outcomeNames {
		if name == string(text) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// Record is the result of one echo request.
type Record struct {
	Seq     int     `json:"seq"`
	Bytes   int     `json:"bytes"`
	From    net.IP  `json:"from,omitempty"`
	TTL     int     `json:"ttl"`
	RTT     float64 `json:"rtt_ms"`
	Outcome Outcome `json:"outcome"`

	// ICMP type and code of the reply, when one arrived.
	Type uint8 `json:"icmp_type"`
	Code uint8 `json:"icmp_code"`

	// Detail is a human-readable reason for anything but Replied.
	Detail string `json:"detail,omitempty"`
}

// Received reports whether the request was acknowledged by a valid reply.
func (r *Record) Received() bool {
	return r.Outcome == Replied
}

// Report summarizes an echo run.
type Report struct {
	Host        string         `json:"host"`
	Addr        net.IP         `json:"addr"`
	Size        int            `json:"size"`
	Transmitted int            `json:"transmitted"`
	Received    int            `json:"received"`
	LossPercent float64        `json:"loss_percent"`
	RTT         *stats.Summary `json:"rtt,omitempty"`
	Records     []Record       `json:"records"`
	Interrupted bool           `json:"interrupted"`
}
