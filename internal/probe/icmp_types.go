package probe

import (
	"golang.org/x/net/ipv4"
)

// Descriptions of ICMP error messages, keyed by type then code.
var icmpErrorText = map[uint8]map[uint8]string{
	ICMPv4Unreachable: {
		0:  "Net Unreachable",
		1:  "Host Unreachable",
		2:  "Protocol Unreachable",
		3:  "Port Unreachable",
		4:  "Fragmentation Needed and Don't Fragment was Set",
		5:  "Source Route Failed",
		6:  "Destination Network Unknown",
		7:  "Destination Host Unknown",
		8:  "Source Host Isolated",
		9:  "Communication with Destination Network is Administratively Prohibited",
		10: "Communication with Destination Host is Administratively Prohibited",
		11: "Destination Network Unreachable for Type of Service",
		12: "Destination Host Unreachable for Type of Service",
		13: "Communication Administratively Prohibited",
		14: "Host Precedence Violation",
		15: "Precedence cutoff in effect",
	},
	ICMPv4Redirect: {
		0: "Redirect for Destination Network",
		1: "Redirect for Destination Host",
		2: "Redirect for Destination Network Based on Type-of-Service",
		3: "Redirect for Destination Host Based on Type-of-Service",
	},
	ICMPv4TimeExceeded: {
		0: "Time-to-Live Exceeded in Transit",
		1: "Fragment Reassembly Time Exceeded",
	},
	ICMPv4ParameterProblem: {
		0: "Pointer indicates the error",
		1: "Missing a Required Option",
		2: "Bad Length",
	},
}

// Fallback descriptions for codes missing from icmpErrorText.
var icmpTypeText = map[uint8]string{
	ICMPv4Unreachable:      "Destination unreachable",
	ICMPv4SourceQuench:     "Source Quench",
	ICMPv4Redirect:         "Redirect",
	ICMPv4TimeExceeded:     "Time Exceeded",
	ICMPv4ParameterProblem: "Parameter Problem",
}

// DescribeError returns a human-readable description of an ICMP message
// that is not an echo reply.
func DescribeError(icmpType, code uint8) string {
	if codes, ok := icmpErrorText[icmpType]; ok {
		if text, ok := codes[code]; ok {
			return text
		}
	}
	if text, ok := icmpTypeText[icmpType]; ok {
		return text
	}
	return "Unknown Error"
}

// TypeName returns the IANA name of an ICMPv4 message type.
func TypeName(icmpType uint8) string {
	return ipv4.ICMPType(icmpType).String()
}
