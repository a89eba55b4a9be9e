package probe

import "testing"

func TestDescribeError(t *testing.T) {
	tests := []struct {
		icmpType uint8
		code     uint8
		want     string
	}{
		{ICMPv4Unreachable, 0, "Net Unreachable"},
		{ICMPv4Unreachable, 3, "Port Unreachable"},
		{ICMPv4Unreachable, 13, "Communication Administratively Prohibited"},
		{ICMPv4Unreachable, 99, "Destination unreachable"},
		{ICMPv4SourceQuench, 0, "Source Quench"},
		{ICMPv4Redirect, 1, "Redirect for Destination Host"},
		{ICMPv4Redirect, 9, "Redirect"},
		{ICMPv4TimeExceeded, 0, "Time-to-Live Exceeded in Transit"},
		{ICMPv4TimeExceeded, 1, "Fragment Reassembly Time Exceeded"},
		{ICMPv4ParameterProblem, 2, "Bad Length"},
		{ICMPv4ParameterProblem, 7, "Parameter Problem"},
		{42, 0, "Unknown Error"},
	}

	for _, tt := range tests {
		if got := DescribeError(tt.icmpType, tt.code); got != tt.want {
			t.Errorf("DescribeError(%d, %d) = %q, want %q", tt.icmpType, tt.code, got, tt.want)
		}
	}
}

func TestTypeName(t *testing.T) {
	if got := TypeName(ICMPv4EchoReply); got != "echo reply" {
		t.Errorf("TypeName(0) = %q, want %q", got, "echo reply")
	}
	if got := TypeName(ICMPv4TimeExceeded); got != "time exceeded" {
		t.Errorf("TypeName(11) = %q, want %q", got, "time exceeded")
	}
}
