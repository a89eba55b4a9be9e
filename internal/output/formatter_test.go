package output

import (
	"encoding/csv"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/KilimcininKorOglu/sonda/internal/ping"
	"github.com/KilimcininKorOglu/sonda/internal/stats"
	"github.com/KilimcininKorOglu/sonda/internal/trace"
)

func answered(ip string, rtt float64, icmpType uint8, reached bool) trace.ProbeResult {
	return trace.ProbeResult{IP: net.ParseIP(ip), RTT: rtt, Type: icmpType, Reached: reached}
}

// Helper function to create a sample trace result
func sampleTraceResult() *trace.TraceResult {
	return &trace.TraceResult{
		Target:      "google.com",
		ResolvedIP:  net.ParseIP("142.250.185.238"),
		Timestamp:   time.Date(2025, 12, 18, 12, 0, 0, 0, time.UTC),
		ProbeMethod: "echo",
		MaxHops:     30,
		PacketSize:  60,
		Completed:   false,
		Hops: []trace.Hop{
			{
				Number: 1,
				IP:     net.ParseIP("192.168.1.1"),
				Probes: []trace.ProbeResult{
					answered("192.168.1.1", 1.234, 11, false),
					answered("192.168.1.1", 1.456, 11, false),
					answered("192.168.1.1", 1.123, 11, false),
				},
				RTTs:        []float64{1.234, 1.456, 1.123},
				AvgRTT:      1.271,
				MinRTT:      1.123,
				MaxRTT:      1.456,
				Jitter:      0.333,
				LossPercent: 0,
				Responded:   true,
			},
			{
				Number: 2,
				IP:     net.ParseIP("10.0.0.2"),
				Probes: []trace.ProbeResult{
					answered("10.0.0.1", 5.678, 11, false),
					{RTT: -1},
					answered("10.0.0.2", 5.432, 11, false),
				},
				RTTs:        []float64{5.678, -1, 5.432},
				AvgRTT:      5.555,
				MinRTT:      5.432,
				MaxRTT:      5.678,
				Jitter:      0.246,
				LossPercent: 33.33,
				Responded:   true,
				ASN: &trace.ASNInfo{
					Number: 15169,
					Org:    "Google LLC",
				},
			},
			{
				Number:      3,
				Probes:      []trace.ProbeResult{{RTT: -1}, {RTT: -1}, {RTT: -1}},
				RTTs:        []float64{-1, -1, -1},
				LossPercent: 100,
				Responded:   false,
			},
		},
		Summary: trace.Summary{
			TotalHops:         3,
			TotalTimeMs:       5.555,
			PacketLossPercent: 44.44,
		},
	}
}

func samplePingReport() *ping.Report {
	from := net.ParseIP("192.0.2.7")
	return &ping.Report{
		Host:        "example.net",
		Addr:        from,
		Size:        56,
		Transmitted: 4,
		Received:    2,
		LossPercent: 50,
		RTT:         &stats.Summary{Min: 10, Avg: 15, Max: 20, StdDev: 7.0710678},
		Records: []ping.Record{
			{Seq: 0, Bytes: 64, From: from, TTL: 57, RTT: 10, Outcome: ping.Replied},
			{Seq: 1, Outcome: ping.Timeout, RTT: 1000, Detail: "Request timeout"},
			{Seq: 2, Bytes: 36, From: net.ParseIP("198.51.100.1"), TTL: 250, RTT: 3, Outcome: ping.ICMPError,
				Type: 3, Code: 1, Detail: "Destination Host Unreachable"},
			{Seq: 3, Bytes: 64, From: from, TTL: 57, RTT: 20, Outcome: ping.Replied},
		},
	}
}

func TestTextFormatter(t *testing.T) {
	config := Config{Colors: false}
	formatter := NewTextFormatter(config)

	data, err := formatter.Format(sampleTraceResult())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "traceroute to google.com (142.250.185.238), 30 hops max, 60 byte packets\n" +
		" 1 192.168.1.1 1.234 ms 1.456 ms 1.123 ms\n" +
		" 2 10.0.0.1 5.678 ms  * 10.0.0.2 5.432 ms  [AS15169 Google LLC]\n" +
		" 3  *  *  *\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("Format() mismatch (-want +got):\n%s", diff)
	}
}

func TestTextFormatter_NoASN(t *testing.T) {
	formatter := NewTextFormatter(Config{NoASN: true})

	line := formatter.FormatHop(&sampleTraceResult().Hops[1])
	if strings.Contains(line, "AS15169") {
		t.Errorf("FormatHop() = %q, ASN should be hidden", line)
	}
}

func TestTextFormatter_RepeatedResponder(t *testing.T) {
	formatter := NewTextFormatter(Config{})
	hop := &trace.Hop{
		Number: 12,
		Probes: []trace.ProbeResult{
			answered("203.0.113.9", 20.5, 0, true),
			{RTT: -1},
			answered("203.0.113.9", 21.25, 0, true),
		},
	}

	want := "12 203.0.113.9 20.500 ms  * 21.250 ms\n"
	if got := formatter.FormatHop(hop); got != want {
		t.Errorf("FormatHop() = %q, want %q", got, want)
	}
}

func TestTextFormatter_Ping(t *testing.T) {
	formatter := NewTextFormatter(Config{})

	data, err := formatter.FormatPing(samplePingReport())
	if err != nil {
		t.Fatalf("FormatPing() error = %v", err)
	}

	want := "PING example.net (192.0.2.7): 56 data bytes\n" +
		"64 bytes from 192.0.2.7: icmp_seq=0 ttl=57 time=10.000 ms\n" +
		"Request timeout for icmp_seq 1\n" +
		"From 198.51.100.1: icmp_seq=2 Destination Host Unreachable\n" +
		"64 bytes from 192.0.2.7: icmp_seq=3 ttl=57 time=20.000 ms\n" +
		"\n--- example.net ping statistics ---\n" +
		"4 packets transmitted, 2 packets received, 50.0% packet loss\n" +
		"round-trip min/avg/max/stddev = 10.000/15.000/20.000/7.071 ms\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("FormatPing() mismatch (-want +got):\n%s", diff)
	}
}

func TestTextFormatter_PingQuiet(t *testing.T) {
	formatter := NewTextFormatter(Config{Quiet: true})
	report := samplePingReport()

	for i := range report.Records {
		if got := formatter.FormatRecord(&report.Records[i]); got != "" {
			t.Errorf("FormatRecord(%d) = %q, want empty in quiet mode", i, got)
		}
	}
}

func TestTextFormatter_PingSummaryWithoutReplies(t *testing.T) {
	formatter := NewTextFormatter(Config{})
	report := &ping.Report{Host: "10.9.9.9", Transmitted: 3}

	want := "\n--- 10.9.9.9 ping statistics ---\n" +
		"3 packets transmitted, 0 packets received, 0.0% packet loss\n"
	report.LossPercent = 0
	got := formatter.PingSummary(report)
	if got != want {
		t.Errorf("PingSummary() = %q, want %q", got, want)
	}

	report.LossPercent = 100
	got = formatter.PingSummary(report)
	if !strings.Contains(got, "100.0% packet loss") || strings.Contains(got, "round-trip") {
		t.Errorf("PingSummary() = %q", got)
	}
}

func TestTableFormatter(t *testing.T) {
	config := Config{Colors: false}
	formatter := NewTableFormatter(config)

	result := sampleTraceResult()
	data, err := formatter.Format(result)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := string(data)

	// Check header
	if !strings.Contains(output, "Target: google.com") {
		t.Error("Output should contain target")
	}
	if !strings.Contains(output, "Method: ICMP ECHO | Max Hops: 30 | Packet: 60 bytes") {
		t.Error("Output should contain probe settings")
	}

	// Check table structure
	if !strings.Contains(output, "HOP") {
		t.Error("Output should contain HOP column")
	}
	if !strings.Contains(output, "IP ADDRESS") {
		t.Error("Output should contain IP ADDRESS column")
	}

	// Check data
	if !strings.Contains(output, "192.168.1.1") {
		t.Error("Output should contain hop IP")
	}

	// Check summary
	if !strings.Contains(output, "Total Hops") || !strings.Contains(output, "Incomplete") {
		t.Error("Output should contain summary")
	}
}

func TestTableFormatter_Ping(t *testing.T) {
	formatter := NewTableFormatter(Config{})

	data, err := formatter.FormatPing(samplePingReport())
	if err != nil {
		t.Fatalf("FormatPing() error = %v", err)
	}

	output := string(data)
	for _, want := range []string{
		"Target: example.net (192.0.2.7)",
		"SEQ", "RESULT",
		"198.51.100.1",
		"Destination Host Unreachable",
		"timeout",
		"Transmitted:   4",
		"Min/Avg/Max:   10.000/15.000/20.000 ms",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q", want)
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	config := Config{}
	formatter := NewJSONFormatter(config)

	result := sampleTraceResult()
	data, err := formatter.Format(result)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// Verify it's valid JSON
	var parsed JSONOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("JSON parsing error: %v", err)
	}

	// Check values
	if parsed.Target != "google.com" {
		t.Errorf("Target = %q, want %q", parsed.Target, "google.com")
	}
	if parsed.MaxHops != 30 || parsed.PacketSize != 60 {
		t.Errorf("MaxHops, PacketSize = %d, %d, want 30, 60", parsed.MaxHops, parsed.PacketSize)
	}

	if len(parsed.Hops) != 3 {
		t.Fatalf("len(Hops) = %d, want 3", len(parsed.Hops))
	}

	if parsed.Hops[0].IP != "192.168.1.1" {
		t.Errorf("Hops[0].IP = %q, want %q", parsed.Hops[0].IP, "192.168.1.1")
	}

	if parsed.Hops[1].ASN == nil {
		t.Error("Hops[1].ASN should not be nil")
	} else if parsed.Hops[1].ASN.Number != 15169 {
		t.Errorf("Hops[1].ASN.Number = %d, want 15169", parsed.Hops[1].ASN.Number)
	}

	wantProbes := []JSONProbe{
		{IP: "10.0.0.1", RTT: 5.678, ICMPType: "time exceeded"},
		{RTT: -1, TimedOut: true},
		{IP: "10.0.0.2", RTT: 5.432, ICMPType: "time exceeded"},
	}
	if diff := cmp.Diff(wantProbes, parsed.Hops[1].Probes); diff != "" {
		t.Errorf("Hops[1].Probes mismatch (-want +got):\n%s", diff)
	}

	if parsed.Completed {
		t.Error("Completed should be false")
	}
}

func TestJSONFormatterCompact(t *testing.T) {
	config := Config{}
	formatter := NewJSONFormatterCompact(config)

	result := sampleTraceResult()
	data, err := formatter.Format(result)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// Compact JSON should not have newlines (except in strings)
	lines := strings.Split(string(data), "\n")
	if len(lines) > 1 {
		// Allow trailing newline
		if len(lines) > 2 || lines[1] != "" {
			t.Error("Compact JSON should be on single line")
		}
	}
}

func TestJSONFormatter_Ping(t *testing.T) {
	formatter := NewJSONFormatter(Config{})

	data, err := formatter.FormatPing(samplePingReport())
	if err != nil {
		t.Fatalf("FormatPing() error = %v", err)
	}

	var parsed ping.Report
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("JSON parsing error: %v", err)
	}

	if parsed.Host != "example.net" || parsed.Transmitted != 4 || parsed.Received != 2 {
		t.Errorf("parsed report = %+v", parsed)
	}
	if parsed.RTT == nil || parsed.RTT.Avg != 15 {
		t.Errorf("RTT = %+v, want avg 15", parsed.RTT)
	}
	if len(parsed.Records) != 4 || parsed.Records[2].Outcome != ping.ICMPError {
		t.Errorf("Records = %+v", parsed.Records)
	}
	if !strings.Contains(string(data), `"outcome": "timeout"`) {
		t.Error("outcomes should be encoded by name")
	}
}

func TestJSONFormatter_PingEmptyRecords(t *testing.T) {
	formatter := NewJSONFormatterCompact(Config{})

	data, err := formatter.FormatPing(&ping.Report{Host: "h"})
	if err != nil {
		t.Fatalf("FormatPing() error = %v", err)
	}
	if !strings.Contains(string(data), `"records":[]`) {
		t.Errorf("FormatPing() = %s, records should be an empty array", data)
	}
}

func TestCSVFormatter(t *testing.T) {
	config := Config{}
	formatter := NewCSVFormatter(config)

	result := sampleTraceResult()
	data, err := formatter.Format(result)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// Parse CSV
	reader := csv.NewReader(strings.NewReader(string(data)))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("CSV parsing error: %v", err)
	}

	if diff := cmp.Diff(defaultCSVColumns, records[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	// Check data rows (header + 3 hops)
	if len(records) != 4 {
		t.Fatalf("len(records) = %d, want 4", len(records))
	}

	// Check first data row
	if records[1][0] != "1" {
		t.Errorf("Row 1 hop = %q, want %q", records[1][0], "1")
	}
	if records[1][1] != "192.168.1.1" {
		t.Errorf("Row 1 IP = %q, want %q", records[1][1], "192.168.1.1")
	}
	if records[3][1] != "*" {
		t.Errorf("Row 3 IP = %q, want %q", records[3][1], "*")
	}
}

func TestCSVFormatter_Ping(t *testing.T) {
	formatter := NewCSVFormatter(Config{})

	data, err := formatter.FormatPing(samplePingReport())
	if err != nil {
		t.Fatalf("FormatPing() error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("CSV parsing error: %v", err)
	}

	want := [][]string{
		pingCSVColumns,
		{"0", "192.0.2.7", "64", "57", "10.000", "replied", ""},
		{"1", "", "", "", "", "timeout", "Request timeout"},
		{"2", "198.51.100.1", "36", "250", "3.000", "icmp-error", "Destination Host Unreachable"},
		{"3", "192.0.2.7", "64", "57", "20.000", "replied", ""},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("FormatPing() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewFormatter(t *testing.T) {
	config := DefaultConfig()

	tests := []struct {
		format   Format
		expected string
	}{
		{FormatText, "text/plain"},
		{FormatVerbose, "text/plain"},
		{FormatJSON, "application/json"},
		{FormatCSV, "text/csv"},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			formatter := NewFormatter(tt.format, config)
			if formatter.ContentType() != tt.expected {
				t.Errorf("ContentType() = %q, want %q", formatter.ContentType(), tt.expected)
			}
		})
	}
}

func TestFormat_Streams(t *testing.T) {
	if !FormatText.Streams() {
		t.Error("text output should stream")
	}
	for _, f := range []Format{FormatVerbose, FormatJSON, FormatCSV} {
		if f.Streams() {
			t.Errorf("%s output should not stream", f)
		}
	}
}

func TestWriter_WritePing(t *testing.T) {
	var buf strings.Builder
	w := NewWriterWithFormatter(NewTextFormatter(Config{}), &buf)

	if w.IsTTY() {
		t.Error("a strings.Builder is not a terminal")
	}
	if err := w.WriteString(""); err != nil {
		t.Fatalf("WriteString() error = %v", err)
	}
	if err := w.WritePing(samplePingReport()); err != nil {
		t.Fatalf("WritePing() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "PING example.net") {
		t.Errorf("written = %q", buf.String())
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a long string", 10, "this is..."},
		{"", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := truncateString(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		input     float64
		precision int
		expected  float64
	}{
		{1.2345, 2, 1.23},
		{1.2355, 2, 1.24},
		{1.5, 0, 2},
		{1.4, 0, 1},
		{1.23456789, 3, 1.235},
	}

	for _, tt := range tests {
		result := roundFloat(tt.input, tt.precision)
		if result != tt.expected {
			t.Errorf("roundFloat(%v, %d) = %v, want %v",
				tt.input, tt.precision, result, tt.expected)
		}
	}
}
