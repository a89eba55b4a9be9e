package output

import (
	"bytes"
	"fmt"
	"net"

	"github.com/fatih/color"

	"github.com/KilimcininKorOglu/sonda/internal/ping"
	"github.com/KilimcininKorOglu/sonda/internal/trace"
)

// TextFormatter formats results in classic ping and traceroute style.
type TextFormatter struct {
	config Config
	colors *ColorScheme
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(config Config) *TextFormatter {
	var colors *ColorScheme
	if config.Colors {
		colors = DefaultColorScheme()
	}

	return &TextFormatter{
		config: config,
		colors: colors,
	}
}

// Format formats the trace result as classic traceroute text output.
func (f *TextFormatter) Format(result *trace.TraceResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(f.TraceHeader(result.Target, result.ResolvedIP, result.MaxHops, result.PacketSize))
	for _, hop := range result.Hops {
		f.formatHop(&buf, &hop)
	}

	return buf.Bytes(), nil
}

// TraceHeader returns the first line of a traceroute. packetSize includes
// the IP header.
func (f *TextFormatter) TraceHeader(target string, ip net.IP, maxHops, packetSize int) string {
	return fmt.Sprintf("traceroute to %s (%s), %d hops max, %d byte packets\n",
		target, ip, maxHops, packetSize)
}

// FormatHop formats a single hop and returns it as a string.
// This can be used for streaming output.
func (f *TextFormatter) FormatHop(hop *trace.Hop) string {
	var buf bytes.Buffer
	f.formatHop(&buf, hop)
	return buf.String()
}

// formatHop formats a single hop line: the hop number, then per probe
// either a miss marker or the responder address (printed only when it
// differs from the previous answer of the same hop) and the RTT.
func (f *TextFormatter) formatHop(buf *bytes.Buffer, hop *trace.Hop) {
	hopNum := fmt.Sprintf("%2d", hop.Number)
	if f.colors != nil {
		hopNum = f.colors.Hop.Sprint(hopNum)
	}
	buf.WriteString(hopNum)

	var prev net.IP
	for _, p := range hop.Probes {
		if p.TimedOut() {
			buf.WriteString("  ")
			buf.WriteString(f.paint(f.timeoutColor(), "*"))
			continue
		}

		if prev == nil || !prev.Equal(p.IP) {
			buf.WriteString(" ")
			buf.WriteString(f.paint(f.ipColor(), p.IP.String()))
		}
		prev = p.IP

		buf.WriteString(" ")
		buf.WriteString(f.colorizeRTT(p.RTT))
	}

	// ASN info (if available and not disabled)
	if hop.ASN != nil && !f.config.NoASN {
		asnStr := fmt.Sprintf("  [AS%d %s]", hop.ASN.Number, truncateString(hop.ASN.Org, 20))
		if f.colors != nil {
			asnStr = f.colors.ASN.Sprint(asnStr)
		}
		buf.WriteString(asnStr)
	}

	buf.WriteString("\n")
}

// FormatPing formats a whole echo run the way it is printed live.
func (f *TextFormatter) FormatPing(report *ping.Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(f.PingHeader(report.Host, report.Addr, report.Size))
	for i := range report.Records {
		buf.WriteString(f.FormatRecord(&report.Records[i]))
	}
	buf.WriteString(f.PingSummary(report))

	return buf.Bytes(), nil
}

// PingHeader returns the first line of an echo run.
func (f *TextFormatter) PingHeader(host string, ip net.IP, size int) string {
	header := fmt.Sprintf("PING %s (%s): %d data bytes", host, ip, size)
	if f.colors != nil {
		header = f.colors.Header.Sprint(header)
	}
	return header + "\n"
}

// FormatRecord returns the line for one echo request, or nothing in quiet
// mode.
func (f *TextFormatter) FormatRecord(rec *ping.Record) string {
	if f.config.Quiet {
		return ""
	}

	switch rec.Outcome {
	case ping.Replied:
		return fmt.Sprintf("%d bytes from %s: icmp_seq=%d ttl=%d time=%s\n",
			rec.Bytes, f.paint(f.ipColor(), rec.From.String()), rec.Seq, rec.TTL, f.colorizeRTT(rec.RTT))
	case ping.Timeout:
		return f.paint(f.timeoutColor(), fmt.Sprintf("Request timeout for icmp_seq %d", rec.Seq)) + "\n"
	default:
		return fmt.Sprintf("From %s: icmp_seq=%d %s\n",
			f.paint(f.ipColor(), rec.From.String()), rec.Seq, f.paint(f.errorColor(), rec.Detail))
	}
}

// PingSummary returns the statistics block printed when a run ends.
func (f *TextFormatter) PingSummary(report *ping.Report) string {
	var buf bytes.Buffer

	title := fmt.Sprintf("--- %s ping statistics ---", report.Host)
	if f.colors != nil {
		title = f.colors.Header.Sprint(title)
	}
	fmt.Fprintf(&buf, "\n%s\n", title)

	fmt.Fprintf(&buf, "%d packets transmitted, %d packets received, %.1f%% packet loss\n",
		report.Transmitted, report.Received, report.LossPercent)

	if report.RTT != nil {
		fmt.Fprintf(&buf, "round-trip min/avg/max/stddev = %.3f/%.3f/%.3f/%.3f ms\n",
			report.RTT.Min, report.RTT.Avg, report.RTT.Max, report.RTT.StdDev)
	}

	return buf.String()
}

// colorizeRTT returns a colored RTT string based on latency thresholds.
func (f *TextFormatter) colorizeRTT(rtt float64) string {
	str := fmt.Sprintf("%.3f ms", rtt)
	if f.colors == nil {
		return str
	}

	switch {
	case rtt < 50:
		return f.colors.RTTLow.Sprint(str)
	case rtt < 150:
		return f.colors.RTTMed.Sprint(str)
	default:
		return f.colors.RTTHigh.Sprint(str)
	}
}

func (f *TextFormatter) paint(c *color.Color, s string) string {
	if c == nil {
		return s
	}
	return c.Sprint(s)
}

func (f *TextFormatter) ipColor() *color.Color {
	if f.colors == nil {
		return nil
	}
	return f.colors.IP
}

func (f *TextFormatter) timeoutColor() *color.Color {
	if f.colors == nil {
		return nil
	}
	return f.colors.Timeout
}

func (f *TextFormatter) errorColor() *color.Color {
	if f.colors == nil {
		return nil
	}
	return f.colors.Error
}

// ContentType returns the MIME type for text output.
func (f *TextFormatter) ContentType() string {
	return "text/plain"
}

// FileExtension returns the file extension for text output.
func (f *TextFormatter) FileExtension() string {
	return "txt"
}

// ColorScheme defines colors for different output elements.
type ColorScheme struct {
	Hop     *color.Color
	IP      *color.Color
	RTTLow  *color.Color // < 50ms
	RTTMed  *color.Color // 50-150ms
	RTTHigh *color.Color // > 150ms
	Timeout *color.Color
	Error   *color.Color
	ASN     *color.Color
	Geo     *color.Color
	Header  *color.Color
}

// DefaultColorScheme returns the default color scheme.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Hop:     color.New(color.FgCyan, color.Bold),
		IP:      color.New(color.FgWhite),
		RTTLow:  color.New(color.FgGreen),
		RTTMed:  color.New(color.FgYellow),
		RTTHigh: color.New(color.FgRed),
		Timeout: color.New(color.FgRed, color.Bold),
		Error:   color.New(color.FgYellow, color.Bold),
		ASN:     color.New(color.FgMagenta),
		Geo:     color.New(color.FgBlue),
		Header:  color.New(color.FgWhite, color.Bold),
	}
}

// Helper functions

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
