// Package tui provides an interactive terminal UI for traceroute.
package tui

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/KilimcininKorOglu/sonda/internal/trace"
)

// State represents the current state of the TUI.
type State int

const (
	StateRunning State = iota
	StateComplete
	StateError
)

// TraceFunc runs a trace and reports hops through the channel the model
// was created with.
type TraceFunc func(ctx context.Context) (*trace.TraceResult, error)

// Model is the Bubble Tea model for the traceroute TUI.
type Model struct {
	// Configuration
	target  string
	dest    net.IP
	maxHops int
	method  string
	width   int
	height  int

	// State
	state     State
	hops      []trace.Hop
	result    *trace.TraceResult
	err       error
	elapsed   time.Duration
	startTime time.Time

	// UI components
	spinner spinner.Model

	// Styles
	styles Styles

	// Trace plumbing
	run     TraceFunc
	ctx     context.Context
	cancel  context.CancelFunc
	hopChan chan trace.Hop
	done    chan struct{}
}

// HopMsg is sent when a new hop is discovered.
type HopMsg struct {
	Hop trace.Hop
}

// CompleteMsg is sent when the trace is complete.
type CompleteMsg struct {
	Result *trace.TraceResult
}

// ErrorMsg is sent when the trace fails. Result holds the hops finished
// before a cancellation, if any.
type ErrorMsg struct {
	Err    error
	Result *trace.TraceResult
}

// TickMsg is sent to update elapsed time.
type TickMsg time.Time

// New creates a new TUI model. run is started by Init; the hops it
// discovers must be passed to Observe.
func New(ctx context.Context, target string, dest net.IP, config *trace.Config, run TraceFunc) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ctx, cancel := context.WithCancel(ctx)

	return &Model{
		target:    target,
		dest:      dest,
		maxHops:   config.MaxHops,
		method:    trace.ProbeMethod(config.ProbeType),
		state:     StateRunning,
		hops:      make([]trace.Hop, 0, config.MaxHops),
		spinner:   s,
		styles:    DefaultStyles(),
		width:     80,
		height:    24,
		startTime: time.Now(),
		run:       run,
		ctx:       ctx,
		cancel:    cancel,
		// One slot per possible hop, so the tracer never blocks on the UI.
		hopChan: make(chan trace.Hop, trace.MaxTTL),
		done:    make(chan struct{}),
	}
}

// Observe queues a finished hop for display. It is meant to be used as
// trace.Config.OnHop.
func (m *Model) Observe(hop *trace.Hop) {
	select {
	case m.hopChan <- *hop:
	default:
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.runTrace(),
		m.tickCmd(),
		m.waitForHop(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		m.elapsed = time.Since(m.startTime)
		if m.state == StateRunning {
			return m, m.tickCmd()
		}

	case HopMsg:
		if n := len(m.hops); n == 0 || msg.Hop.Number > m.hops[n-1].Number {
			m.hops = append(m.hops, msg.Hop)
		}
		// Continue waiting for more hops
		return m, m.waitForHop()

	case CompleteMsg:
		m.state = StateComplete
		m.result = msg.Result
		// Hops arrived one by one; the result only fills in what was missed.
		if msg.Result != nil && len(msg.Result.Hops) > len(m.hops) {
			m.hops = msg.Result.Hops
		}

	case ErrorMsg:
		m.state = StateError
		m.err = msg.Err
		m.result = msg.Result
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	// Hop table
	b.WriteString(m.renderHops())

	// Footer
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the header section.
func (m Model) renderHeader() string {
	title := m.styles.Title.Render("sonda traceroute")

	var status string
	switch m.state {
	case StateRunning:
		status = m.spinner.View() + " Tracing..."
	case StateComplete:
		if m.result != nil && m.result.Completed {
			status = m.styles.Success.Render("✓ Destination reached")
		} else {
			status = m.styles.Warning.Render("✓ Max hops exhausted")
		}
	case StateError:
		status = m.styles.Error.Render("✗ " + m.err.Error())
	}

	info := fmt.Sprintf("Target: %s (%s) | Method: ICMP %s | Max Hops: %d",
		m.target, m.dest, m.method, m.maxHops)

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.styles.Subtle.Render(info),
		status,
	)
}

// renderHops renders the hop table.
func (m Model) renderHops() string {
	if len(m.hops) == 0 {
		return m.styles.Subtle.Render("Waiting for responses...")
	}

	var rows []string

	// Header row
	header := fmt.Sprintf("%-4s %-15s %-26s %-10s %-6s %s",
		"Hop", "IP", "Probes", "Avg", "Loss", "ASN")
	rows = append(rows, m.styles.Header.Render(header))

	// Separator
	rows = append(rows, m.styles.Subtle.Render(strings.Repeat("─", 80)))

	// Hop rows
	for _, hop := range m.hops {
		rows = append(rows, m.renderHopRow(hop))
	}

	return strings.Join(rows, "\n")
}

// renderHopRow renders a single hop row.
func (m Model) renderHopRow(hop trace.Hop) string {
	hopNum := fmt.Sprintf("%-4d", hop.Number)

	ip, avg, loss, asn := "*", "*", "*", ""
	if hop.Responded {
		ip = hop.IP.String()
		avg = fmt.Sprintf("%.2f ms", hop.AvgRTT)
		loss = fmt.Sprintf("%.0f%%", hop.LossPercent)
	}
	if hop.ASN != nil {
		asn = fmt.Sprintf("AS%d %s", hop.ASN.Number, truncate(hop.ASN.Org, 20))
	}

	probes := make([]string, len(hop.Probes))
	for i, p := range hop.Probes {
		if p.TimedOut() {
			probes[i] = "*"
		} else {
			probes[i] = fmt.Sprintf("%.2f", p.RTT)
		}
	}

	ipCol := fmt.Sprintf("%-15s", truncate(ip, 15))
	if !hop.Responded {
		ipCol = m.styles.Timeout.Render(ipCol)
	} else {
		ipCol = m.styles.IP.Render(ipCol)
	}

	return fmt.Sprintf("%s %s %-26s %s %-6s %s",
		m.styles.HopNum.Render(hopNum),
		ipCol,
		truncate(strings.Join(probes, " "), 26),
		m.colorizeRTT(fmt.Sprintf("%-10s", avg), hop.AvgRTT, hop.Responded),
		loss,
		m.styles.ASN.Render(asn),
	)
}

// colorizeRTT applies color based on latency.
func (m Model) colorizeRTT(s string, rtt float64, responded bool) string {
	if !responded {
		return m.styles.Subtle.Render(s)
	}

	switch {
	case rtt < 50:
		return m.styles.RTTLow.Render(s)
	case rtt < 150:
		return m.styles.RTTMed.Render(s)
	default:
		return m.styles.RTTHigh.Render(s)
	}
}

// renderFooter renders the footer section.
func (m Model) renderFooter() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Elapsed: %s", m.elapsed.Round(100*time.Millisecond)))
	if m.state == StateComplete && m.result != nil {
		parts = append(parts, fmt.Sprintf("Hops: %d", m.result.Summary.TotalHops))
		parts = append(parts, fmt.Sprintf("Total: %.2f ms", m.result.Summary.TotalTimeMs))
	}

	parts = append(parts, "Press 'q' to quit")

	return m.styles.Subtle.Render(strings.Join(parts, " | "))
}

// runTrace runs the traceroute in the background.
func (m Model) runTrace() tea.Cmd {
	return func() tea.Msg {
		defer close(m.done)

		result, err := m.run(m.ctx)
		if err != nil {
			return ErrorMsg{Err: err, Result: result}
		}
		return CompleteMsg{Result: result}
	}
}

// waitForHop waits for a hop from the channel.
func (m Model) waitForHop() tea.Cmd {
	return func() tea.Msg {
		// Queued hops are delivered even after the trace has finished.
		select {
		case hop := <-m.hopChan:
			return HopMsg{Hop: hop}
		default:
		}

		select {
		case hop := <-m.hopChan:
			return HopMsg{Hop: hop}
		case <-m.done:
			return nil
		}
	}
}

// tickCmd returns a command that sends tick messages.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// truncate truncates a string to maxLen.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
