// Package trace provides traceroute functionality.
package trace

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/KilimcininKorOglu/sonda/internal/probe"
)

// protocolICMP is the IANA protocol number passed to icmp.ParseMessage.
const protocolICMP = 1

const recvBufferSize = 1500

// Tracer performs network path tracing operations.
type Tracer struct {
	config *Config
	conn   probe.Conn
	logger *log.Logger
	id     uint16
	seq    uint16
	buf    []byte
}

// New creates a new Tracer that probes over conn. The tracer changes the
// TTL of conn between hops but does not close it.
func New(config *Config, conn probe.Conn, logger *log.Logger) (*Tracer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &Tracer{
		config: config,
		conn:   conn,
		logger: logger,
		id:     config.identifier(),
		buf:    make([]byte, recvBufferSize),
	}, nil
}

// Identifier returns the identifier carried by outgoing probes.
func (t *Tracer) Identifier() uint16 {
	return t.id
}

// Trace discovers the path to dest. target is the name the user asked for
// and is only reported. Reaching MaxHops without an answer from dest is a
// normal completion. When ctx is cancelled between probes, the hops
// finished so far are returned together with the context error.
func (t *Tracer) Trace(ctx context.Context, target string, dest net.IP) (*TraceResult, error) {
	if dest == nil || dest.To4() == nil {
		return nil, ErrNoDestination
	}

	hops, err := t.traceSequential(ctx, dest)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	return t.buildResult(target, dest, hops), err
}

// traceSequential performs a sequential traceroute.
func (t *Tracer) traceSequential(ctx context.Context, dest net.IP) ([]Hop, error) {
	hops := make([]Hop, 0, t.config.MaxHops-t.config.FirstHop+1)

	for ttl := t.config.FirstHop; ttl <= t.config.MaxHops; ttl++ {
		if err := ctx.Err(); err != nil {
			return hops, err
		}

		if err := t.conn.SetTTL(ttl); err != nil {
			return hops, fmt.Errorf("failed to set ttl %d: %w", ttl, err)
		}
		t.logger.WithField("ttl", ttl).Debug("probing hop")

		hop, err := t.probeHop(ctx, dest, ttl)
		if err != nil {
			return hops, err
		}

		if t.config.Enricher != nil && hop.Responded {
			t.config.Enricher.EnrichHop(hop)
		}

		hops = append(hops, *hop)

		if t.config.OnHop != nil {
			t.config.OnHop(hop)
		}

		if hop.Reached {
			t.logger.WithFields(log.Fields{"ttl": ttl, "ip": hop.IP}).Debug("destination reached")
			break
		}
	}

	return hops, nil
}

// probeHop sends ProbeCount probes one after another with the current TTL
// and aggregates the results.
func (t *Tracer) probeHop(ctx context.Context, dest net.IP, ttl int) (*Hop, error) {
	hop := &Hop{
		Number: ttl,
		Probes: make([]ProbeResult, 0, t.config.ProbeCount),
		RTTs:   make([]float64, 0, t.config.ProbeCount),
	}

	reached := true
	successCount := 0

	for i := 0; i < t.config.ProbeCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := t.probeOnce(dest)
		if err != nil {
			return nil, err
		}

		hop.Probes = append(hop.Probes, *result)
		hop.RTTs = append(hop.RTTs, result.RTT)

		if result.TimedOut() {
			reached = false
			continue
		}
		successCount++
		hop.IP = result.IP
		if !result.Reached {
			reached = false
		}
	}

	hop.Responded = successCount > 0
	hop.Reached = reached && successCount > 0

	// Calculate statistics
	hop.AvgRTT, hop.MinRTT, hop.MaxRTT, hop.Jitter = calculateRTTStats(hop.RTTs)
	hop.LossPercent = calculateLossPercent(hop.RTTs)

	return hop, nil
}

// probeOnce sends one probe and waits for the reply that belongs to it.
// A timeout is a result, not an error.
func (t *Tracer) probeOnce(dest net.IP) (*ProbeResult, error) {
	t.seq++
	seq := t.seq
	msg := probe.EncodeEcho(t.id, seq, t.config.PacketSize-probe.HeaderLen, t.config.ProbeType)

	timer := probe.StartTimer()
	if err := t.conn.WriteTo(msg, dest); err != nil {
		return nil, fmt.Errorf("failed to send probe: %w", err)
	}
	if err := t.conn.SetReadDeadline(timer.Start().Add(t.config.Timeout)); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}

	for {
		n, from, _, err := t.conn.ReadFrom(t.buf)
		if probe.IsTimeout(err) {
			return &ProbeResult{RTT: -1}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to receive reply: %w", err)
		}

		data := t.buf[:n]
		icmpType, code, ok := t.match(data, seq)
		if !ok {
			continue
		}

		return &ProbeResult{
			IP:      from,
			RTT:     timer.ElapsedMs(),
			Type:    icmpType,
			Code:    code,
			Reached: !isIntermediate(icmpType, code),
		}, nil
	}
}

// match reports whether data answers the probe with sequence seq: either a
// reply carrying our identifier, or an ICMP error quoting our probe.
// Anything else is traffic of another process sharing the raw socket.
func (t *Tracer) match(data []byte, seq uint16) (icmpType, code uint8, ok bool) {
	if !probe.VerifyChecksum(data) {
		t.logger.WithField("bytes", len(data)).Trace("skipping datagram with invalid checksum")
		return 0, 0, false
	}

	msg, err := icmp.ParseMessage(protocolICMP, data)
	if err != nil {
		t.logger.WithError(err).Trace("skipping unparsable datagram")
		return 0, 0, false
	}

	typ, isV4 := msg.Type.(ipv4.ICMPType)
	if !isV4 {
		return 0, 0, false
	}
	icmpType, code = uint8(typ), uint8(msg.Code)

	var quoted []byte
	switch body := msg.Body.(type) {
	case *icmp.TimeExceeded:
		quoted = body.Data
	case *icmp.DstUnreach:
		quoted = body.Data
	case *icmp.ParamProb:
		quoted = body.Data
	}

	if probe.IsError(icmpType) {
		if quoted == nil && len(data) > probe.HeaderLen {
			quoted = data[probe.HeaderLen:]
		}
		qType, qID, qSeq, found := probe.QuotedHeader(quoted)
		if !found || qType != t.config.ProbeType || qID != t.id || qSeq != seq {
			t.logger.WithField("type", probe.TypeName(icmpType)).Trace("skipping error for another probe")
			return 0, 0, false
		}
		return icmpType, code, true
	}

	// Requests, including our own looped back, are never answers.
	if icmpType == probe.ICMPv4EchoRequest || icmpType == probe.ICMPv4Timestamp || len(data) < probe.HeaderLen {
		return 0, 0, false
	}

	if binary.BigEndian.Uint16(data[4:6]) != t.id || binary.BigEndian.Uint16(data[6:8]) != seq {
		t.logger.WithField("type", probe.TypeName(icmpType)).Trace("skipping reply for another probe")
		return 0, 0, false
	}
	return icmpType, code, true
}

// isIntermediate reports whether a reply came from a router on the way
// rather than from the destination.
func isIntermediate(icmpType, code uint8) bool {
	return icmpType == probe.ICMPv4TimeExceeded ||
		(icmpType == probe.ICMPv4Unreachable && code == probe.ICMPv4PortUnreachable)
}

// buildResult creates a TraceResult from the collected hops.
func (t *Tracer) buildResult(target string, dest net.IP, hops []Hop) *TraceResult {
	result := &TraceResult{
		Target:      target,
		ResolvedIP:  dest,
		Timestamp:   time.Now(),
		ProbeMethod: ProbeMethod(t.config.ProbeType),
		MaxHops:     t.config.MaxHops,
		PacketSize:  t.config.DatagramSize(),
		Hops:        hops,
		Completed:   false,
	}

	// Check if trace completed (reached destination)
	if len(hops) > 0 {
		result.Completed = hops[len(hops)-1].Reached
	}

	// Calculate summary statistics
	result.Summary = t.calculateSummary(hops)

	return result
}

// calculateSummary calculates aggregate statistics for the trace.
func (t *Tracer) calculateSummary(hops []Hop) Summary {
	summary := Summary{
		TotalHops: len(hops),
	}

	var totalLoss float64
	for _, hop := range hops {
		totalLoss += hop.LossPercent
	}

	if len(hops) > 0 {
		summary.PacketLossPercent = totalLoss / float64(len(hops))
	}

	// Total time is the RTT to the last responding hop
	for i := len(hops) - 1; i >= 0; i-- {
		if hops[i].Responded {
			summary.TotalTimeMs = hops[i].AvgRTT
			break
		}
	}

	return summary
}

// calculateRTTStats calculates RTT statistics from a slice of RTT values.
// Negative values are treated as timeouts and excluded from calculations.
func calculateRTTStats(rtts []float64) (avg, min, max, jitter float64) {
	var valid []float64
	for _, rtt := range rtts {
		if rtt >= 0 {
			valid = append(valid, rtt)
		}
	}

	if len(valid) == 0 {
		return 0, 0, 0, 0
	}

	min = valid[0]
	max = valid[0]
	sum := 0.0

	for _, rtt := range valid {
		sum += rtt
		if rtt < min {
			min = rtt
		}
		if rtt > max {
			max = rtt
		}
	}

	avg = sum / float64(len(valid))
	jitter = max - min

	return
}

// calculateLossPercent calculates packet loss percentage.
// Negative RTT values indicate timeouts.
func calculateLossPercent(rtts []float64) float64 {
	if len(rtts) == 0 {
		return 0
	}

	timeouts := 0
	for _, rtt := range rtts {
		if rtt < 0 {
			timeouts++
		}
	}

	return float64(timeouts) / float64(len(rtts)) * 100
}
