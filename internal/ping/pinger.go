// Package ping implements the echo-latency prober: one echo request per
// interval, strict validation of every reply, and RTT/loss statistics.
package ping

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/KilimcininKorOglu/sonda/internal/probe"
	"github.com/KilimcininKorOglu/sonda/internal/stats"
)

// recvBufferSize is large enough for the biggest reply a Config allows.
const recvBufferSize = 65536

// Pinger sends echo requests to one host and validates the replies.
type Pinger struct {
	config *Config
	conn   probe.Conn
	logger *log.Logger
	id     uint16

	stats   *stats.Statistics
	records []Record
	buf     []byte
}

// New creates a Pinger that probes config.Addr over conn. The pinger owns
// conn for the duration of Run but does not close it.
func New(config *Config, conn probe.Conn, logger *log.Logger) (*Pinger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &Pinger{
		config: config,
		conn:   conn,
		logger: logger,
		id:     config.identifier(),
		stats:  stats.New(),
		buf:    make([]byte, recvBufferSize),
	}, nil
}

// Identifier returns the identifier carried by outgoing requests.
func (p *Pinger) Identifier() uint16 {
	return p.id
}

// Run sends requests until Count is reached or ctx is cancelled, and
// returns the run report. Timeouts and invalid replies are reported through
// OnRecord and never end the run; send and receive failures do. When no
// valid reply arrived the report is returned together with ErrNoReplies.
func (p *Pinger) Run(ctx context.Context) (*Report, error) {
	if err := p.conn.SetTTL(p.config.TTL); err != nil {
		return nil, fmt.Errorf("failed to set ttl: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"addr":     p.config.Addr,
		"id":       p.id,
		"size":     p.config.Size,
		"count":    p.config.Count,
		"interval": p.config.Interval,
	}).Debug("starting echo run")

	tick := time.NewTimer(0)
	defer tick.Stop()

	for {
		// A pending stop request wins over a tick that fired at the same time.
		select {
		case <-ctx.Done():
			return p.finish(true)
		default:
		}

		select {
		case <-ctx.Done():
			return p.finish(true)

		case <-tick.C:
			rec, err := p.probeOnce(p.stats.Transmitted())
			if err != nil {
				report, _ := p.finish(false)
				return report, err
			}
			p.records = append(p.records, *rec)
			if p.config.OnRecord != nil {
				p.config.OnRecord(rec)
			}

			if p.config.Count != Unbounded && p.stats.Transmitted() >= p.config.Count {
				return p.finish(false)
			}
			tick.Reset(p.config.Interval)
		}
	}
}

// probeOnce sends the request with sequence seq and waits for its reply.
func (p *Pinger) probeOnce(seq int) (*Record, error) {
	msg := probe.EncodeEcho(p.id, uint16(seq), p.config.Size, probe.ICMPv4EchoRequest)

	timer := probe.StartTimer()
	if err := p.conn.WriteTo(msg, p.config.Addr); err != nil {
		return nil, fmt.Errorf("failed to send echo request: %w", err)
	}
	p.stats.MarkSent()

	p.logger.WithFields(log.Fields{"seq": seq, "bytes": len(msg)}).Debug("sent echo request")

	if err := p.conn.SetReadDeadline(timer.Start().Add(p.config.Timeout)); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}

	for {
		n, from, ttl, err := p.conn.ReadFrom(p.buf)
		if probe.IsTimeout(err) {
			rtt := timer.ElapsedMs()
			p.logger.WithField("seq", seq).Debug("receive timeout")
			return &Record{
				Seq:     seq,
				RTT:     rtt,
				Outcome: Timeout,
				Detail:  "Request timeout",
			}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to receive reply: %w", err)
		}

		data := p.buf[:n]

		// A raw socket also sees requests looped back to ourselves.
		if n > 0 && data[0] == probe.ICMPv4EchoRequest {
			p.logger.WithFields(log.Fields{"seq": seq, "from": from}).Trace("skipping echo request")
			continue
		}

		if p.stray(data, seq) {
			p.logger.WithFields(log.Fields{"seq": seq, "from": from, "type": probe.TypeName(data[0])}).Trace("skipping datagram for another request")
			continue
		}

		rtt := timer.ElapsedMs()
		rec := p.validate(seq, msg, data)
		rec.Bytes = n
		rec.From = from
		rec.TTL = ttl
		rec.RTT = rtt

		if rec.Received() {
			p.stats.Record(rtt)
		} else {
			p.logger.WithFields(log.Fields{
				"seq":     seq,
				"from":    from,
				"outcome": rec.Outcome,
			}).Debug(rec.Detail)
		}
		return rec, nil
	}
}

// stray reports whether data answers something other than the request
// with sequence seq: a late reply to one of our earlier requests, or an
// ICMP error about a datagram that is not this request. Damaged datagrams
// are left to validate.
func (p *Pinger) stray(data []byte, seq int) bool {
	if !probe.VerifyChecksum(data) {
		return false
	}
	pkt, err := probe.ParseICMPPacket(data)
	if err != nil {
		return false
	}

	switch {
	case pkt.IsEchoReply():
		return pkt.Identifier == p.id && pkt.Sequence != uint16(seq)
	case probe.IsError(pkt.Type):
		id, quotedSeq, ok := probe.QuotedEcho(pkt.Payload)
		return !ok || id != p.id || quotedSeq != uint16(seq)
	}
	return false
}

// validate classifies a reply to sent. Checks run in a fixed order and the
// first failure decides the outcome.
func (p *Pinger) validate(seq int, sent, data []byte) *Record {
	rec := &Record{Seq: seq}

	if !probe.VerifyChecksum(data) {
		rec.Outcome = ChecksumMismatch
		rec.Detail = "Invalid checksum"
		return rec
	}

	pkt, err := probe.ParseICMPPacket(data)
	if err != nil {
		rec.Outcome = ShortPacket
		rec.Detail = "Packet content is missing"
		return rec
	}
	rec.Type = pkt.Type
	rec.Code = pkt.Code

	switch {
	case !pkt.IsEchoReply():
		rec.Outcome = ICMPError
		rec.Detail = probe.DescribeError(pkt.Type, pkt.Code)
	case pkt.Code != 0:
		rec.Outcome = BadCode
		rec.Detail = fmt.Sprintf("Invalid ICMP code (%d)", pkt.Code)
	case pkt.Identifier != p.id:
		rec.Outcome = WrongID
		rec.Detail = fmt.Sprintf("Wrong ID (%d)", pkt.Identifier)
	case len(data) < len(sent):
		rec.Outcome = ShortPacket
		rec.Detail = "Packet content is missing"
	case !bytes.Equal(data[probe.HeaderLen:len(sent)], sent[probe.HeaderLen:]):
		rec.Outcome = ContentMismatch
		rec.Detail = "Not same content"
	default:
		rec.Outcome = Replied
	}
	return rec
}

// finish builds the run report.
func (p *Pinger) finish(interrupted bool) (*Report, error) {
	report := &Report{
		Host:        p.config.Host,
		Addr:        p.config.Addr,
		Size:        p.config.Size,
		Transmitted: p.stats.Transmitted(),
		Received:    p.stats.Received(),
		LossPercent: p.stats.LossPercent(),
		Records:     p.records,
		Interrupted: interrupted,
	}

	p.logger.WithFields(log.Fields{
		"transmitted": report.Transmitted,
		"received":    report.Received,
		"interrupted": interrupted,
	}).Debug("echo run finished")

	summary, err := p.stats.Summarize()
	if errors.Is(err, stats.ErrNoSamples) {
		return report, ErrNoReplies
	}
	report.RTT = &summary
	return report, nil
}
