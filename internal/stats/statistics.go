// Package stats aggregates the round-trip samples of an echo run.
package stats

import (
	"errors"
	"math"
)

// ErrNoSamples is returned by Summarize when no reply was recorded.
var ErrNoSamples = errors.New("no round-trip samples recorded")

// sqrtMaxIter bounds Sqrt for inputs where the iteration settles into
// alternating between two adjacent floats.
const sqrtMaxIter = 1000

// Statistics tracks the probes of one run. It is owned by a single loop and
// is never reset mid-run.
type Statistics struct {
	transmitted int
	received    int
	total       float64
	min         float64
	max         float64
	samples     []float64
}

// Summary holds the RTT aggregates of a run, in milliseconds.
type Summary struct {
	Min    float64 `json:"min_ms"`
	Avg    float64 `json:"avg_ms"`
	Max    float64 `json:"max_ms"`
	StdDev float64 `json:"stddev_ms"`
}

// New returns empty statistics.
func New() *Statistics {
	return &Statistics{
		min: math.Inf(1),
	}
}

// MarkSent counts a transmitted probe.
func (s *Statistics) MarkSent() {
	s.transmitted++
}

// Record adds the RTT of a valid reply and counts it as received.
func (s *Statistics) Record(rtt float64) {
	s.received++
	s.total += rtt
	s.samples = append(s.samples, rtt)
	if rtt < s.min {
		s.min = rtt
	}
	if rtt > s.max {
		s.max = rtt
	}
}

// Transmitted returns the number of probes sent.
func (s *Statistics) Transmitted() int {
	return s.transmitted
}

// Received returns the number of valid replies.
func (s *Statistics) Received() int {
	return s.received
}

// LossPercent returns the share of probes without a valid reply.
func (s *Statistics) LossPercent() float64 {
	if s.transmitted == 0 {
		return 0
	}
	return 100 * (1 - float64(s.received)/float64(s.transmitted))
}

// Summarize computes min, mean, max and the sample standard deviation.
func (s *Statistics) Summarize() (Summary, error) {
	if s.received == 0 {
		return Summary{}, ErrNoSamples
	}

	avg := s.total / float64(s.received)

	var stddev float64
	if n := len(s.samples); n > 1 {
		var sq float64
		for _, x := range s.samples {
			d := x - avg
			sq += d * d
		}
		stddev = Sqrt(sq / float64(n-1))
	}

	return Summary{
		Min:    s.min,
		Avg:    avg,
		Max:    s.max,
		StdDev: stddev,
	}, nil
}

// Sqrt computes the square root of x by Newton-Raphson iteration, starting
// from 1 and stopping once an iteration no longer changes the estimate.
// Non-positive inputs return 0.
func Sqrt(x float64) float64 {
	if x <= 0 || math.IsNaN(x) {
		return 0
	}
	if math.IsInf(x, 1) {
		return x
	}

	prev, curr := 0.0, 1.0
	for i := 0; curr != prev && i < sqrtMaxIter; i++ {
		prev = curr
		curr = (curr + x/curr) / 2
	}
	return curr
}
