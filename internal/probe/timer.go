package probe

import "time"

// Timer measures the round trip of a single probe.
type Timer struct {
	start time.Time
	now   func() time.Time
}

// StartTimer captures the start timestamp. Call it immediately before
// transmitting a probe.
func StartTimer() Timer {
	return startTimerWith(time.Now)
}

func startTimerWith(now func() time.Time) Timer {
	return Timer{start: now(), now: now}
}

// Start returns the captured start timestamp.
func (t Timer) Start() time.Time {
	return t.start
}

// ElapsedMs captures the end timestamp and returns the elapsed time in
// milliseconds.
func (t Timer) ElapsedMs() float64 {
	return Milliseconds(t.start, t.now())
}

// Milliseconds returns end-start in milliseconds with microsecond
// precision. Times taken with time.Now carry a monotonic reading, so wall
// clock steps during a run do not affect the result.
func Milliseconds(start, end time.Time) float64 {
	return float64(end.Sub(start)/time.Microsecond) / 1000
}
