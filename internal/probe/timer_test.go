package probe

import (
	"testing"
	"time"
)

func TestMilliseconds(t *testing.T) {
	base := time.Unix(1700000000, 999_900_000)

	tests := []struct {
		name string
		end  time.Time
		want float64
	}{
		{"same instant", base, 0},
		{"within a second", base.Add(50 * time.Microsecond), 0.05},
		{"across second rollover", base.Add(250 * time.Microsecond), 0.25},
		{"whole seconds", base.Add(2 * time.Second), 2000},
		{"sub-microsecond is truncated", base.Add(999 * time.Nanosecond), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Milliseconds(base, tt.end)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Milliseconds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMilliseconds_Monotonic(t *testing.T) {
	start := time.Now()
	end := start.Add(5 * time.Millisecond)

	if got := Milliseconds(start, end); got != 5 {
		t.Errorf("Milliseconds() = %v, want 5", got)
	}
	if got := Milliseconds(end, start); got != -5 {
		t.Errorf("Milliseconds() reversed = %v, want -5", got)
	}
}

func TestTimer_ElapsedMs(t *testing.T) {
	clock := time.Unix(100, 0)
	timer := startTimerWith(func() time.Time { return clock })

	if !timer.Start().Equal(time.Unix(100, 0)) {
		t.Errorf("Start() = %v", timer.Start())
	}

	clock = clock.Add(12345 * time.Microsecond)
	if got := timer.ElapsedMs(); got < 12.344 || got > 12.346 {
		t.Errorf("ElapsedMs() = %v, want 12.345", got)
	}
}

func TestStartTimer(t *testing.T) {
	timer := StartTimer()
	if got := timer.ElapsedMs(); got < 0 {
		t.Errorf("ElapsedMs() = %v, want >= 0", got)
	}
}
