package tui

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KilimcininKorOglu/sonda/internal/logging"
	"github.com/KilimcininKorOglu/sonda/internal/probe/probetest"
	"github.com/KilimcininKorOglu/sonda/internal/trace"
)

var (
	localAddr = net.ParseIP("192.0.2.100")
	routerIP  = net.ParseIP("198.51.100.1")
	destIP    = net.ParseIP("203.0.113.5")
)

// twoHops answers with Time Exceeded at TTL 1 and an echo reply beyond.
func twoHops(msg []byte, ttl int) ([]byte, net.IP, bool) {
	if ttl == 1 {
		return probetest.TimeExceeded(msg, localAddr, destIP), routerIP, true
	}
	return probetest.EchoReply(msg), destIP, true
}

func newTestModel(t *testing.T, run TraceFunc) *Model {
	t.Helper()
	cfg := trace.DefaultConfig()
	return New(context.Background(), "example.net", destIP, cfg, run)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a very long string", 10, "this is..."},
		{"ab", 2, "ab"},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := truncate(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncate(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}

func TestModel_StreamsHopsFromTracer(t *testing.T) {
	conn := probetest.NewConn(twoHops)

	var m *Model
	m = newTestModel(t, func(ctx context.Context) (*trace.TraceResult, error) {
		cfg := trace.DefaultConfig()
		cfg.Identifier = 0x4242
		cfg.OnHop = m.Observe
		tracer, err := trace.New(cfg, conn, logging.Discard())
		if err != nil {
			return nil, err
		}
		return tracer.Trace(ctx, "example.net", destIP)
	})

	msg := m.runTrace()()
	complete, ok := msg.(CompleteMsg)
	require.True(t, ok, "got %T", msg)
	assert.True(t, complete.Result.Completed)

	var model tea.Model = *m
	for i := 0; i < 2; i++ {
		hopMsg, ok := m.waitForHop()().(HopMsg)
		require.True(t, ok)
		model, _ = model.Update(hopMsg)
	}
	model, _ = model.Update(complete)

	final := model.(Model)
	assert.Equal(t, StateComplete, final.state)
	require.Len(t, final.hops, 2)
	assert.True(t, final.hops[0].IP.Equal(routerIP))
	assert.True(t, final.hops[1].Reached)

	view := final.View()
	assert.Contains(t, view, "example.net (203.0.113.5)")
	assert.Contains(t, view, "Method: ICMP echo")
	assert.Contains(t, view, "Destination reached")
	assert.Contains(t, view, "198.51.100.1")

	res, err := final.outcome()
	require.NoError(t, err)
	assert.Same(t, complete.Result, res)
}

func TestModel_CompleteFillsMissedHops(t *testing.T) {
	m := newTestModel(t, nil)
	result := &trace.TraceResult{Hops: []trace.Hop{{Number: 1}, {Number: 2}}}

	model, _ := m.Update(HopMsg{Hop: trace.Hop{Number: 1}})
	model, _ = model.Update(CompleteMsg{Result: result})
	// A hop delivered after completion is not shown twice.
	model, _ = model.Update(HopMsg{Hop: trace.Hop{Number: 2}})

	assert.Len(t, model.(Model).hops, 2)
}

func TestModel_QuitCancelsTrace(t *testing.T) {
	m := newTestModel(t, nil)

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.ErrorIs(t, m.ctx.Err(), context.Canceled)

	res, err := model.(Model).outcome()
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, "example.net", res.Target)
	assert.Equal(t, 30, res.MaxHops)
}

func TestModel_Error(t *testing.T) {
	failure := errors.New("socket gone")
	m := newTestModel(t, func(ctx context.Context) (*trace.TraceResult, error) {
		return nil, failure
	})

	msg := m.runTrace()()
	model, cmd := m.Update(msg)
	require.NotNil(t, cmd)

	final := model.(Model)
	assert.Equal(t, StateError, final.state)
	assert.Contains(t, final.View(), "socket gone")

	_, err := final.outcome()
	assert.ErrorIs(t, err, failure)

	// The hop waiter is released once the trace is over.
	assert.Nil(t, m.waitForHop()())
}

func TestModel_RenderHopRow(t *testing.T) {
	m := newTestModel(t, nil)

	hop := trace.Hop{
		Number: 3,
		IP:     routerIP,
		Probes: []trace.ProbeResult{
			{IP: routerIP, RTT: 10.5},
			{RTT: -1},
			{IP: routerIP, RTT: 12.25},
		},
		AvgRTT:      11.375,
		LossPercent: 33.3,
		Responded:   true,
		ASN:         &trace.ASNInfo{Number: 64500, Org: "Example Transit"},
	}

	row := m.renderHopRow(hop)
	assert.Contains(t, row, "198.51.100.1")
	assert.Contains(t, row, "10.50 * 12.25")
	assert.Contains(t, row, "11.38 ms")
	assert.Contains(t, row, "33%")
	assert.Contains(t, row, "AS64500 Example Transit")

	silent := m.renderHopRow(trace.Hop{
		Number: 4,
		Probes: []trace.ProbeResult{{RTT: -1}, {RTT: -1}, {RTT: -1}},
	})
	assert.Contains(t, silent, "* * *")
	assert.NotContains(t, silent, "ms")
}

func TestModel_ObserveNeverBlocks(t *testing.T) {
	m := newTestModel(t, nil)

	for i := 1; i <= trace.MaxTTL+10; i++ {
		m.Observe(&trace.Hop{Number: i})
	}
	assert.Len(t, m.hopChan, trace.MaxTTL)
}

func TestModel_WaitingView(t *testing.T) {
	m := newTestModel(t, nil)
	view := m.View()

	assert.Contains(t, view, "Waiting for responses...")
	assert.True(t, strings.Contains(view, "Tracing..."))
}
