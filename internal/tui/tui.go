package tui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/KilimcininKorOglu/sonda/internal/probe"
	"github.com/KilimcininKorOglu/sonda/internal/trace"
)

// Run traces dest over conn while showing hops live. It returns when the
// user quits; quitting before the trace ends cancels it and returns the
// hops found so far with context.Canceled.
func Run(ctx context.Context, target string, dest net.IP, config *trace.Config, conn probe.Conn, logger *log.Logger) (*trace.TraceResult, error) {
	cfg := *config
	var model *Model

	model = New(ctx, target, dest, &cfg, func(ctx context.Context) (*trace.TraceResult, error) {
		cfg.OnHop = model.Observe
		tracer, err := trace.New(&cfg, conn, logger)
		if err != nil {
			return nil, err
		}
		return tracer.Trace(ctx, target, dest)
	})
	defer model.cancel()

	p := tea.NewProgram(*model, tea.WithAltScreen(), tea.WithContext(ctx))

	finalModel, err := p.Run()
	model.cancel()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, fmt.Errorf("TUI error: %w", err)
	}

	// The tracer notices the cancellation after at most one probe.
	select {
	case <-model.done:
	case <-time.After(cfg.Timeout + time.Second):
	}

	m, ok := finalModel.(Model)
	if !ok {
		return model.partial(), context.Canceled
	}
	return m.outcome()
}

// outcome returns what the session ended with.
func (m Model) outcome() (*trace.TraceResult, error) {
	switch m.state {
	case StateComplete:
		return m.result, nil
	case StateError:
		if m.result == nil && errors.Is(m.err, context.Canceled) {
			return m.partial(), m.err
		}
		return m.result, m.err
	default:
		return m.partial(), context.Canceled
	}
}

// partial builds a result from the hops shown so far.
func (m Model) partial() *trace.TraceResult {
	return &trace.TraceResult{
		Target:      m.target,
		ResolvedIP:  m.dest,
		ProbeMethod: m.method,
		MaxHops:     m.maxHops,
		Hops:        m.hops,
		Summary:     trace.Summary{TotalHops: len(m.hops)},
	}
}
