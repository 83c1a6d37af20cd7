// Package connectivity observes online/offline transitions and feeds them
// to the session as events. It owns no business logic; deciding what to do
// while offline is the orchestrator's job.
package connectivity

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"quizsync/internal/logger"

	"go.uber.org/zap"
)

// DefaultProbeInterval is how often the probe runs when unconfigured.
const DefaultProbeInterval = 30 * time.Second

// Probe reports whether the remote side is reachable right now.
type Probe func(ctx context.Context) bool

// Change is one online/offline transition.
type Change struct {
	Online bool
	At     time.Time
}

// Monitor polls a Probe and emits a Change only when the observed state
// flips. Changes flow through a bounded channel; when the consumer lags,
// the oldest pending change is dropped in favor of the newest, since only
// the latest state matters.
type Monitor struct {
	probe    Probe
	interval time.Duration
	online   atomic.Bool
	updates  chan Change
}

// NewMonitor builds a Monitor. The initial state is assumed online until
// the first probe says otherwise.
func NewMonitor(probe Probe, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	m := &Monitor{
		probe:    probe,
		interval: interval,
		updates:  make(chan Change, 4),
	}
	m.online.Store(true)
	return m
}

// HTTPProbe returns a Probe that issues a HEAD request against url and
// treats any response as reachability.
func HTTPProbe(url string, timeout time.Duration) Probe {
	client := &http.Client{Timeout: timeout}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}
}

// Start runs the poll loop until ctx is canceled. It probes once
// immediately so consumers learn the real state without waiting a full
// interval.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		defer close(m.updates)

		m.check(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.check(ctx)
			}
		}
	}()
}

func (m *Monitor) check(ctx context.Context) {
	observed := m.probe(ctx)
	if observed == m.online.Load() {
		return
	}
	m.online.Store(observed)
	change := Change{Online: observed, At: time.Now()}
	logger.Get().Info("Connectivity changed", zap.Bool("online", observed))

	select {
	case m.updates <- change:
	default:
		// Consumer is lagging: drop the oldest pending change.
		select {
		case <-m.updates:
		default:
		}
		m.updates <- change
	}
}

// Updates returns the transition channel. It is closed when Start's
// context ends.
func (m *Monitor) Updates() <-chan Change {
	return m.updates
}

// Online returns the last observed state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}
