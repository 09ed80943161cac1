package clock

import (
	"sync"
	"time"
)

var _ Clock = (*Manual)(nil)

// Manual is a Clock whose time only moves when Advance is called. Tickers
// created from it fire once per elapsed period.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
	created chan time.Duration
}

// NewManual returns a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:     start,
		created: make(chan time.Duration, 16),
	}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// NewTicker registers a ticker with period d.
func (m *Manual) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	m.mu.Lock()
	t := &manualTicker{
		clock:  m,
		period: d,
		next:   m.now.Add(d),
		c:      make(chan time.Time, 1),
	}
	m.tickers = append(m.tickers, t)
	m.mu.Unlock()

	select {
	case m.created <- d:
	default:
	}
	return t
}

// Created returns a channel that receives the period of every ticker
// created from this clock.
func (m *Manual) Created() <-chan time.Duration {
	return m.created
}

// Advance moves the clock forward by d, firing due tickers. Each due tick is
// delivered before Advance returns, so a receiver that is not draining the
// ticker blocks the caller.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		t, at := m.nextDueLocked(target)
		if t == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = at
		t.next = at.Add(t.period)
		m.mu.Unlock()

		t.c <- at
	}
}

func (m *Manual) nextDueLocked(target time.Time) (*manualTicker, time.Time) {
	var (
		due *manualTicker
		at  time.Time
	)
	for _, t := range m.tickers {
		if t.stopped || t.next.After(target) {
			continue
		}
		if due == nil || t.next.Before(at) {
			due, at = t, t.next
		}
	}
	return due, at
}

type manualTicker struct {
	clock   *Manual
	period  time.Duration
	next    time.Time
	stopped bool
	c       chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.clock.mu.Lock()
	t.stopped = true
	t.clock.mu.Unlock()
}
