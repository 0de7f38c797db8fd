package liveness

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Status is the last known reachability of the chat backend.
type Status struct {
	URL       string    `json:"url"`
	Reachable bool      `json:"reachable"`
	CheckedAt time.Time `json:"checked_at"`
	Latency   string    `json:"latency,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Monitor periodically checks that the chat backend answers HTTP requests.
// Any HTTP response counts as reachable; only transport errors do not.
type Monitor struct {
	url        string
	client     *http.Client
	checkEvery time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
	logger     *slog.Logger

	mu     sync.RWMutex
	status Status
}

// New creates a new liveness Monitor for the backend at url.
func New(url string, checkEvery, timeout time.Duration, logger *slog.Logger) *Monitor {
	if checkEvery <= 0 {
		checkEvery = 60 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Monitor{
		url:        url,
		client:     &http.Client{Timeout: timeout},
		checkEvery: checkEvery,
		stop:       make(chan struct{}),
		logger:     logger,
		status:     Status{URL: url},
	}
}

// Start runs an immediate check, then periodic checks in a background goroutine.
// Stop cancels a check that is still in flight.
func (m *Monitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-m.stop
		cancel()
	}()
	go func() {
		m.CheckNow(ctx)
		ticker := time.NewTicker(m.checkEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.CheckNow(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop shuts down the background monitor goroutine. It is safe to call
// more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Status returns the result of the most recent check.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// CheckNow runs a single check and records the result.
func (m *Monitor) CheckNow(ctx context.Context) Status {
	next := Status{URL: m.url, CheckedAt: time.Now().UTC()}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err == nil {
		var resp *http.Response
		resp, err = m.client.Do(req)
		if err == nil {
			resp.Body.Close()
		}
	}
	if err != nil && ctx.Err() != nil {
		// Cancelled, not a verdict on the backend.
		return m.Status()
	}
	if err != nil {
		next.Error = err.Error()
	} else {
		next.Reachable = true
		next.Latency = time.Since(start).Round(time.Millisecond).String()
	}

	m.mu.Lock()
	prev := m.status
	m.status = next
	m.mu.Unlock()

	switch {
	case prev.CheckedAt.IsZero():
		m.logger.Info("chat backend checked", "url", m.url, "reachable", next.Reachable)
	case prev.Reachable && !next.Reachable:
		m.logger.Warn("chat backend unreachable", "url", m.url, "error", next.Error)
	case !prev.Reachable && next.Reachable:
		m.logger.Info("chat backend reachable again", "url", m.url)
	}
	return next
}
