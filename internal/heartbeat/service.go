// Package heartbeat periodically pings every external tool provider and
// reports which ones stopped answering.
package heartbeat

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pinger pings every registered provider and returns one result per name.
type Pinger interface {
	PingAll(ctx context.Context) map[string]error
}

// OnResultFunc is called with the outcome of each ping.
type OnResultFunc func(provider string, err error)

// Option configures a Service.
type Option func(*Service)

// WithForget registers a callback for providers that disappeared from the
// registry since the previous check.
func WithForget(fn func(provider string)) Option {
	return func(s *Service) { s.onForget = fn }
}

// Service runs a periodic liveness check of external providers.
type Service struct {
	pinger   Pinger
	onResult OnResultFunc
	onForget func(provider string)
	interval time.Duration
	timeout  time.Duration

	mu   sync.Mutex
	down map[string]bool
}

// NewService creates a heartbeat Service.
// interval defaults to 60 seconds if zero.
func NewService(pinger Pinger, onResult OnResultFunc, interval time.Duration, opts ...Option) *Service {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	timeout := interval / 2
	if timeout > 10*time.Second {
		timeout = 10 * time.Second
	}

	s := &Service{
		pinger:   pinger,
		onResult: onResult,
		interval: interval,
		timeout:  timeout,
		down:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the heartbeat loop until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("heartbeat: started", "interval", s.interval)

	for {
		select {
		case <-ticker.C:
			s.Check(ctx)
		case <-ctx.Done():
			slog.Info("heartbeat: stopped")
			return ctx.Err()
		}
	}
}

// Check pings every provider once. Transitions between up and down are
// logged; steady state is not.
func (s *Service) Check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results := s.pinger.PingAll(pingCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, err := range results {
		wasDown := s.down[name]
		switch {
		case err != nil && !wasDown:
			slog.Warn("heartbeat: provider not responding", "provider", name, "err", err)
		case err == nil && wasDown:
			slog.Info("heartbeat: provider recovered", "provider", name)
		}
		s.down[name] = err != nil
		if s.onResult != nil {
			s.onResult(name, err)
		}
	}
	for name := range s.down {
		if _, ok := results[name]; !ok {
			delete(s.down, name)
			if s.onForget != nil {
				s.onForget(name)
			}
		}
	}
}

// Down returns the providers that failed their last ping.
func (s *Service) Down() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for name, down := range s.down {
		if down {
			out = append(out, name)
		}
	}
	return out
}
