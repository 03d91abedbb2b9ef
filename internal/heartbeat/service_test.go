package heartbeat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type scriptedPinger struct {
	mu      sync.Mutex
	results []map[string]error
	calls   int
}

func (p *scriptedPinger) PingAll(context.Context) map[string]error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	if i >= len(p.results) {
		i = len(p.results) - 1
	}
	p.calls++
	return p.results[i]
}

func TestCheck_TracksDownProviders(t *testing.T) {
	p := &scriptedPinger{results: []map[string]error{
		{"weather": errors.New("broken pipe"), "files": nil},
		{"weather": nil, "files": nil},
	}}
	seen := map[string]int{}
	s := NewService(p, func(name string, err error) { seen[name]++ }, time.Hour)

	s.Check(context.Background())
	down := s.Down()
	if len(down) != 1 || down[0] != "weather" {
		t.Fatalf("expected [weather] down, got %v", down)
	}

	s.Check(context.Background())
	if len(s.Down()) != 0 {
		t.Fatalf("expected all providers up, got %v", s.Down())
	}
	if seen["weather"] != 2 || seen["files"] != 2 {
		t.Errorf("expected two results per provider, got %v", seen)
	}
}

func TestCheck_ForgetsRemovedProviders(t *testing.T) {
	p := &scriptedPinger{results: []map[string]error{
		{"weather": errors.New("gone")},
		{},
	}}
	var forgotten []string
	s := NewService(p, nil, time.Hour, WithForget(func(name string) { forgotten = append(forgotten, name) }))

	s.Check(context.Background())
	s.Check(context.Background())
	if len(s.Down()) != 0 {
		t.Fatalf("expected removed provider to be forgotten, got %v", s.Down())
	}
	if len(forgotten) != 1 || forgotten[0] != "weather" {
		t.Errorf("expected forget callback for weather, got %v", forgotten)
	}
}

func TestStart_TicksAndStops(t *testing.T) {
	p := &scriptedPinger{results: []map[string]error{{"weather": nil}}}
	s := NewService(p, nil, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := s.Start(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == 0 {
		t.Error("expected at least one ping")
	}
}
