package agent

import (
	"context"
	"time"

	"github.com/ksfoundation/oneshot/internal/schema"
)

// Turn summarizes one finished Chat call.
type Turn struct {
	Model    string
	Provider string
	Kind     schema.BackendKind
	Message  string
	Response schema.AgentResponse
	Err      error
	Started  time.Time
	Elapsed  time.Duration
}

// TurnObserver is notified after every Chat call, successful or not.
type TurnObserver interface {
	ObserveTurn(ctx context.Context, t Turn)
}

// ObserverFunc adapts a function to TurnObserver.
type ObserverFunc func(ctx context.Context, t Turn)

func (f ObserverFunc) ObserveTurn(ctx context.Context, t Turn) { f(ctx, t) }
