package handlers

import (
	"context"
	"encoding/json"
	"time"

	"qc-analytics/internal/events"
	"qc-analytics/internal/metrics"
)

// Invoker runs named commands. *commands.Service implements it.
type Invoker interface {
	Invoke(ctx context.Context, name string, args json.RawMessage) (any, error)
}

// HealthSource reports store reachability and row counts.
// *database.Database implements it.
type HealthSource interface {
	Ping(ctx context.Context) error
	GetStats() metrics.Stats
}

// Handlers serves the command, event and probe endpoints.
type Handlers struct {
	commands  Invoker
	db        HealthSource
	hub       *events.Hub
	startTime time.Time
}

// New creates Handlers. hub may be nil when the event stream is disabled.
func New(cmds Invoker, db HealthSource, hub *events.Hub) *Handlers {
	return &Handlers{
		commands:  cmds,
		db:        db,
		hub:       hub,
		startTime: time.Now(),
	}
}
