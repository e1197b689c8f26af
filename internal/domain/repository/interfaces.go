package repository

import (
	"context"
	"time"

	"SignalDesk/internal/domain/models"
)

// MarketData serves quotes and history for the pipeline. Implementations
// own the cache and the inter-request throttle; callers treat returned
// values as immutable.
type MarketData interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetHistory(ctx context.Context, symbol, interval string, periods int) (*models.HistorySeries, error)
}

// Channel is one external notification integration. Deliver either
// succeeds or returns an error; the orchestrator isolates failures
// per channel.
type Channel interface {
	Key() models.ChannelKey
	Deliver(ctx context.Context, signal *models.Signal, briefing string) error
}

// SignalStore persists signals, briefings and the workflow audit trail.
// All operations are best-effort from the orchestrator's perspective.
type SignalStore interface {
	Init(ctx context.Context) error
	StoreSignal(ctx context.Context, signal *models.Signal) error
	StoreBriefing(ctx context.Context, signalID, symbol, briefing string) error
	LogWorkflowStep(ctx context.Context, entry *models.WorkflowStepLog) error
	UpdatePerformanceMetrics(ctx context.Context, signal *models.Signal) error
	QuerySignals(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Signal, error)
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher emits generated signals to downstream consumers.
type EventPublisher interface {
	PublishSignal(ctx context.Context, signal *models.Signal) error
	Close() error
}

// Metrics records pipeline observability counters and gauges.
type Metrics interface {
	RecordSignal(symbol string, action models.Action)
	RecordTechnicalScore(symbol string, score float64)
	RecordChannelDelivery(channel models.ChannelKey, ok bool)
	RecordFetch(kind string, cacheHit bool, seconds float64)
	RecordWorkflowRun(symbol string, success bool, seconds float64)
	RecordError(kind string)
}
