package repository

import (
	"context"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
)

// NoopStore is used when no storage backend is configured. Writes are
// discarded and queries return nothing.
type NoopStore struct{}

var _ domrepo.SignalStore = (*NoopStore)(nil)

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) Init(ctx context.Context) error { return nil }

func (s *NoopStore) StoreSignal(ctx context.Context, signal *models.Signal) error { return nil }

func (s *NoopStore) StoreBriefing(ctx context.Context, signalID, symbol, briefing string) error {
	return nil
}

func (s *NoopStore) LogWorkflowStep(ctx context.Context, entry *models.WorkflowStepLog) error {
	return nil
}

func (s *NoopStore) UpdatePerformanceMetrics(ctx context.Context, signal *models.Signal) error {
	return nil
}

func (s *NoopStore) QuerySignals(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Signal, error) {
	return nil, nil
}

func (s *NoopStore) Health(ctx context.Context) error { return nil }

func (s *NoopStore) Close() error { return nil }
