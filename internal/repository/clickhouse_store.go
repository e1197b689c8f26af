package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
)

// ClickHouseStore implements SignalStore on ClickHouse. Signals and the
// workflow step log are append-only; performance metrics accumulate one
// row per run and aggregate at query time.
type ClickHouseStore struct {
	db       *sql.DB
	database string
}

// NewClickHouseStore creates ClickHouse-backed signal storage.
func NewClickHouseStore(db *sql.DB, database string) repository.SignalStore {
	return &ClickHouseStore{db: db, database: database}
}

func (s *ClickHouseStore) table(name string) string {
	return s.database + "." + name
}

func (s *ClickHouseStore) Init(ctx context.Context) error {
	return nil // schema init in pkg/clickhouse via the DI provider
}

func (s *ClickHouseStore) StoreSignal(ctx context.Context, sig *models.Signal) error {
	q := fmt.Sprintf(`INSERT INTO %s
		(id, ts, symbol, action, price, confidence, technical_score, risk_level,
		 target_price, stop_loss, rsi, macd_value, macd_signal, macd_histogram,
		 sma20, sma50, ema12, ema26, bb_upper, bb_middle, bb_lower, reasoning)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table("signals"))

	ind := sig.Indicators
	_, err := s.db.ExecContext(ctx, q,
		sig.ID,
		sig.Timestamp,
		sig.Symbol,
		string(sig.Action),
		sig.Price,
		uint8(sig.Confidence),
		sig.TechnicalScore,
		string(sig.RiskLevel),
		deref(sig.TargetPrice),
		deref(sig.StopLoss),
		ind.RSI,
		ind.MACD.Value,
		ind.MACD.Signal,
		ind.MACD.Histogram,
		ind.MovingAverages.SMA20,
		ind.MovingAverages.SMA50,
		ind.MovingAverages.EMA12,
		ind.MovingAverages.EMA26,
		ind.BollingerBands.Upper,
		ind.BollingerBands.Middle,
		ind.BollingerBands.Lower,
		sig.Reasoning,
	)
	return err
}

func (s *ClickHouseStore) StoreBriefing(ctx context.Context, signalID, symbol, briefing string) error {
	q := fmt.Sprintf("INSERT INTO %s (signal_id, symbol, ts, briefing) VALUES (?, ?, ?, ?)", s.table("briefings"))
	_, err := s.db.ExecContext(ctx, q, signalID, symbol, time.Now().UTC(), briefing)
	return err
}

func (s *ClickHouseStore) LogWorkflowStep(ctx context.Context, entry *models.WorkflowStepLog) error {
	cfg, err := json.Marshal(entry.Config)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, status, step, message, signal_id, config) VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.table("workflow_steps"))
	_, err = s.db.ExecContext(ctx, q,
		entry.Timestamp,
		entry.Symbol,
		string(entry.Status),
		entry.Step,
		entry.Message,
		entry.SignalID,
		string(cfg),
	)
	return err
}

func (s *ClickHouseStore) UpdatePerformanceMetrics(ctx context.Context, sig *models.Signal) error {
	q := fmt.Sprintf("INSERT INTO %s (symbol, ts, action, technical_score, confidence) VALUES (?, ?, ?, ?, ?)",
		s.table("signal_performance"))
	_, err := s.db.ExecContext(ctx, q,
		sig.Symbol,
		sig.Timestamp,
		string(sig.Action),
		sig.TechnicalScore,
		uint8(sig.Confidence),
	)
	return err
}

func (s *ClickHouseStore) QuerySignals(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Signal, error) {
	q := fmt.Sprintf(`SELECT id, ts, symbol, action, price, confidence, technical_score, risk_level,
		target_price, stop_loss, rsi, macd_value, macd_signal, macd_histogram,
		sma20, sma50, ema12, ema26, bb_upper, bb_middle, bb_lower, reasoning
		FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?`, s.table("signals"))

	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []*models.Signal
	for rows.Next() {
		var (
			sig        models.Signal
			action     string
			risk       string
			confidence uint8
			target     float64
			stop       float64
		)
		ind := &sig.Indicators
		if err := rows.Scan(
			&sig.ID, &sig.Timestamp, &sig.Symbol, &action, &sig.Price, &confidence,
			&sig.TechnicalScore, &risk, &target, &stop,
			&ind.RSI, &ind.MACD.Value, &ind.MACD.Signal, &ind.MACD.Histogram,
			&ind.MovingAverages.SMA20, &ind.MovingAverages.SMA50,
			&ind.MovingAverages.EMA12, &ind.MovingAverages.EMA26,
			&ind.BollingerBands.Upper, &ind.BollingerBands.Middle, &ind.BollingerBands.Lower,
			&sig.Reasoning,
		); err != nil {
			return nil, err
		}
		sig.Action = models.Action(action)
		sig.RiskLevel = models.RiskLevel(risk)
		sig.Confidence = int(confidence)
		if target != 0 {
			sig.TargetPrice = &target
		}
		if stop != 0 {
			sig.StopLoss = &stop
		}
		signals = append(signals, &sig)
	}
	return signals, rows.Err()
}

func (s *ClickHouseStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStore) Close() error {
	return nil // connection pool managed by pkg/clickhouse
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
