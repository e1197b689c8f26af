package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	"SignalDesk/internal/service/briefing"
	"SignalDesk/internal/service/indicator"
	"SignalDesk/internal/service/scorer"
	"SignalDesk/pkg/cache"
	"SignalDesk/pkg/logger"
)

// Workflow step names as they appear in the audit log.
const (
	stepSignalGeneration  = "signal_generation"
	stepSignalStored      = "signal_stored"
	stepBriefingGenerated = "briefing_generated"
	stepWorkflowCompleted = "workflow_completed"
	stepWorkflowFailed    = "workflow_failed"
)

const (
	chatConfidenceFloor = 80
	latestCachePrefix   = "signal:latest"
)

// WorkflowService runs the signal pipeline: fetch, score, persist,
// brief, dispatch. Signal generation is fatal on failure; each channel
// failure is isolated and recorded without aborting the run.
type WorkflowService struct {
	market   repository.MarketData
	store    repository.SignalStore
	events   repository.EventPublisher
	channels map[models.ChannelKey]repository.Channel
	metrics  repository.Metrics
	cache    cache.Service
	log      *logger.Logger

	historyInterval string
	historyPeriods  int
	channelTimeout  time.Duration
	latestTTL       time.Duration

	newID func() string
	now   func() time.Time
}

// WorkflowOption configures a WorkflowService.
type WorkflowOption func(*WorkflowService)

// WithIDGenerator injects the signal id source.
func WithIDGenerator(gen func() string) WorkflowOption {
	return func(s *WorkflowService) { s.newID = gen }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) WorkflowOption {
	return func(s *WorkflowService) { s.now = now }
}

// WithHistoryWindow overrides the history interval and depth.
func WithHistoryWindow(interval string, periods int) WorkflowOption {
	return func(s *WorkflowService) {
		s.historyInterval = interval
		s.historyPeriods = periods
	}
}

// WithChannelTimeout bounds each channel delivery attempt.
func WithChannelTimeout(d time.Duration) WorkflowOption {
	return func(s *WorkflowService) { s.channelTimeout = d }
}

// WithLatestTTL sets how long the latest result stays cached per symbol.
func WithLatestTTL(d time.Duration) WorkflowOption {
	return func(s *WorkflowService) {
		if d > 0 {
			s.latestTTL = d
		}
	}
}

// NewWorkflowService wires the orchestrator. events may be nil when no
// broker is configured; channels not present in the slice simply cannot
// be enabled at run time.
func NewWorkflowService(
	market repository.MarketData,
	store repository.SignalStore,
	events repository.EventPublisher,
	channels []repository.Channel,
	metrics repository.Metrics,
	latest cache.Service,
	log *logger.Logger,
	opts ...WorkflowOption,
) *WorkflowService {
	byKey := make(map[models.ChannelKey]repository.Channel, len(channels))
	for _, ch := range channels {
		byKey[ch.Key()] = ch
	}
	s := &WorkflowService{
		market:          market,
		store:           store,
		events:          events,
		channels:        byKey,
		metrics:         metrics,
		cache:           latest,
		log:             log,
		historyInterval: "1d",
		historyPeriods:  120,
		channelTimeout:  15 * time.Second,
		latestTTL:       24 * time.Hour,
		newID:           uuid.NewString,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one workflow invocation. It always returns a result,
// never panics or propagates an error value: fatal failures surface as
// success=false with a single error, channel failures as error strings
// alongside success=true.
func (s *WorkflowService) Run(ctx context.Context, cfg models.WorkflowConfig) *models.WorkflowResult {
	start := s.now()
	res := &models.WorkflowResult{Errors: []string{}}

	s.logStep(ctx, cfg, models.StepRunning, stepSignalGeneration, "generating signal for "+cfg.Symbol, "")

	sig, err := s.generateSignal(ctx, cfg.Symbol)
	if err != nil {
		s.log.Error("signal generation failed", logger.String("symbol", cfg.Symbol), logger.Error(err))
		s.logStep(ctx, cfg, models.StepFailed, stepWorkflowFailed, err.Error(), "")
		s.metrics.RecordWorkflowRun(cfg.Symbol, false, s.now().Sub(start).Seconds())
		res.Errors = append(res.Errors, err.Error())
		return res
	}
	res.Signal = sig

	if err := s.store.StoreSignal(ctx, sig); err != nil {
		// Persistence is best-effort: the pipeline continues on a live signal.
		s.log.Warn("store signal failed", logger.String("signal_id", sig.ID), logger.Error(err))
		s.metrics.RecordError("store_signal")
	}
	if s.events != nil {
		if err := s.events.PublishSignal(ctx, sig); err != nil {
			s.log.Warn("publish signal event failed", logger.String("signal_id", sig.ID), logger.Error(err))
			s.metrics.RecordError("publish_signal")
		}
	}
	s.logStep(ctx, cfg, models.StepRunning, stepSignalStored,
		fmt.Sprintf("%s signal stored, score %+.0f", sig.Action, sig.TechnicalScore), sig.ID)

	res.Briefing = briefing.Generate(sig)
	if err := s.store.StoreBriefing(ctx, sig.ID, sig.Symbol, res.Briefing); err != nil {
		s.log.Warn("store briefing failed", logger.String("signal_id", sig.ID), logger.Error(err))
		s.metrics.RecordError("store_briefing")
	}
	s.logStep(ctx, cfg, models.StepRunning, stepBriefingGenerated, "briefing generated", sig.ID)

	s.dispatch(ctx, cfg, sig, res)

	if err := s.store.UpdatePerformanceMetrics(ctx, sig); err != nil {
		s.log.Warn("update performance metrics failed", logger.String("signal_id", sig.ID), logger.Error(err))
		s.metrics.RecordError("performance_metrics")
	}
	s.metrics.RecordSignal(sig.Symbol, sig.Action)
	s.metrics.RecordTechnicalScore(sig.Symbol, sig.TechnicalScore)

	res.Success = true
	s.logStep(ctx, cfg, models.StepCompleted, stepWorkflowCompleted,
		fmt.Sprintf("workflow completed with %d channel errors", len(res.Errors)), sig.ID)
	s.metrics.RecordWorkflowRun(cfg.Symbol, true, s.now().Sub(start).Seconds())

	s.cacheLatest(ctx, cfg.Symbol, res)
	return res
}

func (s *WorkflowService) generateSignal(ctx context.Context, symbol string) (*models.Signal, error) {
	quote, err := s.market.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	history, err := s.market.GetHistory(ctx, symbol, s.historyInterval, s.historyPeriods)
	if err != nil {
		return nil, err
	}
	ind, err := indicator.Compute(history)
	if err != nil {
		return nil, err
	}

	sig := scorer.Score(quote, ind)
	sig.ID = s.newID()
	sig.Timestamp = s.now().UTC()
	return sig, nil
}

// dispatch attempts delivery on every enabled channel, isolating each
// failure. Channel order is fixed; nothing downstream depends on it.
func (s *WorkflowService) dispatch(ctx context.Context, cfg models.WorkflowConfig, sig *models.Signal, res *models.WorkflowResult) {
	for _, key := range models.AllChannels {
		if !cfg.Enabled(key) {
			continue
		}
		// Per-channel gates on top of the config flags.
		if key == models.ChannelChatAlert && sig.Confidence < chatConfidenceFloor {
			s.log.Debug("chat alert skipped below confidence floor",
				logger.String("symbol", sig.Symbol), logger.Int("confidence", sig.Confidence))
			continue
		}
		if key == models.ChannelTaskTracker && !sig.Directional() {
			continue
		}

		ch, ok := s.channels[key]
		var err error
		if !ok {
			err = fmt.Errorf("channel not configured")
		} else {
			cctx, cancel := context.WithTimeout(ctx, s.channelTimeout)
			err = ch.Deliver(cctx, sig, res.Briefing)
			cancel()
		}

		if err != nil {
			cerr := &models.ChannelError{Channel: key, Err: err}
			res.Actions.Set(key, false)
			res.Errors = append(res.Errors, cerr.Error())
			s.logStep(ctx, cfg, models.StepRunning, string(key)+"_failed", err.Error(), sig.ID)
			s.metrics.RecordChannelDelivery(key, false)
			s.log.Warn("channel delivery failed", logger.String("channel", string(key)), logger.Error(err))
			continue
		}
		res.Actions.Set(key, true)
		s.logStep(ctx, cfg, models.StepRunning, string(key)+"_sent", "delivered", sig.ID)
		s.metrics.RecordChannelDelivery(key, true)
	}
}

func (s *WorkflowService) logStep(ctx context.Context, cfg models.WorkflowConfig, status models.StepStatus, step, message, signalID string) {
	entry := &models.WorkflowStepLog{
		Timestamp: s.now().UTC(),
		Symbol:    cfg.Symbol,
		Config:    cfg,
		Status:    status,
		Step:      step,
		Message:   message,
		SignalID:  signalID,
	}
	if err := s.store.LogWorkflowStep(ctx, entry); err != nil {
		s.log.Warn("workflow step log write failed", logger.String("step", step), logger.Error(err))
		s.metrics.RecordError("step_log")
	}
}

func (s *WorkflowService) cacheLatest(ctx context.Context, symbol string, res *models.WorkflowResult) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	key := cache.GenerateKey(latestCachePrefix, symbol)
	if err := s.cache.Set(ctx, key, string(data), s.latestTTL); err != nil {
		s.log.Warn("latest result cache write failed", logger.String("symbol", symbol), logger.Error(err))
	}
}

// Latest returns the most recent workflow result for symbol, if any run
// completed within the cache TTL.
func (s *WorkflowService) Latest(ctx context.Context, symbol string) (*models.WorkflowResult, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	var raw string
	if err := s.cache.Get(ctx, cache.GenerateKey(latestCachePrefix, symbol), &raw); err != nil {
		return nil, err
	}
	var res models.WorkflowResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	return &res, nil
}

// Signals returns persisted signals for the history endpoint.
func (s *WorkflowService) Signals(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Signal, error) {
	return s.store.QuerySignals(ctx, symbol, from, to, limit)
}
