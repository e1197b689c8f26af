package scheduler

import (
	"context"
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/usecase"
	"SignalDesk/pkg/config"
	xlogger "SignalDesk/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler runs configured workflow jobs on cron schedules.
type Scheduler struct {
	cron     *cron.Cron
	workflow *usecase.WorkflowService
	jobs     []config.Job
	log      *xlogger.Logger
}

// New creates a scheduler for the given jobs. The timezone falls back to
// the host local zone when empty or unknown.
func New(workflow *usecase.WorkflowService, jobs []config.Job, timezone string, log *xlogger.Logger) *Scheduler {
	loc := time.Local
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		} else {
			log.Warn("unknown scheduler timezone, using local",
				xlogger.String("timezone", timezone), xlogger.Error(err))
		}
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		workflow: workflow,
		jobs:     jobs,
		log:      log,
	}
}

// RegisterAll registers every configured job with the cron runner.
func (s *Scheduler) RegisterAll() error {
	for _, j := range s.jobs {
		cfg := jobConfig(j)
		if _, err := s.cron.AddFunc(j.Spec, s.runJob(cfg)); err != nil {
			return fmt.Errorf("register job %s (%s): %w", j.Symbol, j.Spec, err)
		}
		s.log.Info("workflow job registered",
			xlogger.String("symbol", j.Symbol),
			xlogger.String("spec", j.Spec))
	}
	return nil
}

func (s *Scheduler) runJob(cfg models.WorkflowConfig) func() {
	return func() {
		res := s.workflow.Run(context.Background(), cfg)
		if !res.Success {
			s.log.Error("scheduled workflow failed",
				xlogger.String("symbol", cfg.Symbol),
				xlogger.Strings("errors", res.Errors))
			return
		}
		s.log.Info("scheduled workflow completed",
			xlogger.String("symbol", cfg.Symbol),
			xlogger.Int("channel_errors", len(res.Errors)))
	}
}

// RunAllNow executes every configured job immediately, sequentially.
func (s *Scheduler) RunAllNow() {
	for _, j := range s.jobs {
		s.runJob(jobConfig(j))()
	}
}

// Start starts the cron runner.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", xlogger.Int("jobs", len(s.jobs)))
}

// Stop stops the cron runner and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

func jobConfig(j config.Job) models.WorkflowConfig {
	return models.WorkflowConfig{
		Symbol:        j.Symbol,
		SendEmail:     j.SendEmail,
		LogToDocument: j.LogToDocument,
		CreateTask:    j.CreateTask,
		SendChatAlert: j.SendChatAlert,
	}
}
