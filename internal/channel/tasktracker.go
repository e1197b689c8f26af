package channel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
)

// TaskTrackerChannel opens a tracker issue for actionable signals so a
// human reviews the trade before execution.
type TaskTrackerChannel struct {
	base    *httpBase
	project string
}

// NewTaskTracker creates the task-tracker channel.
func NewTaskTracker(baseURL, token, project string, timeout time.Duration) *TaskTrackerChannel {
	return &TaskTrackerChannel{
		base:    newHTTPBase(baseURL, token, timeout),
		project: project,
	}
}

func (c *TaskTrackerChannel) Key() models.ChannelKey { return models.ChannelTaskTracker }

type taskReq struct {
	Project     string   `json:"project"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Labels      []string `json:"labels"`
}

type taskResp struct {
	ID string `json:"id"`
}

func (c *TaskTrackerChannel) Deliver(ctx context.Context, sig *models.Signal, briefing string) error {
	if c.project == "" {
		return fmt.Errorf("no project configured")
	}
	title := fmt.Sprintf("Review %s signal for %s at %.2f", sig.Action, sig.Symbol, sig.Price)
	labels := []string{"trading-signal", strings.ToLower(string(sig.Action))}

	var resp taskResp
	return c.base.postJSON(ctx, "/issues", taskReq{
		Project:     c.project,
		Title:       title,
		Description: briefing,
		Labels:      labels,
	}, &resp)
}

var _ repository.Channel = (*TaskTrackerChannel)(nil)
