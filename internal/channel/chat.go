package channel

import (
	"context"
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
)

// ChatChannel pushes a short alert to a chat webhook. Reserved for
// high-confidence signals; the full briefing lives in the other channels.
type ChatChannel struct {
	base *httpBase
}

// NewChat creates the chat-alert channel. webhookURL is the full
// incoming-webhook endpoint including any embedded secret.
func NewChat(webhookURL string, timeout time.Duration) *ChatChannel {
	return &ChatChannel{base: newHTTPBase(webhookURL, "", timeout)}
}

func (c *ChatChannel) Key() models.ChannelKey { return models.ChannelChatAlert }

type chatReq struct {
	Text string `json:"text"`
}

func (c *ChatChannel) Deliver(ctx context.Context, sig *models.Signal, _ string) error {
	text := fmt.Sprintf("%s %s @ %.2f | score %+.0f | confidence %d%% | risk %s",
		sig.Symbol, sig.Action, sig.Price, sig.TechnicalScore, sig.Confidence, sig.RiskLevel)
	if sig.TargetPrice != nil && sig.StopLoss != nil {
		text += fmt.Sprintf("\ntarget %.2f / stop %.2f", *sig.TargetPrice, *sig.StopLoss)
	}
	return c.base.postJSON(ctx, "", chatReq{Text: text}, nil)
}

var _ repository.Channel = (*ChatChannel)(nil)
