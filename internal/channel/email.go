package channel

import (
	"context"
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
)

// EmailChannel sends the briefing through a mail gateway API.
type EmailChannel struct {
	base       *httpBase
	from       string
	recipients []string
}

// NewEmail creates the email channel.
func NewEmail(baseURL, token, from string, recipients []string, timeout time.Duration) *EmailChannel {
	return &EmailChannel{
		base:       newHTTPBase(baseURL, token, timeout),
		from:       from,
		recipients: recipients,
	}
}

func (c *EmailChannel) Key() models.ChannelKey { return models.ChannelEmail }

type emailReq struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func (c *EmailChannel) Deliver(ctx context.Context, sig *models.Signal, briefing string) error {
	if len(c.recipients) == 0 {
		return fmt.Errorf("no recipients configured")
	}
	subject := fmt.Sprintf("[%s] %s signal at %.2f (confidence %d%%)",
		sig.Symbol, sig.Action, sig.Price, sig.Confidence)
	return c.base.postJSON(ctx, "/messages", emailReq{
		From:    c.from,
		To:      c.recipients,
		Subject: subject,
		Text:    briefing,
	}, nil)
}

var _ repository.Channel = (*EmailChannel)(nil)
