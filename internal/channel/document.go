package channel

import (
	"context"
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
)

// DocumentChannel appends the briefing to a shared workspace document.
type DocumentChannel struct {
	base       *httpBase
	documentID string
}

// NewDocument creates the document-log channel.
func NewDocument(baseURL, token, documentID string, timeout time.Duration) *DocumentChannel {
	return &DocumentChannel{
		base:       newHTTPBase(baseURL, token, timeout),
		documentID: documentID,
	}
}

func (c *DocumentChannel) Key() models.ChannelKey { return models.ChannelDocumentLog }

type documentReq struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

func (c *DocumentChannel) Deliver(ctx context.Context, sig *models.Signal, briefing string) error {
	if c.documentID == "" {
		return fmt.Errorf("no document configured")
	}
	heading := fmt.Sprintf("%s / %s %s", sig.Timestamp.Format("2006-01-02 15:04"), sig.Symbol, sig.Action)
	path := fmt.Sprintf("/documents/%s/append", c.documentID)
	return c.base.postJSON(ctx, path, documentReq{Heading: heading, Body: briefing}, nil)
}

var _ repository.Channel = (*DocumentChannel)(nil)
