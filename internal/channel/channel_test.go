package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
)

func buySignal() *models.Signal {
	target := 108.0
	stop := 92.0
	return &models.Signal{
		ID:             "sig-1",
		Timestamp:      time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC),
		Symbol:         "AAPL",
		Action:         models.ActionBuy,
		Price:          100,
		Confidence:     90,
		TechnicalScore: 80,
		RiskLevel:      models.RiskLow,
		TargetPrice:    &target,
		StopLoss:       &stop,
	}
}

type captured struct {
	path   string
	auth   string
	body   map[string]interface{}
	status int
}

func captureServer(t *testing.T, cap *captured) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cap.path = r.URL.Path
		cap.auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&cap.body))
		if cap.status != 0 {
			w.WriteHeader(cap.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"task-7"}`))
	}))
}

func TestEmailChannel(t *testing.T) {
	t.Run("posts briefing with subject and bearer token", func(t *testing.T) {
		var cap captured
		srv := captureServer(t, &cap)
		defer srv.Close()

		c := NewEmail(srv.URL, "tok", "alerts@desk.local", []string{"trader@desk.local"}, 5*time.Second)
		err := c.Deliver(context.Background(), buySignal(), "the briefing")
		require.NoError(t, err)

		assert.Equal(t, "/messages", cap.path)
		assert.Equal(t, "Bearer tok", cap.auth)
		assert.Equal(t, "alerts@desk.local", cap.body["from"])
		assert.Equal(t, "the briefing", cap.body["text"])
		assert.Contains(t, cap.body["subject"], "[AAPL] BUY signal at 100.00")
	})

	t.Run("no recipients is an error", func(t *testing.T) {
		c := NewEmail("http://mail.local", "tok", "alerts@desk.local", nil, 5*time.Second)
		err := c.Deliver(context.Background(), buySignal(), "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no recipients")
	})

	t.Run("gateway failure surfaces", func(t *testing.T) {
		cap := captured{status: http.StatusBadGateway}
		srv := captureServer(t, &cap)
		defer srv.Close()

		c := NewEmail(srv.URL, "tok", "alerts@desk.local", []string{"trader@desk.local"}, 5*time.Second)
		err := c.Deliver(context.Background(), buySignal(), "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
}

func TestDocumentChannel(t *testing.T) {
	t.Run("appends under the configured document", func(t *testing.T) {
		var cap captured
		srv := captureServer(t, &cap)
		defer srv.Close()

		c := NewDocument(srv.URL, "tok", "doc-42", 5*time.Second)
		err := c.Deliver(context.Background(), buySignal(), "the briefing")
		require.NoError(t, err)

		assert.Equal(t, "/documents/doc-42/append", cap.path)
		assert.Contains(t, cap.body["heading"], "AAPL BUY")
		assert.Equal(t, "the briefing", cap.body["body"])
	})

	t.Run("missing document id is an error", func(t *testing.T) {
		c := NewDocument("http://docs.local", "tok", "", 5*time.Second)
		err := c.Deliver(context.Background(), buySignal(), "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no document configured")
	})
}

func TestTaskTrackerChannel(t *testing.T) {
	t.Run("opens an issue with action label", func(t *testing.T) {
		var cap captured
		srv := captureServer(t, &cap)
		defer srv.Close()

		c := NewTaskTracker(srv.URL, "tok", "TRADE", 5*time.Second)
		err := c.Deliver(context.Background(), buySignal(), "the briefing")
		require.NoError(t, err)

		assert.Equal(t, "/issues", cap.path)
		assert.Equal(t, "TRADE", cap.body["project"])
		assert.Contains(t, cap.body["title"], "Review BUY signal for AAPL")
		assert.Equal(t, "the briefing", cap.body["description"])
		assert.ElementsMatch(t, []interface{}{"trading-signal", "buy"}, cap.body["labels"])
	})

	t.Run("missing project is an error", func(t *testing.T) {
		c := NewTaskTracker("http://tracker.local", "tok", "", 5*time.Second)
		err := c.Deliver(context.Background(), buySignal(), "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no project configured")
	})
}

func TestChatChannel(t *testing.T) {
	t.Run("posts a one-line alert with targets", func(t *testing.T) {
		var cap captured
		srv := captureServer(t, &cap)
		defer srv.Close()

		c := NewChat(srv.URL, 5*time.Second)
		err := c.Deliver(context.Background(), buySignal(), "ignored")
		require.NoError(t, err)

		text, _ := cap.body["text"].(string)
		assert.Contains(t, text, "AAPL BUY @ 100.00")
		assert.Contains(t, text, "score +80")
		assert.Contains(t, text, "confidence 90%")
		assert.Contains(t, text, "target 108.00 / stop 92.00")
	})

	t.Run("empty webhook is an error", func(t *testing.T) {
		c := NewChat("", 5*time.Second)
		err := c.Deliver(context.Background(), buySignal(), "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not configured")
	})
}

func TestChannelKeys(t *testing.T) {
	assert.Equal(t, models.ChannelEmail, NewEmail("", "", "", nil, 0).Key())
	assert.Equal(t, models.ChannelDocumentLog, NewDocument("", "", "", 0).Key())
	assert.Equal(t, models.ChannelTaskTracker, NewTaskTracker("", "", "", 0).Key())
	assert.Equal(t, models.ChannelChatAlert, NewChat("", 0).Key())
}
