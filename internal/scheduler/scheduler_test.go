package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/pkg/config"
	xlogger "SignalDesk/pkg/logger"
)

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	return l
}

func TestRegisterAll(t *testing.T) {
	t.Run("valid specs register", func(t *testing.T) {
		s := New(nil, []config.Job{
			{Spec: "0 30 9 * * 1-5", Symbol: "AAPL"},
			{Spec: "0 0 16 * * 1-5", Symbol: "MSFT"},
		}, "UTC", testLogger(t))
		assert.NoError(t, s.RegisterAll())
	})

	t.Run("bad spec is rejected with the job named", func(t *testing.T) {
		s := New(nil, []config.Job{
			{Spec: "not a cron line", Symbol: "AAPL"},
		}, "UTC", testLogger(t))
		err := s.RegisterAll()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AAPL")
	})
}

func TestJobConfig(t *testing.T) {
	cfg := jobConfig(config.Job{
		Symbol:        "AAPL",
		SendEmail:     true,
		CreateTask:    true,
		SendChatAlert: false,
	})
	assert.Equal(t, "AAPL", cfg.Symbol)
	assert.True(t, cfg.SendEmail)
	assert.True(t, cfg.CreateTask)
	assert.False(t, cfg.LogToDocument)
	assert.False(t, cfg.SendChatAlert)
}

func TestUnknownTimezoneFallsBack(t *testing.T) {
	s := New(nil, nil, "Mars/Olympus", testLogger(t))
	assert.NotNil(t, s.cron)
}
