package models

import "time"

// ChannelKey identifies one notification channel integration.
type ChannelKey string

const (
	ChannelEmail       ChannelKey = "email"
	ChannelDocumentLog ChannelKey = "document_log"
	ChannelTaskTracker ChannelKey = "task_tracker"
	ChannelChatAlert   ChannelKey = "chat_alert"
)

// AllChannels lists channels in dispatch order.
var AllChannels = []ChannelKey{ChannelEmail, ChannelDocumentLog, ChannelTaskTracker, ChannelChatAlert}

// WorkflowConfig is the caller-supplied configuration for one run.
type WorkflowConfig struct {
	Symbol        string `json:"symbol"`
	SendEmail     bool   `json:"send_email"`
	LogToDocument bool   `json:"log_to_document"`
	CreateTask    bool   `json:"create_task"`
	SendChatAlert bool   `json:"send_chat_alert"`
}

// Enabled reports whether the given channel is enabled in this config.
func (c WorkflowConfig) Enabled(key ChannelKey) bool {
	switch key {
	case ChannelEmail:
		return c.SendEmail
	case ChannelDocumentLog:
		return c.LogToDocument
	case ChannelTaskTracker:
		return c.CreateTask
	case ChannelChatAlert:
		return c.SendChatAlert
	}
	return false
}

// ChannelOutcomes records the per-channel delivery result of one run.
// A flag is true only when delivery was attempted and succeeded.
type ChannelOutcomes struct {
	EmailSent     bool `json:"email_sent"`
	DocumentAdded bool `json:"document_added"`
	TaskCreated   bool `json:"task_created"`
	ChatAlertSent bool `json:"chat_alert_sent"`
}

// Set updates the flag for the given channel.
func (o *ChannelOutcomes) Set(key ChannelKey, ok bool) {
	switch key {
	case ChannelEmail:
		o.EmailSent = ok
	case ChannelDocumentLog:
		o.DocumentAdded = ok
	case ChannelTaskTracker:
		o.TaskCreated = ok
	case ChannelChatAlert:
		o.ChatAlertSent = ok
	}
}

// Get returns the flag for the given channel.
func (o ChannelOutcomes) Get(key ChannelKey) bool {
	switch key {
	case ChannelEmail:
		return o.EmailSent
	case ChannelDocumentLog:
		return o.DocumentAdded
	case ChannelTaskTracker:
		return o.TaskCreated
	case ChannelChatAlert:
		return o.ChatAlertSent
	}
	return false
}

// WorkflowResult is the aggregate outcome of one workflow run.
// Success means the signal was generated and the pipeline ran to completion;
// it does not imply that every channel delivered. Callers must inspect
// Actions and Errors for the full picture.
type WorkflowResult struct {
	Success  bool            `json:"success"`
	Signal   *Signal         `json:"signal,omitempty"`
	Briefing string          `json:"briefing,omitempty"`
	Actions  ChannelOutcomes `json:"actions"`
	Errors   []string        `json:"errors"`
}

// StepStatus is the state of a workflow step log entry.
type StepStatus string

const (
	StepRunning   StepStatus = "RUNNING"
	StepCompleted StepStatus = "COMPLETED"
	StepFailed    StepStatus = "FAILED"
)

// WorkflowStepLog is one append-only audit row, written per step transition.
type WorkflowStepLog struct {
	Timestamp time.Time      `json:"timestamp"`
	Symbol    string         `json:"symbol"`
	Config    WorkflowConfig `json:"config"`
	Status    StepStatus     `json:"status"`
	Step      string         `json:"step"`
	Message   string         `json:"message"`
	SignalID  string         `json:"signal_id,omitempty"`
}
