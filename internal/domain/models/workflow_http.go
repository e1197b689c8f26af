package models

// Requests for the workflow HTTP endpoints. Defined in domain for consistency and reuse.

type RunWorkflowRequest struct {
	Symbol        string `query:"symbol" json:"symbol" validate:"required,max=12"`
	SendEmail     bool   `query:"send_email" json:"send_email"`
	LogToDocument bool   `query:"log_to_document" json:"log_to_document"`
	CreateTask    bool   `query:"create_task" json:"create_task"`
	SendChatAlert bool   `query:"send_chat_alert" json:"send_chat_alert"`
}

// Config converts the request into a WorkflowConfig value.
func (r *RunWorkflowRequest) Config() WorkflowConfig {
	return WorkflowConfig{
		Symbol:        r.Symbol,
		SendEmail:     r.SendEmail,
		LogToDocument: r.LogToDocument,
		CreateTask:    r.CreateTask,
		SendChatAlert: r.SendChatAlert,
	}
}

type LatestSignalRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=12"`
}

type SignalHistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=12"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}
