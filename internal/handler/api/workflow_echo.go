package api

import (
	"time"

	models "SignalDesk/internal/domain/models"
	"SignalDesk/internal/usecase"
	xhttp "SignalDesk/pkg/http"
	xlogger "SignalDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// WorkflowEchoHandler exposes the signal workflow over HTTP.
type WorkflowEchoHandler struct {
	logger   *xlogger.Logger
	workflow *usecase.WorkflowService
}

func NewWorkflowEchoHandler(logger *xlogger.Logger, workflow *usecase.WorkflowService) *WorkflowEchoHandler {
	return &WorkflowEchoHandler{logger: logger, workflow: workflow}
}

func (h *WorkflowEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/workflow/run", h.Run)
	g.GET("/signals/latest", h.Latest)
	g.GET("/signals/history", h.History)
}

// Run executes the full pipeline for one symbol. The response is always
// 200 with the workflow result; channel failures are reported inside it.
func (h *WorkflowEchoHandler) Run(c echo.Context) error {
	req := &models.RunWorkflowRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res := h.workflow.Run(c.Request().Context(), req.Config())
	if !res.Success {
		h.logger.Error("workflow run failed",
			xlogger.String("symbol", req.Symbol),
			xlogger.Strings("errors", res.Errors))
	}
	return xhttp.SuccessResponse(c, res)
}

// Latest returns the most recent workflow result for a symbol.
func (h *WorkflowEchoHandler) Latest(c echo.Context) error {
	req := &models.LatestSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.workflow.Latest(c.Request().Context(), req.Symbol)
	if err != nil {
		return xhttp.NotFoundResponse(c, "no signal for symbol")
	}
	return xhttp.SuccessResponse(c, res)
}

// History lists stored signals for a symbol within a time range.
func (h *WorkflowEchoHandler) History(c echo.Context) error {
	req := &models.SignalHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now()
	from := xhttp.ParseTimeDefault(req.From, now.AddDate(0, -1, 0))
	to := xhttp.ParseTimeDefault(req.To, now)

	rows, err := h.workflow.Signals(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		h.logger.Error("signal history query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
