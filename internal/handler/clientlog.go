package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ClientLogHandler ingests frontend error reports. The endpoint is
// public and intentionally quiet: whatever arrives is logged at debug
// level and acknowledged with 204, never rejected.
type ClientLogHandler struct {
	Log *zap.Logger
}

func NewClientLogHandler(log *zap.Logger) *ClientLogHandler {
	return &ClientLogHandler{Log: log}
}

type clientLogReq struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	URL     string `json:"url"`
	Stack   string `json:"stack"`
}

// Ingest handles POST /api/client-logs.
func (h *ClientLogHandler) Ingest(c echo.Context) error {
	var req clientLogReq
	if err := c.Bind(&req); err == nil && req.Message != "" {
		h.Log.Debug("client report",
			zap.String("level", req.Level),
			zap.String("message", req.Message),
			zap.String("url", req.URL),
			zap.String("stack", req.Stack),
			zap.String("ip", c.RealIP()),
		)
	}
	return c.NoContent(http.StatusNoContent)
}
