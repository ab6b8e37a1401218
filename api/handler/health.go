package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dailywork/api/transport"
	"github.com/fastygo/dailywork/internal/infrastructure/monitor"
	"github.com/fastygo/dailywork/pkg/httpcontext"
)

type statusSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor statusSource
}

func NewHealthHandler(mon statusSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"services": map[string]interface{}{
			"postgresql": status.PostgreSQL,
			"redis":      status.Redis,
			"journal": map[string]interface{}{
				"online":  status.Journal,
				"backlog": status.JournalBacklog,
			},
		},
		"last_check": status.LastCheck,
	}

	if status.Healthy() {
		h.respondJSON(ctx, http.StatusOK, transport.Envelope{Code: http.StatusOK, Message: "ok", Result: payload})
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.Envelope{
		Code:    http.StatusServiceUnavailable,
		Message: "dependencies unhealthy",
		Result:  payload,
	})
}
