package handler

import (
	"context"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/pkg/httpcontext"
)

type activityService interface {
	ListTaskActivity(ctx context.Context, taskID string, limit int) (domain.Result, error)
}

type ActivityHandler struct {
	baseHandler
	activity activityService
}

func NewActivityHandler(activity activityService, adapter *httpcontext.Adapter, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		baseHandler: newBaseHandler(adapter, logger),
		activity:    activity,
	}
}

// @Summary Change history of a task, newest first
// @Tags tasks
// @Param limit query int false "1..100"
// @Router /api/v1/tasks/{id}/activity [get]
func (h *ActivityHandler) ListTaskActivity(ctx *fasthttp.RequestCtx) {
	if _, ok := h.currentUser(ctx); !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.activity.ListTaskActivity(stdCtx, pathParam(ctx, "id"), queryInt(ctx, "limit", 0))
	h.respond(ctx, stdCtx, res, err)
}
