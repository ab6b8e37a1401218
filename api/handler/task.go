package handler

import (
	"context"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dailywork/api/transport"
	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/pkg/httpcontext"
	taskUC "github.com/fastygo/dailywork/usecase/task"
)

type taskService interface {
	Add(ctx context.Context, user *domain.User, p taskUC.AddPayload) (domain.Result, error)
	Update(ctx context.Context, user *domain.User, p taskUC.UpdatePayload) (domain.Result, error)
	Delete(ctx context.Context, user *domain.User, p taskUC.DeletePayload) (domain.Result, error)
	ListProjectTasks(ctx context.Context, p taskUC.ListPayload) (domain.Result, error)
	GetTaskDetail(ctx context.Context, p taskUC.DetailPayload) (domain.Result, error)
}

type TaskHandler struct {
	baseHandler
	tasks taskService
}

func NewTaskHandler(tasks taskService, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		tasks:       tasks,
	}
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	user, ok := h.currentUser(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.CreateTaskRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	res, err := h.tasks.Add(stdCtx, user, taskUC.AddPayload{
		ProjectID:    req.ProjectID,
		Title:        req.Title,
		Description:  req.Description,
		StartTime:    req.StartTime,
		FinishTime:   req.FinishTime,
		ParentTaskID: req.ParentTaskID,
	})
	h.respond(ctx, stdCtx, res, err)
}

// @Summary Patch task, optionally moving it
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	user, ok := h.currentUser(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.UpdateTaskRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	res, err := h.tasks.Update(stdCtx, user, taskUC.UpdatePayload{
		TaskID:           pathParam(ctx, "id"),
		Title:            req.Title,
		Description:      req.Description,
		AssigneeID:       req.AssigneeID,
		StartTime:        req.StartTime,
		FinishTime:       req.FinishTime,
		ParentTaskID:     req.ParentTaskID,
		MoveWithChildren: req.MoveWithChildren,
	})
	h.respond(ctx, stdCtx, res, err)
}

// @Summary Delete task, promoting its children
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	user, ok := h.currentUser(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.tasks.Delete(stdCtx, user, taskUC.DeletePayload{TaskID: pathParam(ctx, "id")})
	h.respond(ctx, stdCtx, res, err)
}

// @Summary Task detail
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	if _, ok := h.currentUser(ctx); !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.tasks.GetTaskDetail(stdCtx, taskUC.DetailPayload{TaskID: pathParam(ctx, "id")})
	h.respond(ctx, stdCtx, res, err)
}

// @Summary Task tree of a project
// @Tags tasks
// @Router /api/v1/projects/{projectId}/tasks [get]
func (h *TaskHandler) ListProjectTasks(ctx *fasthttp.RequestCtx) {
	if _, ok := h.currentUser(ctx); !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.tasks.ListProjectTasks(stdCtx, taskUC.ListPayload{ProjectID: pathParam(ctx, "projectId")})
	h.respond(ctx, stdCtx, res, err)
}
