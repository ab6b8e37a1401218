package handler

import (
	"context"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dailywork/api/transport"
	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/pkg/httpcontext"
)

type userService interface {
	Register(ctx context.Context, reg domain.Registration) (domain.Result, error)
}

type UserHandler struct {
	baseHandler
	users userService
}

func NewUserHandler(users userService, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		users:       users,
	}
}

// @Summary Register an account
// @Tags users
// @Router /api/v1/users/register [post]
func (h *UserHandler) Register(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.RegisterRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	res, err := h.users.Register(stdCtx, domain.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	h.respond(ctx, stdCtx, res, err)
}
