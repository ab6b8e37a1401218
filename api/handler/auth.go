package handler

import (
	"context"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dailywork/api/transport"
	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/pkg/httpcontext"
)

type authService interface {
	Login(ctx context.Context, login, password string) (domain.Result, error)
	Logout(ctx context.Context, sessionID string) (domain.Result, error)
}

type AuthHandler struct {
	baseHandler
	auth authService
}

func NewAuthHandler(auth authService, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		auth:        auth,
	}
}

// @Summary Log in with username or email
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.LoginRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	res, err := h.auth.Login(stdCtx, req.Login, req.Password)
	h.respond(ctx, stdCtx, res, err)
}

// @Summary Revoke the current session
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	if _, ok := h.currentUser(ctx); !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.auth.Logout(stdCtx, httpcontext.SessionID(ctx))
	h.respond(ctx, stdCtx, res, err)
}
