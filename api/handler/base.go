package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dailywork/api/transport"
	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/pkg/httpcontext"
	"github.com/fastygo/dailywork/pkg/logger"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return h.adapter.Attach(ctx)
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("response encoding failed", zap.Error(err))
		ctx.SetStatusCode(http.StatusInternalServerError)
		body = []byte(`{"code":500,"message":"internal error","result":null}`)
	}
	ctx.SetBody(body)
}

// respond writes a use case outcome. Declined results keep their own code
// as the HTTP status.
func (h baseHandler) respond(ctx *fasthttp.RequestCtx, stdCtx context.Context, res domain.Result, err error) {
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	status := res.Code
	if status == 0 {
		status = http.StatusOK
	}
	h.respondJSON(ctx, status, transport.FromResult(res))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	status, envelope := mapError(err)
	if status >= http.StatusInternalServerError {
		logger.WithRequestID(stdCtx, h.logger).Error("request failed",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Error(err))
	}
	h.respondJSON(ctx, status, envelope)
}

// mapError is the single place faults become HTTP statuses.
func mapError(err error) (int, transport.Envelope) {
	envelope := transport.FromError(err)
	return envelope.Code, envelope
}

// currentUser returns the user set by the auth middleware, answering 401
// itself when there is none.
func (h baseHandler) currentUser(ctx *fasthttp.RequestCtx) (*domain.User, bool) {
	userID := httpcontext.UserID(ctx)
	if userID == "" {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(http.StatusUnauthorized, "authentication required"))
		return nil, false
	}
	return &domain.User{ID: userID}, true
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	value, _ := ctx.UserValue(name).(string)
	return value
}

func queryInt(ctx *fasthttp.RequestCtx, name string, fallback int) int {
	if v, err := strconv.Atoi(string(ctx.QueryArgs().Peek(name))); err == nil {
		return v
	}
	return fallback
}
