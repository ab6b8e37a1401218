package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dailywork/api/transport"
	"github.com/fastygo/dailywork/domain"
	"github.com/fastygo/dailywork/pkg/httpcontext"
)

// SessionVerifier resolves a bearer token to a live session.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Session, error)
}

// Auth admits requests carrying a valid bearer token and exposes the user and
// session ids to handlers through the X-User-ID and X-Session-ID headers.
// Client-supplied values of those headers are always discarded.
func Auth(verifier SessionVerifier, timeout time.Duration, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			ctx.Request.Header.Del(httpcontext.HeaderUserID)
			ctx.Request.Header.Del(httpcontext.HeaderSessionID)

			token := extractToken(ctx)
			if token == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			verifyCtx, cancel := context.WithTimeout(context.Background(), timeout)
			session, err := verifier.Verify(verifyCtx, token)
			cancel()
			if err != nil {
				status, _ := domain.StatusOf(err)
				if status >= http.StatusInternalServerError {
					logger.Error("session verification failed", zap.Error(err))
					respond(ctx, transport.FromError(err))
					return
				}
				logger.Debug("request rejected", zap.Error(err))
				unauthorized(ctx, domain.PublicMessage(err))
				return
			}

			ctx.Request.Header.Set(httpcontext.HeaderUserID, session.UserID)
			ctx.Request.Header.Set(httpcontext.HeaderSessionID, session.ID)
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	ctx.Response.Header.Set("WWW-Authenticate", `Bearer realm="dailywork"`)
	respond(ctx, transport.NewError(http.StatusUnauthorized, message))
}

func respond(ctx *fasthttp.RequestCtx, envelope transport.Envelope) {
	body, _ := json.Marshal(envelope)
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(envelope.Code)
	ctx.SetBody(body)
}
