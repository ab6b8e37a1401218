package router

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/dailywork/api/handler"
	"github.com/fastygo/dailywork/internal/infrastructure/monitor"
)

type fixedStatus monitor.Status

func (s fixedStatus) GetStatus() monitor.Status { return monitor.Status(s) }

func denyAll(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(http.StatusTeapot)
	}
}

func serve(method, path string) int {
	r := New(Handlers{
		User:     apiHandler.NewUserHandler(nil, nil, nil),
		Auth:     apiHandler.NewAuthHandler(nil, nil, nil),
		Task:     apiHandler.NewTaskHandler(nil, nil, nil),
		Activity: apiHandler.NewActivityHandler(nil, nil, nil),
		Health:   apiHandler.NewHealthHandler(fixedStatus{PostgreSQL: true, Redis: true, Journal: true}, nil, nil),
	}, denyAll)

	var rc fasthttp.RequestCtx
	rc.Request.Header.SetMethod(method)
	rc.Request.SetRequestURI(path)
	r.Handler(&rc)
	return rc.Response.StatusCode()
}

func TestProtectedRoutesGoThroughMiddleware(t *testing.T) {
	for _, route := range [][2]string{
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodPost, "/api/v1/tasks"},
		{http.MethodGet, "/api/v1/tasks/t1"},
		{http.MethodPut, "/api/v1/tasks/t1"},
		{http.MethodDelete, "/api/v1/tasks/t1"},
		{http.MethodGet, "/api/v1/tasks/t1/activity"},
		{http.MethodGet, "/api/v1/projects/p1/tasks"},
	} {
		assert.Equal(t, http.StatusTeapot, serve(route[0], route[1]), route[1])
	}
}

func TestPublicRoutes(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/health"))
	assert.Equal(t, http.StatusBadRequest, serve(http.MethodPost, "/api/v1/users/register"), "empty body")
	assert.Equal(t, http.StatusBadRequest, serve(http.MethodPost, "/api/v1/auth/login"))
	assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, "/api/v1/profile"))
}
