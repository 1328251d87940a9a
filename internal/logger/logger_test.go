package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddlewareLogsRequestWithID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := log
	log = zap.New(core)
	t.Cleanup(func() { log = prev })

	e := echo.New()
	var fromCtx *zap.Logger
	e.GET("/ping", func(c echo.Context) error {
		fromCtx = FromContext(c.Request().Context())
		return c.String(http.StatusTeapot, "pong")
	}, Middleware())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.NotNil(t, fromCtx)
	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, "/ping", fields["path"])
}

func TestMiddlewareRecordsErrorStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := log
	log = zap.New(core)
	t.Cleanup(func() { log = prev })

	e := echo.New()
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	}, Middleware())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(http.StatusNotFound), entries[0].ContextMap()["status"])
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	assert.Equal(t, GetLogger(), FromContext(context.Background()))
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, GetLogger(), FromEcho(c))
}

func TestInitLoggerDevelopment(t *testing.T) {
	prev := log
	t.Cleanup(func() { log = prev; zap.ReplaceGlobals(prev) })
	require.NoError(t, InitLogger(&LogConfig{Level: "debug", Environment: "dev", ServiceName: "test"}))
	assert.True(t, GetLogger().Core().Enabled(zap.DebugLevel))
}
