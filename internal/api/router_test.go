package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/api/handlers"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/health"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type constAnswerer string

func (a constAnswerer) Answer(context.Context, string) (string, error) { return string(a), nil }

func testRouter(t *testing.T, checks []health.Check, rl *middleware.RateLimiter) *gin.Engine {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	chat := handlers.NewChatHandler(constAnswerer("Murabaha is a sale"), time.Minute, logger)
	hh := handlers.NewHealthHandler(health.NewHealthChecker(checks, nil, nil, logger))
	return NewRouter(chat, hh, RouterConfig{
		AllowedOrigins: []string{"https://www.ailat.kz", "https://ailat.kz"},
		RateLimiter:    rl,
	}, logger)
}

func do(r http.Handler, method, target, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", "GET")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Chat(t *testing.T) {
	r := testRouter(t, nil, nil)

	w := do(r, http.MethodGet, "/chat?question=What%20is%20murabaha", "https://www.ailat.kz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Murabaha is a sale", w.Body.String())
	assert.Equal(t, "https://www.ailat.kz", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/chat?question=x", "https://example.com").Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodOptions, "/chat", "https://ailat.kz").Code)

	w = do(r, http.MethodGet, "/search", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Route not found"}`, w.Body.String())
}

func TestRouter_RateLimitAppliesToChatOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := testRouter(t, nil, middleware.NewRateLimiter(ctx, 1))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/chat?question=x", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/chat?question=x", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "").Code)
}

func TestRouter_Health(t *testing.T) {
	down := func(context.Context) error { return assert.AnError }
	up := func(context.Context) error { return nil }

	r := testRouter(t, []health.Check{{Name: "openai", Critical: true, Ping: up}, {Name: "redis", Ping: down}}, nil)
	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)

	r = testRouter(t, []health.Check{{Name: "openai", Critical: true, Ping: down}}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/health", "").Code)
}
