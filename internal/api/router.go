package api

import (
	"net/http"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/api/handlers"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/middleware"
	"github.com/ailat-kz/aaoifi-chat/backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	AllowedOrigins []string
	// RateLimiter is optional.
	RateLimiter *middleware.RateLimiter
}

// NewRouter wires the middleware chain and routes. health may be nil.
func NewRouter(chat *handlers.ChatHandler, health *handlers.HealthHandler, config RouterConfig, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(config.AllowedOrigins),
	)

	if health != nil {
		r.GET("/health", health.HandleHealth)
	}

	chatRoutes := r.Group("/chat")
	if config.RateLimiter != nil {
		chatRoutes.Use(config.RateLimiter.RateLimit())
	}
	chatRoutes.GET("", chat.HandleChat)

	r.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, "Route not found", nil)
	})

	return r
}
