package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/middleware"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/services"
	"github.com/ailat-kz/aaoifi-chat/backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Answerer produces the answer for one question.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

type ChatHandler struct {
	answerer Answerer
	timeout  time.Duration
	logger   *logrus.Logger
}

func NewChatHandler(answerer Answerer, timeout time.Duration, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		answerer: answerer,
		timeout:  timeout,
		logger:   logger,
	}
}

// HandleChat serves GET /chat?question=... with a plain-text body.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req models.ChatQuery
	_ = c.ShouldBindQuery(&req)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		utils.TextResponse(c, http.StatusBadRequest, "No question provided")
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	answer, err := h.answerer.Answer(ctx, question)
	if err != nil {
		if errors.Is(err, services.ErrEmptyInput) {
			utils.TextResponse(c, http.StatusBadRequest, "No question provided")
			return
		}
		h.logger.WithError(err).WithField("request_id", c.GetString(middleware.RequestIDKey)).Error("Chat request failed")
		_ = c.Error(err)
		utils.TextError(c, http.StatusInternalServerError, err)
		return
	}

	utils.TextResponse(c, http.StatusOK, answer)
}
