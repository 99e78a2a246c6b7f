package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse writes a JSON error body for the non-chat routes.
func ErrorResponse(c *gin.Context, code int, message string, err error) {
	response := APIResponse{
		Success: false,
		Message: message,
	}

	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(code, response)
}

// TextResponse writes a plain-text body, which is what the website's chat
// widget renders.
func TextResponse(c *gin.Context, code int, body string) {
	c.Data(code, "text/plain; charset=utf-8", []byte(body))
}

// TextError writes "Error: {message}" and aborts the chain.
func TextError(c *gin.Context, code int, err error) {
	msg := http.StatusText(code)
	if err != nil {
		msg = err.Error()
	}
	c.Abort()
	TextResponse(c, code, "Error: "+msg)
}
