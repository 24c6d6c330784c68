package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/sang1833/EnglishPractice-sub000/internal/lock"
	"github.com/sang1833/EnglishPractice-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

func SuccessResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	response := APIResponse{
		Success: false,
		Message: message,
	}

	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(statusCode, response)
}

func BadRequestResponse(c *gin.Context, message string, err error) {
	ErrorResponse(c, http.StatusBadRequest, message, err)
}

// ServiceErrorResponse maps business failures to 404 or 400 and a busy
// attempt lock to a retryable 503. Anything else is logged and reported as a
// 500 without details.
func ServiceErrorResponse(c *gin.Context, err error) {
	if errors.Is(err, lock.ErrTimeout) {
		c.Header("Retry-After", "1")
		ErrorResponse(c, http.StatusServiceUnavailable, "Attempt is busy, try again", nil)
		return
	}

	switch service.KindOf(err) {
	case service.KindNotFound:
		ErrorResponse(c, http.StatusNotFound, err.Error(), nil)
	case service.KindInvalidState, service.KindValidation:
		ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
	default:
		log.Printf("[Handler] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		_ = c.Error(err)
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}
