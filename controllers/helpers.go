package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nutriscan/middlewares"
	"nutriscan/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func requestID(c *gin.Context) string {
	if id := c.GetString(middlewares.ContextRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}

// withDeadline bounds a handler's work; zero means no deadline.
func withDeadline(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), d)
}

func analysisStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNoFoodRecognized):
		return http.StatusBadRequest, "No food items found in text"
	case errors.Is(err, services.ErrInvalidImage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrImageRecognitionDisabled):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "Error analyzing food: " + err.Error()
	}
}
