package api

import (
	"errors"
	"fmt"
	"net/http"

	"remindflow/internal/dto/req"
	"remindflow/internal/repository"
	"remindflow/internal/service"
	"remindflow/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgOnlyPendingEditable = "Only pending reminders can be edited"
	msgOnlyFailedRetryable = "Only failed reminders can be retried"
)

// writeError maps service and repository errors onto HTTP responses.
// invalidState is the message used for ErrInvalidState, which depends on
// the operation.
func writeError(c *gin.Context, err error, invalidState string) {
	var inUse *repository.WebhookInUseError

	switch {
	case errors.Is(err, repository.ErrReminderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
	case errors.Is(err, repository.ErrWebhookNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Webhook not found"})
	case errors.Is(err, repository.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidState})
	case errors.As(err, &inUse):
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Cannot delete: %d reminders are using this webhook", inUse.Count)})
	case errors.Is(err, service.ErrNoDefaultWebhook):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No webhook specified and no default webhook configured"})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func bindID(c *gin.Context) (uint64, bool) {
	var uri req.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uri.ID, true
}
