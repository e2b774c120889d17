package api

import (
	"context"
	"net/http"

	"remindflow/internal/dto/req"
	"remindflow/internal/dto/resp"
	"remindflow/internal/model"

	"github.com/gin-gonic/gin"
)

type ReminderProvider interface {
	Create(ctx context.Context, r req.CreateReminderRequest) (*model.Reminder, error)
	Get(ctx context.Context, id uint64) (*model.Reminder, error)
	List(ctx context.Context, r req.ListRemindersRequest) (*resp.ListRemindersResponse, error)
	Update(ctx context.Context, id uint64, r req.UpdateReminderRequest) (*model.Reminder, error)
	Delete(ctx context.Context, id uint64) error
	Retry(ctx context.Context, id uint64) (*model.Reminder, error)
	Stats(ctx context.Context) (*resp.StatsResponse, error)
}

type ReminderHandler struct {
	service ReminderProvider
}

func NewReminderHandler(service ReminderProvider) *ReminderHandler {
	return &ReminderHandler{service: service}
}

func (h *ReminderHandler) ListReminders(c *gin.Context) {
	var r req.ListRemindersRequest
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid params"})
		return
	}

	list, err := h.service.List(c.Request.Context(), r)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ReminderHandler) CreateReminder(c *gin.Context) {
	var r req.CreateReminderRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and remind time are required"})
		return
	}

	reminder, err := h.service.Create(c.Request.Context(), r)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, resp.NewReminderItem(reminder))
}

func (h *ReminderHandler) GetReminder(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	reminder, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, resp.NewReminderItem(reminder))
}

func (h *ReminderHandler) UpdateReminder(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var r req.UpdateReminderRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON format error"})
		return
	}

	reminder, err := h.service.Update(c.Request.Context(), id, r)
	if err != nil {
		writeError(c, err, msgOnlyPendingEditable)
		return
	}
	c.JSON(http.StatusOK, resp.NewReminderItem(reminder))
}

func (h *ReminderHandler) DeleteReminder(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, resp.SuccessResponse{Success: true})
}

func (h *ReminderHandler) RetryReminder(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	reminder, err := h.service.Retry(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, msgOnlyFailedRetryable)
		return
	}
	c.JSON(http.StatusOK, resp.NewReminderItem(reminder))
}

func (h *ReminderHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}
