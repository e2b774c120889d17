package api

import (
	"context"
	"net/http"

	"remindflow/internal/dto/req"
	"remindflow/internal/dto/resp"
	"remindflow/internal/model"

	"github.com/gin-gonic/gin"
)

type WebhookProvider interface {
	List(ctx context.Context) ([]model.Webhook, error)
	Create(ctx context.Context, r req.CreateWebhookRequest) (*model.Webhook, error)
	Update(ctx context.Context, id uint64, r req.UpdateWebhookRequest) (*model.Webhook, error)
	Delete(ctx context.Context, id uint64) error
	Health(ctx context.Context) error
}

type WebhookHandler struct {
	service WebhookProvider
}

func NewWebhookHandler(service WebhookProvider) *WebhookHandler {
	return &WebhookHandler{service: service}
}

func (h *WebhookHandler) ListWebhooks(c *gin.Context) {
	webhooks, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "")
		return
	}
	if webhooks == nil {
		webhooks = []model.Webhook{}
	}
	c.JSON(http.StatusOK, webhooks)
}

func (h *WebhookHandler) CreateWebhook(c *gin.Context) {
	var r req.CreateWebhookRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and URL are required"})
		return
	}

	webhook, err := h.service.Create(c.Request.Context(), r)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, webhook)
}

func (h *WebhookHandler) UpdateWebhook(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var r req.UpdateWebhookRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON format error"})
		return
	}

	webhook, err := h.service.Update(c.Request.Context(), id, r)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, webhook)
}

func (h *WebhookHandler) DeleteWebhook(c *gin.Context) {
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

func (h *WebhookHandler) HealthCheck(c *gin.Context) {
	if err := h.service.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
