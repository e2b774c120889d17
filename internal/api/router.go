package api

import (
	"remindflow/internal/config"
	"remindflow/internal/metrics"
	"remindflow/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RegisterRoutes builds the engine. rdb may be nil, in which case write
// endpoints are rate limited in-process only.
func RegisterRoutes(reminderHandler *ReminderHandler, webhookHandler *WebhookHandler, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	r := gin.New()

	r.Use(
		middleware.CorsMiddleware(),
		middleware.RequestID(),
		middleware.TraceMiddleware(),
		middleware.GinZapLogger(),
		middleware.GinZapRecovery(),
		middleware.HttpMiddleware(),
	)
	r.SetTrustedProxies(nil)

	// Public Routes
	r.GET("/health", webhookHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	protected := r.Group("/v1")
	protected.Use(middleware.JWTMiddleware(cfg.Auth.JWTSecret, cfg.Auth.DevMode))

	writeLimiter := middleware.RateLimitMiddleware(rdb, cfg.RateLimit.RequestsPerSecond)

	{
		protected.GET("/reminders", reminderHandler.ListReminders)
		protected.POST("/reminders", writeLimiter, reminderHandler.CreateReminder)
		protected.GET("/reminders/:id", reminderHandler.GetReminder)
		protected.PUT("/reminders/:id", writeLimiter, reminderHandler.UpdateReminder)
		protected.DELETE("/reminders/:id", writeLimiter, reminderHandler.DeleteReminder)
		protected.POST("/reminders/:id/retry", writeLimiter, reminderHandler.RetryReminder)
		protected.GET("/stats", reminderHandler.Stats)

		protected.GET("/webhooks", webhookHandler.ListWebhooks)
		protected.POST("/webhooks", writeLimiter, webhookHandler.CreateWebhook)
		protected.PUT("/webhooks/:id", writeLimiter, webhookHandler.UpdateWebhook)
		protected.DELETE("/webhooks/:id", writeLimiter, webhookHandler.DeleteWebhook)
	}
	return r
}
