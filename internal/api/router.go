package api

import (
	"context"
	"net/http"
	"time"

	"github.com/comment-moderation-api/internal/config"
	"github.com/comment-moderation-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router. health may be nil.
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger, health HealthChecker) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())
	router.Use(authMiddleware(cfg.Auth.JWTSecret, log))
	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerSecond > 0 {
		router.Use(rateLimitMiddleware(cfg.RateLimit))
	}

	// Handlers
	commentHandler := NewCommentHandler(services, log)
	engagementHandler := NewEngagementHandler(services, log)
	moderationHandler := NewModerationHandler(services, log)
	notificationHandler := NewNotificationHandler(services, log)
	exportHandler := NewExportHandler(services, log)

	router.GET("/health", healthCheck(health))

	v1 := router.Group("/v1")
	{
		comments := v1.Group("/comments")
		{
			comments.POST("", commentHandler.Create)
			comments.GET("/:id", commentHandler.Get)
			comments.PUT("/:id", requireAuth(), commentHandler.Edit)
			comments.DELETE("/:id", requireAuth(), commentHandler.Delete)

			comments.POST("/:id/like", requireAuth(), engagementHandler.Like)
			comments.DELETE("/:id/like", requireAuth(), engagementHandler.Unlike)
			comments.POST("/:id/report", requireAuth(), engagementHandler.Report)

			comments.POST("/:id/approve", requireAuth(), moderationHandler.Approve)
			comments.POST("/:id/reject", requireAuth(), moderationHandler.Reject)
		}

		v1.GET("/articles/:id/comments", commentHandler.ListForArticle)

		moderation := v1.Group("/moderation", requireAuth())
		{
			moderation.GET("/queue", moderationHandler.Queue)
			moderation.GET("/stats", moderationHandler.Stats)
			moderation.PUT("/filters", moderationHandler.UpsertFilters)
			moderation.GET("/reports/export", exportHandler.StreamReports)
		}

		notifications := v1.Group("/notifications", requireAuth())
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/feed", exportHandler.StreamNotifications)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}
	}

	return router
}

// healthCheck returns the health status, including the database when one is wired
func healthCheck(health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "comment-moderation-api",
		}

		if health != nil {
			ctx, cancel := contextWithTimeout(c, 2*time.Second)
			defer cancel()
			if err := health.HealthCheck(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
				body["database"] = "unreachable"
			} else {
				body["database"] = "ok"
			}
		}

		c.JSON(status, body)
	}
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
