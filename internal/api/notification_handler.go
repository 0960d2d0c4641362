package api

import (
	"net/http"

	"github.com/comment-moderation-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NotificationHandler handles the notification inbox
type NotificationHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(services *service.Services, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		services: services,
		log:      log.With().Str("handler", "notifications").Logger(),
	}
}

// List handles GET /v1/notifications?unread&limit
func (h *NotificationHandler) List(c *gin.Context) {
	unread, ok := boolQuery(c, "unread")
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}

	list, err := h.services.Notifications.List(c.Request.Context(), actorFrom(c), unread, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// MarkRead handles PUT /v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.Notifications.MarkRead(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "read": true})
}
