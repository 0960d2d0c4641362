package api

import (
	"net/http"

	"github.com/comment-moderation-api/internal/models"
	"github.com/comment-moderation-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// EngagementHandler handles like and report endpoints
type EngagementHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewEngagementHandler creates a new EngagementHandler
func NewEngagementHandler(services *service.Services, log zerolog.Logger) *EngagementHandler {
	return &EngagementHandler{
		services: services,
		log:      log.With().Str("handler", "engagement").Logger(),
	}
}

// Like handles POST /v1/comments/:id/like
func (h *EngagementHandler) Like(c *gin.Context) {
	result, err := h.services.Engagement.AddLike(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Unlike handles DELETE /v1/comments/:id/like
func (h *EngagementHandler) Unlike(c *gin.Context) {
	result, err := h.services.Engagement.RemoveLike(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Report handles POST /v1/comments/:id/report
func (h *EngagementHandler) Report(c *gin.Context) {
	var req models.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", "invalid request body")
		return
	}

	report, err := h.services.Engagement.AddReport(c.Request.Context(), actorFrom(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}
