package api

import (
	"net/http"

	"github.com/comment-moderation-api/internal/models"
	"github.com/comment-moderation-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ModerationHandler handles moderator endpoints
type ModerationHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewModerationHandler creates a new ModerationHandler
func NewModerationHandler(services *service.Services, log zerolog.Logger) *ModerationHandler {
	return &ModerationHandler{
		services: services,
		log:      log.With().Str("handler", "moderation").Logger(),
	}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type filtersRequest struct {
	Filters []*models.SpamFilter `json:"filters"`
}

// Approve handles POST /v1/comments/:id/approve
func (h *ModerationHandler) Approve(c *gin.Context) {
	comment, err := h.services.Moderation.Approve(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Reject handles POST /v1/comments/:id/reject
func (h *ModerationHandler) Reject(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", "invalid request body")
		return
	}

	comment, err := h.services.Moderation.Reject(c.Request.Context(), actorFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Queue handles GET /v1/moderation/queue
func (h *ModerationHandler) Queue(c *gin.Context) {
	q, ok := listQuery(c)
	if !ok {
		return
	}

	page, err := h.services.Moderation.Queue(c.Request.Context(), actorFrom(c), q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Stats handles GET /v1/moderation/stats?days=
func (h *ModerationHandler) Stats(c *gin.Context) {
	days, ok := intQuery(c, "days")
	if !ok {
		return
	}

	stats, err := h.services.Moderation.Stats(c.Request.Context(), actorFrom(c), days)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UpsertFilters handles PUT /v1/moderation/filters
func (h *ModerationHandler) UpsertFilters(c *gin.Context) {
	var req filtersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", "invalid request body")
		return
	}

	filters, err := h.services.Moderation.UpsertFilters(c.Request.Context(), actorFrom(c), req.Filters)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"filters": filters})
}
