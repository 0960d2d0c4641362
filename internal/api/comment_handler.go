package api

import (
	"net/http"
	"strconv"

	"github.com/comment-moderation-api/internal/models"
	"github.com/comment-moderation-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CommentHandler handles comment lifecycle endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comments").Logger(),
	}
}

type editRequest struct {
	Content string `json:"content"`
}

// Create handles POST /v1/comments. Guests may post when they supply a name.
func (h *CommentHandler) Create(c *gin.Context) {
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", "invalid request body")
		return
	}

	comment, err := h.services.Comments.Create(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Get handles GET /v1/comments/:id
func (h *CommentHandler) Get(c *gin.Context) {
	comment, err := h.services.Comments.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Edit handles PUT /v1/comments/:id
func (h *CommentHandler) Edit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", "invalid request body")
		return
	}

	comment, err := h.services.Comments.Edit(c.Request.Context(), actorFrom(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Delete handles DELETE /v1/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	result, err := h.services.Comments.Delete(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListForArticle handles GET /v1/articles/:id/comments?status&top_level&page&limit
func (h *CommentHandler) ListForArticle(c *gin.Context) {
	q, ok := listQuery(c)
	if !ok {
		return
	}
	if q.TopLevel, ok = boolQuery(c, "top_level"); !ok {
		return
	}

	page, err := h.services.Comments.ListForArticle(c.Request.Context(), actorFrom(c), c.Param("id"), q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// listQuery reads status, page and limit; it answers 400 itself on bad input
func listQuery(c *gin.Context) (models.ListQuery, bool) {
	q := models.ListQuery{Status: c.Query("status")}

	var ok bool
	if q.Page, ok = intQuery(c, "page"); !ok {
		return q, false
	}
	if q.Limit, ok = intQuery(c, "limit"); !ok {
		return q, false
	}
	return q, true
}

// boolQuery parses an optional boolean parameter; absent means false
func boolQuery(c *gin.Context, name string) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return false, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, name, name+" must be a boolean")
		return false, false
	}
	return b, true
}

// intQuery parses an optional non-negative integer parameter; absent means 0
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, name, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
