package api

import (
	"time"

	"github.com/comment-moderation-api/internal/apperr"
	"github.com/comment-moderation-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const defaultExportPeriod = 30 * 24 * time.Hour

// ExportHandler handles streaming export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamReports handles GET /v1/moderation/reports/export?format=ndjson|json|csv&since=
func (h *ExportHandler) StreamReports(c *gin.Context) {
	since, ok := sinceQuery(c, defaultExportPeriod)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "ndjson")

	err := h.services.Export.StreamReports(c.Request.Context(), actorFrom(c), c.Writer, format, since)
	h.finish(c, err, "reports")
}

// StreamNotifications handles GET /v1/notifications/feed?since=
func (h *ExportHandler) StreamNotifications(c *gin.Context) {
	since, ok := sinceQuery(c, 24*time.Hour)
	if !ok {
		return
	}

	err := h.services.Export.StreamNotifications(c.Request.Context(), actorFrom(c), c.Writer, since)
	h.finish(c, err, "notifications")
}

// finish reports an error as JSON only while nothing has been streamed yet
func (h *ExportHandler) finish(c *gin.Context, err error, resource string) {
	if err == nil {
		return
	}
	if !c.Writer.Written() {
		respondError(c, h.log, err)
		return
	}
	h.log.Error().Err(err).Str("resource", resource).Msg("Export failed mid-stream")
}

// sinceQuery parses an RFC3339 `since`, defaulting to now minus fallback
func sinceQuery(c *gin.Context, fallback time.Duration) (time.Time, bool) {
	raw := c.Query("since")
	if raw == "" {
		return time.Now().UTC().Add(-fallback), true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		abortWithError(c, apperr.Invalid("since", "since must be an RFC3339 timestamp"))
		return time.Time{}, false
	}
	return t, true
}
