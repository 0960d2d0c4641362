package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"time"

	"github.com/comment-moderation-api/internal/apperr"
	"github.com/comment-moderation-api/internal/models"
	"github.com/rs/zerolog"
)

const flushEvery = 100

// exportService is the concrete implementation of ExportService
type exportService struct {
	*deps
	log zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(d *deps) *exportService {
	return &exportService{
		deps: d,
		log:  d.log.With().Str("service", "export").Logger(),
	}
}

// StreamReports streams report rows created since `since` as ndjson, json or csv
func (s *exportService) StreamReports(ctx context.Context, actor models.Actor, w http.ResponseWriter, format string, since time.Time) error {
	if err := requireModerator(actor); err != nil {
		return err
	}
	s.log.Info().Str("format", format).Time("since", since).Msg("Starting reports export")

	switch format {
	case "", "ndjson":
		return s.streamReportsNDJSON(ctx, w, since)
	case "json":
		return s.streamReportsJSON(ctx, w, since)
	case "csv":
		return s.streamReportsCSV(ctx, w, since)
	default:
		return apperr.Invalid("format", "format must be one of ndjson, json, csv")
	}
}

// StreamNotifications is the delivery feed: every notification since `since` as ndjson
func (s *exportService) StreamNotifications(ctx context.Context, actor models.Actor, w http.ResponseWriter, since time.Time) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	count := 0

	err := s.store.Repos().Notification.StreamSince(ctx, since, func(n *models.Notification) error {
		if err := enc.Encode(n); err != nil {
			return err
		}
		count++
		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	s.log.Info().Int("count", count).Msg("Notification feed completed")
	return wrap(err, "export: notifications")
}

func (s *exportService) streamReportsNDJSON(ctx context.Context, w http.ResponseWriter, since time.Time) error {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=reports.ndjson")

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	count := 0

	err := s.store.Repos().Report.StreamSince(ctx, since, func(r *models.Report) error {
		if err := enc.Encode(r); err != nil {
			return err
		}
		count++
		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	s.log.Info().Int("count", count).Msg("Reports export completed")
	return wrap(err, "export: reports")
}

func (s *exportService) streamReportsJSON(ctx context.Context, w http.ResponseWriter, since time.Time) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=reports.json")

	if _, err := w.Write([]byte("[")); err != nil {
		return err
	}
	first := true

	err := s.store.Repos().Report.StreamSince(ctx, since, func(r *models.Report) error {
		if !first {
			if _, err := w.Write([]byte(",")); err != nil {
				return err
			}
		}
		first = false

		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})

	if _, werr := w.Write([]byte("]")); err == nil {
		err = werr
	}
	return wrap(err, "export: reports")
}

func (s *exportService) streamReportsCSV(ctx context.Context, w http.ResponseWriter, since time.Time) error {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=reports.csv")

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "comment_id", "user_id", "reason", "description", "created_at"}); err != nil {
		return err
	}

	err := s.store.Repos().Report.StreamSince(ctx, since, func(r *models.Report) error {
		return writer.Write([]string{
			r.ID,
			r.CommentID,
			r.UserID,
			r.Reason,
			r.Description,
			r.CreatedAt.UTC().Format(time.RFC3339),
		})
	})

	writer.Flush()
	if err == nil {
		err = writer.Error()
	}
	return wrap(err, "export: reports")
}
