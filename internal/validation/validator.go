package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/comment-moderation-api/internal/apperr"
	"github.com/comment-moderation-api/internal/models"
	"github.com/google/uuid"
)

const (
	maxGuestNameLength    = 80
	maxRejectReasonLength = 500
	maxFilterPattern      = 255
	maxPageLimit          = 100
)

// Validator checks request payloads and reports every field problem at once
type Validator struct {
	maxContentLength int
}

// NewValidator creates a new validator instance
func NewValidator(maxContentLength int) *Validator {
	if maxContentLength <= 0 {
		maxContentLength = models.MaxCommentLength
	}
	return &Validator{maxContentLength: maxContentLength}
}

// storable rejects text PostgreSQL cannot hold in a TEXT column
func storable(field, s string) *apperr.FieldError {
	if !utf8.ValidString(s) {
		return &apperr.FieldError{Field: field, Message: field + " must be valid UTF-8"}
	}
	if strings.ContainsRune(s, 0) {
		return &apperr.FieldError{Field: field, Message: field + " must not contain NUL characters"}
	}
	return nil
}

// Content validates comment text and returns it trimmed
func (v *Validator) Content(content string) (string, []apperr.FieldError) {
	if fe := storable("content", content); fe != nil {
		return "", []apperr.FieldError{*fe}
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", []apperr.FieldError{{Field: "content", Message: "content is required"}}
	}
	if n := utf8.RuneCountInString(trimmed); n > v.maxContentLength {
		return "", []apperr.FieldError{{
			Field:   "content",
			Message: fmt.Sprintf("content exceeds maximum of %d characters (has %d)", v.maxContentLength, n),
		}}
	}
	return trimmed, nil
}

// ValidateCreate validates a new comment; guests must supply a name
func (v *Validator) ValidateCreate(req *models.CreateCommentRequest, guest bool) []apperr.FieldError {
	var errors []apperr.FieldError

	if req.ArticleID == "" {
		errors = append(errors, apperr.FieldError{Field: "article_id", Message: "article_id is required"})
	} else if !IsUUID(req.ArticleID) {
		errors = append(errors, apperr.FieldError{Field: "article_id", Message: "invalid UUID format"})
	}

	if req.ParentID != nil && !IsUUID(*req.ParentID) {
		errors = append(errors, apperr.FieldError{Field: "parent_id", Message: "invalid UUID format"})
	}

	if content, errs := v.Content(req.Content); len(errs) > 0 {
		errors = append(errors, errs...)
	} else {
		req.Content = content
	}

	name := strings.TrimSpace(req.GuestName)
	switch {
	case storable("guest_name", name) != nil:
		errors = append(errors, *storable("guest_name", name))
	case guest && name == "":
		errors = append(errors, apperr.FieldError{Field: "guest_name", Message: "guest_name is required for guest comments"})
	case utf8.RuneCountInString(name) > maxGuestNameLength:
		errors = append(errors, apperr.FieldError{
			Field:   "guest_name",
			Message: fmt.Sprintf("guest_name exceeds maximum of %d characters", maxGuestNameLength),
		})
	}
	req.GuestName = name

	return errors
}

// ValidateReport validates a report reason and description
func (v *Validator) ValidateReport(req *models.ReportRequest) []apperr.FieldError {
	var errors []apperr.FieldError

	req.Reason = strings.TrimSpace(strings.ToLower(req.Reason))
	if req.Reason == "" {
		errors = append(errors, apperr.FieldError{Field: "reason", Message: "reason is required"})
	} else if !models.ValidReportReasons[req.Reason] {
		errors = append(errors, apperr.FieldError{
			Field:   "reason",
			Message: "invalid reason, must be one of: spam, abuse, harassment, misinformation, off_topic, other",
		})
	}

	req.Description = strings.TrimSpace(req.Description)
	if fe := storable("description", req.Description); fe != nil {
		errors = append(errors, *fe)
	} else if utf8.RuneCountInString(req.Description) > models.MaxReportDescription {
		errors = append(errors, apperr.FieldError{
			Field:   "description",
			Message: fmt.Sprintf("description exceeds maximum of %d characters", models.MaxReportDescription),
		})
	}

	return errors
}

// ValidateRejectReason requires a moderator to explain a rejection
func (v *Validator) ValidateRejectReason(reason string) (string, []apperr.FieldError) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", []apperr.FieldError{{Field: "reason", Message: "reason is required"}}
	}
	if fe := storable("reason", reason); fe != nil {
		return "", []apperr.FieldError{*fe}
	}
	if utf8.RuneCountInString(reason) > maxRejectReasonLength {
		return "", []apperr.FieldError{{
			Field:   "reason",
			Message: fmt.Sprintf("reason exceeds maximum of %d characters", maxRejectReasonLength),
		}}
	}
	return reason, nil
}

// ValidateFilter validates one spam filter; index prefixes field names in batch requests
func (v *Validator) ValidateFilter(f *models.SpamFilter, index int) []apperr.FieldError {
	var errors []apperr.FieldError
	field := func(name string) string {
		return fmt.Sprintf("filters[%d].%s", index, name)
	}

	f.Pattern = strings.TrimSpace(f.Pattern)
	if f.Pattern == "" {
		errors = append(errors, apperr.FieldError{Field: field("pattern"), Message: "pattern is required"})
	} else if len(f.Pattern) > maxFilterPattern {
		errors = append(errors, apperr.FieldError{Field: field("pattern"), Message: "pattern is too long"})
	}

	switch f.Kind {
	case models.FilterKindKeyword:
	case models.FilterKindRegex:
		if f.Pattern != "" {
			if _, err := regexp.Compile(f.Pattern); err != nil {
				errors = append(errors, apperr.FieldError{Field: field("pattern"), Message: "pattern is not a valid regular expression"})
			}
		}
	default:
		errors = append(errors, apperr.FieldError{Field: field("kind"), Message: "invalid kind, must be one of: keyword, regex"})
	}

	if f.Severity < 1 || f.Severity > 10 {
		errors = append(errors, apperr.FieldError{Field: field("severity"), Message: "severity must be between 1 and 10"})
	}

	if f.Action != models.FilterActionFlag && f.Action != models.FilterActionBlock {
		errors = append(errors, apperr.FieldError{Field: field("action"), Message: "invalid action, must be one of: flag, block"})
	}

	return errors
}

// ValidateListQuery normalizes pagination and checks the status filter
func (v *Validator) ValidateListQuery(q *models.ListQuery) []apperr.FieldError {
	var errors []apperr.FieldError

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
	if q.Limit > maxPageLimit {
		errors = append(errors, apperr.FieldError{
			Field:   "limit",
			Message: fmt.Sprintf("limit must not exceed %d", maxPageLimit),
		})
	}
	if q.Status != "" && q.Status != "all" && !models.CommentStatus(q.Status).Valid() {
		errors = append(errors, apperr.FieldError{
			Field:   "status",
			Message: "invalid status, must be one of: pending, visible, reported, rejected, deleted, all",
		})
	}

	return errors
}

// ValidateID checks a single id parameter
func ValidateID(field, id string) error {
	if !IsUUID(id) {
		return apperr.Invalid(field, "invalid UUID format")
	}
	return nil
}

// IsUUID checks if a string is a valid UUID
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
