package api

import (
	"net/http"

	"github.com/comment-moderation-api/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields []apperr.FieldError `json:"fields,omitempty"`
}

// statusFor maps a domain error to its HTTP status
func statusFor(e *apperr.Error) int {
	switch e.Kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindDuplicate:
		return http.StatusConflict
	case apperr.KindStateConflict:
		if e.Code == apperr.CodeEditWindowExpired {
			return http.StatusGone
		}
		return http.StatusConflict
	case apperr.KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Unclassified errors are logged and
// answered with a bare 500 so storage details never reach the client.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindInternal {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, errorBody{
			Error: "internal server error",
			Code:  apperr.CodeInternal,
		})
		return
	}

	c.JSON(statusFor(e), errorBody{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	})
}

// abortWithError is respondError for middleware; it never sees internal errors
func abortWithError(c *gin.Context, e *apperr.Error) {
	c.AbortWithStatusJSON(statusFor(e), errorBody{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	})
}

// badRequest answers a malformed body or query parameter
func badRequest(c *gin.Context, field, msg string) {
	abortWithError(c, apperr.Invalid(field, msg))
}
