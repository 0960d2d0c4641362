package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/comment-moderation-api/internal/apperr"
	"github.com/comment-moderation-api/internal/config"
	"github.com/comment-moderation-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const actorKey = "actor"

// Claims is the bearer token payload: sub is the user id
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
					Error: "internal server error",
					Code:  apperr.CodeInternal,
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		actor := actorFrom(c)
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("user_id", actor.UserID).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authMiddleware resolves the bearer token into an Actor. Requests without a
// token continue as guests; a present but invalid token is rejected.
func authMiddleware(secret string, log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "auth").Logger()

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(actorKey, models.Guest())
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			abortWithError(c, apperr.Unauthenticated("invalid authorization header"))
			return
		}
		if secret == "" {
			log.Warn().Msg("Bearer token received but JWT_SECRET is not configured")
			abortWithError(c, apperr.Unauthenticated("invalid or expired token"))
			return
		}

		actor, err := parseToken(parts[1], secret)
		if err != nil {
			log.Debug().Err(err).Msg("Token rejected")
			abortWithError(c, apperr.Unauthenticated("invalid or expired token"))
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// parseToken verifies an HMAC-signed token and returns the identity it carries
func parseToken(tokenString, secret string) (models.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return models.Actor{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return models.Actor{}, fmt.Errorf("token has no subject")
	}

	role := models.Role(claims.Role)
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRoles[role] {
		return models.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	return models.Actor{UserID: claims.Subject, Role: role}, nil
}

// requireAuth rejects guests
func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorFrom(c).IsGuest() {
			abortWithError(c, apperr.Unauthenticated("authentication required"))
			return
		}
		c.Next()
	}
}

// rateLimitMiddleware throttles each user, or each client IP for guests.
// Limiters live in a bounded LRU so idle clients are evicted.
func rateLimitMiddleware(cfg config.RateLimitConfig) gin.HandlerFunc {
	size := cfg.MaxClients
	if size <= 0 {
		size = 10000
	}
	limiters, _ := lru.New[string, *rate.Limiter](size)

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if actor := actorFrom(c); !actor.IsGuest() {
			key = "user:" + actor.UserID
		}

		limiter, ok := limiters.Get(key)
		if !ok {
			// first requests can race; whichever limiter lands first is shared
			limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
			if prev, found, _ := limiters.PeekOrAdd(key, limiter); found {
				limiter = prev
			}
		}

		if !limiter.Allow() {
			abortWithError(c, apperr.RateLimited("too many requests, slow down"))
			return
		}
		c.Next()
	}
}

// actorFrom returns the request identity, a guest when none was set
func actorFrom(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Guest()
}
