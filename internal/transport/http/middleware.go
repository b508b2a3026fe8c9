package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/rankchat-server/internal/auth"
)

// ContextKeyIdentity is the gin context key of the authenticated identity.
const ContextKeyIdentity = "identity"

// AuthMiddleware rejects requests without a valid bearer token and stores the
// token's identity in the gin context.
func AuthMiddleware(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, reason := bearerToken(c.GetHeader("Authorization"))
		if reason != "" {
			logger.Debug().Str("path", c.Request.URL.Path).Msg(reason)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: reason})
			return
		}

		id, err := authService.Authenticate(token)
		if err != nil {
			logger.Debug().Err(err).Msg("invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			return
		}

		c.Set(ContextKeyIdentity, id)
		c.Next()
	}
}

// RequireRank rejects authenticated callers whose rank is below minRank.
// It must run after AuthMiddleware.
func RequireRank(minRank int, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			return
		}
		if id.Rank < minRank {
			logger.Debug().Str("user", id.Name).Int("rank", id.Rank).Int("required", minRank).Msg("rank too low")
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "requires rank " + auth.RankName(minRank)})
			return
		}
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value. A
// non-empty reason explains why the header is unusable.
func bearerToken(header string) (token, reason string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", "invalid authorization header format"
	}
	return strings.TrimSpace(token), ""
}

// LoggerMiddleware logs one line per request; 5xx responses log at error level.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Debug()
		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case status >= http.StatusBadRequest:
			event = logger.Info()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

func identityFrom(c *gin.Context) (auth.Identity, bool) {
	v, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
