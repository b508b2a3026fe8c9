package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/rankchat-server/internal/auth"
	"github.com/vovakirdan/rankchat-server/internal/session"
	"github.com/vovakirdan/rankchat-server/internal/store"
)

// UserHandlers provides HTTP handlers for user lookups.
type UserHandlers struct {
	users    store.UserStore
	sessions *session.Registry
	log      *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(users store.UserStore, sessions *session.Registry, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		users:    users,
		sessions: sessions,
		log:      logger,
	}
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Rank     int    `json:"rank"`
	RankName string `json:"rank_name"`
	Online   bool   `json:"online"`
}

// GetUser returns the public profile of a user.
// GET /api/users/:name
func (h *UserHandlers) GetUser(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name is required"})
		return
	}

	user, err := h.users.GetUserByName(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Str("name", name).Msg("failed to look up user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	_, online := h.sessions.Lookup(user.Name)
	c.JSON(http.StatusOK, UserResponse{
		ID:       user.ID,
		Name:     user.Name,
		Rank:     user.Rank,
		RankName: auth.RankName(user.Rank),
		Online:   online,
	})
}
