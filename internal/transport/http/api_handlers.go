package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/rankchat-server/internal/auth"
	"github.com/vovakirdan/rankchat-server/internal/core"
)

// APIHandlers provides HTTP handlers for authentication endpoints.
type APIHandlers struct {
	authService *auth.Service
	hub         *core.Hub
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, hub *core.Hub, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		hub:         hub,
		log:         logger,
	}
}

// SaluteRequest carries the caller's name and credential hash.
// Accepted as JSON or as form parameters.
type SaluteRequest struct {
	Name string `json:"name" form:"name" binding:"required"`
	Hash string `json:"hash" form:"hash" binding:"required"`
}

// SaluteResponse reports the resolved rank and a bearer token.
type SaluteResponse struct {
	Name     string `json:"name"`
	Rank     int    `json:"rank"`
	RankName string `json:"rank_name"`
	Greeting string `json:"greeting"`
	Token    string `json:"token"`
}

// IdentityResponse describes the authenticated caller and the rooms it is
// subscribed to.
type IdentityResponse struct {
	Name     string   `json:"name"`
	Rank     int      `json:"rank"`
	RankName string   `json:"rank_name"`
	Rooms    []string `json:"rooms"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Salute resolves the caller's rank and issues a token.
// POST /api/salute
func (h *APIHandlers) Salute(c *gin.Context) {
	var req SaluteRequest
	if err := c.ShouldBind(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid salute request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	id, token, err := h.authService.Salute(c.Request.Context(), req.Name, req.Hash)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
			return
		}
		h.log.Error().Err(err).Str("name", req.Name).Msg("failed to resolve rank")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	rankName := auth.RankName(id.Rank)
	h.log.Info().Str("name", id.Name).Int("rank", id.Rank).Msg("user saluted")
	c.JSON(http.StatusOK, SaluteResponse{
		Name:     id.Name,
		Rank:     id.Rank,
		RankName: rankName,
		Greeting: "You are " + rankName,
		Token:    token,
	})
}

// Me returns the identity carried by the bearer token.
// GET /api/me
func (h *APIHandlers) Me(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		h.log.Error().Msg("identity not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	rooms := lo.Filter(h.hub.Rooms(), func(room string, _ int) bool { return h.hub.IsMember(room, id.Name) })
	c.JSON(http.StatusOK, IdentityResponse{
		Name:     id.Name,
		Rank:     id.Rank,
		RankName: auth.RankName(id.Rank),
		Rooms:    rooms,
	})
}
