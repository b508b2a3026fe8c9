package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/rankchat-server/internal/core"
	"github.com/vovakirdan/rankchat-server/internal/proto"
	"github.com/vovakirdan/rankchat-server/internal/session"
	"github.com/vovakirdan/rankchat-server/internal/store"
)

// RoomHandlers provides HTTP handlers for rooms, messages and reporting.
type RoomHandlers struct {
	hub      *core.Hub
	messages store.MessageStore
	sessions *session.Registry
	log      *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, messages store.MessageStore, sessions *session.Registry, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub:      hub,
		messages: messages,
		sessions: sessions,
		log:      logger,
	}
}

// PostMessageRequest represents the post message request body.
type PostMessageRequest struct {
	Text   string `json:"text" binding:"required,max=4096"`
	Secret bool   `json:"secret"`
}

// ReceiversResponse lists who a message was computed to reach.
type ReceiversResponse struct {
	ID         int64    `json:"id"`
	Recipients []string `json:"recipients"`
}

// MessageDetailResponse is a stored message with its receiver snapshot.
// Recorded is false for messages stored before the current process started;
// their receivers are not known.
type MessageDetailResponse struct {
	ID         int64    `json:"id"`
	Room       string   `json:"room"`
	User       string   `json:"user"`
	Rank       int      `json:"rank"`
	Text       string   `json:"text"`
	Secret     bool     `json:"secret"`
	TS         int64    `json:"ts"`
	Recorded   bool     `json:"recorded"`
	Recipients []string `json:"recipients"`
}

// MemberResponse represents a room member in API responses.
type MemberResponse struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// ListReceivers exports the receiver set of every recorded message.
// Secret messages are included, so the route is rank gated.
// GET /api/receivers
func (h *RoomHandlers) ListReceivers(c *gin.Context) {
	response := lo.Map(h.hub.Receivers(), func(r core.Receipt, _ int) ReceiversResponse {
		return ReceiversResponse{ID: r.Message.ID, Recipients: userNames(r.Receivers)}
	})

	c.JSON(http.StatusOK, response)
}

// GetMessage returns one stored message and, when this process recorded it,
// its receivers.
// GET /api/messages/:id
func (h *RoomHandlers) GetMessage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid message id"})
		return
	}

	msg, err := h.messages.GetMessage(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
			return
		}
		h.log.Error().Err(err).Int64("message_id", id).Msg("failed to load message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	receivers, recorded := h.hub.ReceiversOf(id)
	c.JSON(http.StatusOK, MessageDetailResponse{
		ID:         msg.ID,
		Room:       msg.Room,
		User:       msg.Author,
		Rank:       msg.AuthorRank,
		Text:       msg.Body,
		Secret:     msg.Secret,
		TS:         msg.CreatedAt.Unix(),
		Recorded:   recorded,
		Recipients: userNames(receivers),
	})
}

// RoomCounts returns the number of messages recorded per room.
// GET /api/rooms
func (h *RoomHandlers) RoomCounts(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.RoomMessageCounts())
}

// ListMembers returns the current members of a room. Only members may list it.
// GET /api/rooms/:room/members
func (h *RoomHandlers) ListMembers(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		h.log.Error().Msg("identity not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	room := c.Param("room")
	if !h.hub.IsMember(room, id.Name) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a member of this room"})
		return
	}
	members := h.hub.Members(room)

	c.JSON(http.StatusOK, lo.Map(members, func(m core.User, _ int) MemberResponse {
		return MemberResponse{Name: m.Name, Rank: m.Rank}
	}))
}

// Subscribe adds the caller to a room.
// POST /api/rooms/:room/subscribe
func (h *RoomHandlers) Subscribe(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		h.log.Error().Msg("identity not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	room := c.Param("room")
	if err := h.hub.Subscribe(c.Request.Context(), room, id.User(), h.sessions); err != nil {
		h.writeHubError(c, err, room)
		return
	}

	c.Status(http.StatusNoContent)
}

// PostMessage reports a message into a room on behalf of the caller.
// POST /api/rooms/:room/messages
func (h *RoomHandlers) PostMessage(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		h.log.Error().Msg("identity not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid post message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room := c.Param("room")
	msg, err := h.hub.Report(c.Request.Context(), id.User(), room, req.Text, req.Secret, h.sessions)
	if err != nil {
		h.writeHubError(c, err, room)
		return
	}

	c.JSON(http.StatusCreated, proto.MessageEvent(msg))
}

func (h *RoomHandlers) writeHubError(c *gin.Context, err error, room string) {
	switch {
	case errors.Is(err, core.ErrBadRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrPersistence):
		h.log.Error().Err(err).Str("room", room).Msg("message not stored")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "message could not be stored"})
	default:
		h.log.Error().Err(err).Str("room", room).Msg("hub operation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func userNames(users []core.User) []string {
	return lo.Map(users, func(u core.User, _ int) string { return u.Name })
}
