package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/rankchat-server/internal/auth"
	"github.com/vovakirdan/rankchat-server/internal/config"
	"github.com/vovakirdan/rankchat-server/internal/core"
	"github.com/vovakirdan/rankchat-server/internal/proto"
	"github.com/vovakirdan/rankchat-server/internal/session"
)

const helloTimeout = 10 * time.Second

// WSHandler upgrades HTTP connections and bridges them to the hub.
type WSHandler struct {
	hub      *core.Hub
	auth     *auth.Service
	sessions *session.Registry
	cfg      *config.Config
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, sessions *session.Registry, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, auth: authService, sessions: sessions, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	id, protoErr := h.handshake(ctx, conn)
	if protoErr != nil {
		_ = wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeError, Error: protoErr})
		conn.Close(websocket.StatusPolicyViolation, protoErr.Code)
		return
	}

	sess := h.sessions.Bind(id.Name)
	defer h.sessions.Unbind(sess)

	h.log.Info().Str("session_id", sess.ID).Str("user", id.Name).Int("rank", id.Rank).Msg("ws session opened")
	h.push(sess, proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: proto.EventNameWelcome,
		Data: proto.EventWelcome{
			User:     id.Name,
			Rank:     id.Rank,
			RankName: auth.RankName(id.Rank),
			Protocol: proto.ProtocolVersion,
		},
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := newRateLimiter(h.cfg.WSRateLimit)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess, id.User(), limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sess)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("ws connection closed with error")
		}
	}

	h.log.Info().Str("session_id", sess.ID).Str("user", id.Name).Msg("ws session closed")
	conn.Close(status, reason)
}

// handshake waits for the hello frame and authenticates its token.
func (h *WSHandler) handshake(ctx context.Context, conn *websocket.Conn) (auth.Identity, *proto.Error) {
	helloCtx, cancel := context.WithTimeout(ctx, helloTimeout)
	defer cancel()

	var inbound proto.Inbound
	if err := wsjson.Read(helloCtx, conn, &inbound); err != nil {
		h.log.Debug().Err(err).Msg("read hello")
		return auth.Identity{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "hello expected"}
	}
	if inbound.Type != proto.InboundTypeHello {
		return auth.Identity{}, &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "hello must be the first message"}
	}

	var hello proto.HelloData
	if err := json.Unmarshal(inbound.Data, &hello); err != nil {
		return auth.Identity{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed hello"}
	}
	if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
		return auth.Identity{}, &proto.Error{Code: proto.ErrCodeUnsupportedVersion, Msg: "unsupported protocol version"}
	}

	id, err := h.auth.Authenticate(hello.Token)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws token rejected")
		return auth.Identity{}, &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "invalid token"}
	}
	return id, nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session, user core.User, limiter *rateLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			h.log.Debug().Err(err).Str("session_id", sess.ID).Msg("read ws inbound")
			return err
		}

		if !limiter.allow() {
			h.push(sess, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: proto.ErrCodeRateLimited, Msg: "too many messages"},
			})
			continue
		}

		if protoErr := h.dispatch(ctx, user, inbound); protoErr != nil {
			h.push(sess, proto.Outbound{Type: proto.OutboundTypeError, Error: protoErr})
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session) error {
	for {
		select {
		case frame, ok := <-sess.Out():
			if !ok {
				// Replaced by a newer connection of the same user.
				return nil
			}
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				h.log.Error().Err(err).Str("session_id", sess.ID).Msg("write ws frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// push queues a non-message frame on the session; drops it if the session is gone.
func (h *WSHandler) push(sess *session.Session, out proto.Outbound) {
	frame, err := json.Marshal(out)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal outbound")
		return
	}
	if err := sess.Send(frame); err != nil {
		h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("drop outbound frame")
	}
}
