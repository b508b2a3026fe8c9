package http

import (
	"context"
	"encoding/json"

	"github.com/vovakirdan/rankchat-server/internal/core"
	"github.com/vovakirdan/rankchat-server/internal/proto"
)

// dispatch applies one inbound frame to the hub and returns a client-visible
// error, if any.
func (h *WSHandler) dispatch(ctx context.Context, user core.User, inbound proto.Inbound) *proto.Error {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed join"}
		}
		if join.Room == "" {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}
		}
		return toProtoError(h.hub.Subscribe(ctx, join.Room, user, h.sessions))
	case proto.InboundTypeMsg:
		var msg proto.MsgData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed msg"}
		}
		if msg.Room == "" {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}
		}
		_, err := h.hub.Report(ctx, user, msg.Room, msg.Text, msg.Secret, h.sessions)
		return toProtoError(err)
	case proto.InboundTypeHello:
		return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "already authenticated"}
	default:
		return &proto.Error{Code: proto.ErrCodeInvalidMessage, Msg: "unknown message type"}
	}
}

func toProtoError(err error) *proto.Error {
	ce := core.AsCoreError(err)
	if ce == nil {
		return nil
	}
	return proto.ErrorFrame(ce).Error
}
