package proto

import (
	"encoding/json"

	"github.com/vovakirdan/rankchat-server/internal/core"
)

// MessageEvent converts a core message into its wire representation.
func MessageEvent(msg core.Message) EventMessage {
	return EventMessage{
		ID:     msg.ID,
		Room:   msg.Room,
		User:   msg.Author.Name,
		Text:   msg.Text,
		Secret: msg.Secret,
		TS:     msg.CreatedAt.Unix(),
	}
}

// EncodeMessage serializes msg as an outbound message event frame.
// It satisfies core.Encoder.
func EncodeMessage(msg core.Message) ([]byte, error) {
	return json.Marshal(Outbound{
		Type:  OutboundTypeEvent,
		Event: EventNameMessage,
		Data:  MessageEvent(msg),
	})
}

// ErrorFrame builds an outbound error envelope from a core error.
func ErrorFrame(ce *core.CoreError) Outbound {
	if ce == nil {
		return Outbound{Type: OutboundTypeError, Error: &Error{Code: "unknown", Msg: "unknown error"}}
	}
	return Outbound{Type: OutboundTypeError, Error: &Error{Code: ce.Code, Msg: ce.Message}}
}
