package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello = "hello"
	InboundTypeJoin  = "join"
	InboundTypeMsg   = "msg"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameWelcome = "welcome"
	EventNameMessage = "message"
)

// HelloData is sent by the client to authenticate the connection.
type HelloData struct {
	Token    string `json:"token"`
	Protocol int    `json:"protocol,omitempty"`
}

// JoinData requests to subscribe to a specific room.
type JoinData struct {
	Room string `json:"room"`
}

// MsgData is a chat message from the client.
type MsgData struct {
	Room   string `json:"room"`
	Text   string `json:"text"`
	Secret bool   `json:"secret,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventWelcome confirms the authenticated identity of the connection.
type EventWelcome struct {
	User     string `json:"user"`
	Rank     int    `json:"rank"`
	RankName string `json:"rank_name"`
	Protocol int    `json:"protocol"`
}

// EventMessage is a chat message delivered to a receiver.
type EventMessage struct {
	ID     int64  `json:"id"`
	Room   string `json:"room"`
	User   string `json:"user"`
	Text   string `json:"text"`
	Secret bool   `json:"secret"`
	TS     int64  `json:"ts"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// Protocol-level error codes not produced by the core.
const (
	ErrCodeUnsupportedVersion = "unsupported_version"
	ErrCodeInvalidMessage     = "invalid_message"
	ErrCodeRateLimited        = "rate_limited"
)
