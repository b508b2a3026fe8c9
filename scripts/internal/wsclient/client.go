// Package wsclient holds the handshake shared by the command line scripts.
package wsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/rankchat-server/internal/proto"
)

// Frame is an outbound envelope with its payload left undecoded.
type Frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

// Salute exchanges a name and credential for a bearer token.
func Salute(ctx context.Context, baseURL, name, hash string) (string, error) {
	body, err := json.Marshal(map[string]string{"name": name, "hash": hash})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/api/salute", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("salute: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("salute: unexpected status %s", resp.Status)
	}

	var out struct {
		Greeting string `json:"greeting"`
		Token    string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode salute: %w", err)
	}
	return out.Token, nil
}

// Dial opens the socket, sends hello and waits for the welcome event.
func Dial(ctx context.Context, wsURL, token string) (*websocket.Conn, proto.EventWelcome, error) {
	var welcome proto.EventWelcome

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, welcome, fmt.Errorf("dial: %w", err)
	}

	if err := Send(ctx, conn, proto.InboundTypeHello, proto.HelloData{Token: token, Protocol: proto.ProtocolVersion}); err != nil {
		conn.Close(websocket.StatusInternalError, "hello failed")
		return nil, welcome, err
	}

	var frame Frame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		conn.Close(websocket.StatusInternalError, "no welcome")
		return nil, welcome, fmt.Errorf("read welcome: %w", err)
	}
	if frame.Error != nil {
		conn.Close(websocket.StatusNormalClosure, "rejected")
		return nil, welcome, fmt.Errorf("hello rejected: %s: %s", frame.Error.Code, frame.Error.Msg)
	}
	if err := json.Unmarshal(frame.Data, &welcome); err != nil {
		conn.Close(websocket.StatusInternalError, "bad welcome")
		return nil, welcome, fmt.Errorf("decode welcome: %w", err)
	}
	return conn, welcome, nil
}

// Send wraps data in an inbound envelope of type typ.
func Send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

// BaseURL turns a ws:// or wss:// socket URL into the matching http base.
func BaseURL(wsURL string) string {
	base := strings.TrimSuffix(wsURL, "/ws")
	base = strings.Replace(base, "wss://", "https://", 1)
	return strings.Replace(base, "ws://", "http://", 1)
}
