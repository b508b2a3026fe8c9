package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/rankchat-server/internal/auth"
	"github.com/vovakirdan/rankchat-server/internal/config"
	"github.com/vovakirdan/rankchat-server/internal/core"
	"github.com/vovakirdan/rankchat-server/internal/proto"
	"github.com/vovakirdan/rankchat-server/internal/session"
	"github.com/vovakirdan/rankchat-server/internal/store"
	"github.com/vovakirdan/rankchat-server/internal/store/sqlite"
)

type testEnv struct {
	ts   *httptest.Server
	hub  *core.Hub
	auth *auth.Service
}

// startTestServer wires an in-memory store, hub, registry and router.
func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	disabledLogger := zerolog.New(nil)
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.JWTSecret = "test-secret"

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})
	hub := core.NewHub(store.NewPersister(st), proto.EncodeMessage, &disabledLogger)
	sessions := session.NewRegistry(cfg.SessionBuffer)

	server := NewServer(hub, authService, st, sessions, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, hub: hub, auth: authService}
}

// login provisions a ranked user and returns its bearer token.
func (e *testEnv) login(t *testing.T, name string, rank int) string {
	t.Helper()

	ctx := context.Background()
	if _, err := e.auth.CreateUser(ctx, name, name+"-hash", rank); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	_, token, err := e.auth.Salute(ctx, name, name+"-hash")
	if err != nil {
		t.Fatalf("salute %s: %v", name, err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

type rawOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// dialWS connects and authenticates; it returns after the welcome frame.
func (e *testEnv) dialWS(ctx context.Context, t *testing.T, token string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	send(ctx, t, conn, proto.InboundTypeHello, proto.HelloData{Token: token, Protocol: proto.ProtocolVersion})

	var out rawOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if out.Event != proto.EventNameWelcome {
		t.Fatalf("expected welcome, got %+v", out)
	}
	return conn
}

func send(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

// readMessages reads message events until stop returns true and returns all of them.
func readMessages(ctx context.Context, t *testing.T, conn *websocket.Conn, stop func(proto.EventMessage) bool) []proto.EventMessage {
	t.Helper()

	var seen []proto.EventMessage
	for {
		var out rawOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("read outbound: %v (seen %+v)", err, seen)
		}
		if out.Type == proto.OutboundTypeError {
			t.Fatalf("unexpected error frame: %+v", out.Error)
		}
		if out.Event != proto.EventNameMessage {
			continue
		}

		var ev proto.EventMessage
		if err := json.Unmarshal(out.Data, &ev); err != nil {
			t.Fatalf("unmarshal event data: %v", err)
		}
		seen = append(seen, ev)
		if stop(ev) {
			return seen
		}
	}
}

func withText(text string) func(proto.EventMessage) bool {
	return func(ev proto.EventMessage) bool { return ev.Text == text }
}
