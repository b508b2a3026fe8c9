package http

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	env := startTestServer(t)

	resp := env.do(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := startTestServer(t)

	resp := env.do(t, http.MethodGet, "/metrics", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestSalute(t *testing.T) {
	env := startTestServer(t)
	env.login(t, "bob", 5)

	resp := env.do(t, http.MethodPost, "/api/salute", "", SaluteRequest{Name: "bob", Hash: "bob-hash"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode[SaluteResponse](t, resp)
	if body.Rank != 5 || body.RankName != "Major" || body.Greeting != "You are Major" || body.Token == "" {
		t.Fatalf("unexpected salute response: %+v", body)
	}

	me := env.do(t, http.MethodGet, "/api/me", body.Token, nil)
	if me.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /api/me, got %d", me.StatusCode)
	}
	if id := decode[IdentityResponse](t, me); id.Name != "bob" || id.Rank != 5 {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestSaluteAcceptsFormParams(t *testing.T) {
	env := startTestServer(t)
	env.login(t, "alice", 1)

	form := url.Values{"name": {"alice"}, "hash": {"alice-hash"}}
	resp, err := env.ts.Client().Post(env.ts.URL+"/api/salute", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("salute: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := decode[SaluteResponse](t, resp); body.RankName != "Corporal" {
		t.Fatalf("unexpected rank name: %+v", body)
	}
}

func TestSaluteUnauthorized(t *testing.T) {
	env := startTestServer(t)
	env.login(t, "bob", 5)

	resp := env.do(t, http.MethodPost, "/api/salute", "", SaluteRequest{Name: "bob", Hash: "guess"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if body := decode[ErrorResponse](t, resp); body.Error != "Unauthorized" {
		t.Fatalf("unexpected error body: %+v", body)
	}

	resp = env.do(t, http.MethodPost, "/api/salute", "", map[string]string{"name": "bob"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing hash, got %d", resp.StatusCode)
	}
}

func TestAPIRequiresBearerToken(t *testing.T) {
	env := startTestServer(t)

	for _, tc := range []struct {
		name  string
		token string
	}{
		{name: "missing", token: ""},
		{name: "garbage", token: "not-a-jwt"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, "/api/rooms", tc.token, nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", resp.StatusCode)
			}
		})
	}
}

func TestGetUser(t *testing.T) {
	env := startTestServer(t)
	token := env.login(t, "alice", 1)
	env.login(t, "bob", 5)

	resp := env.do(t, http.MethodGet, "/api/users/bob", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	user := decode[UserResponse](t, resp)
	if user.Name != "bob" || user.Rank != 5 || user.RankName != "Major" || user.Online {
		t.Fatalf("unexpected user: %+v", user)
	}

	resp = env.do(t, http.MethodGet, "/api/users/nobody", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
